package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/weighbill/internal/cache"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	"github.com/smallbiznis/weighbill/internal/provider/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (providerdomain.Service, cache.ReferenceCache) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&providerdomain.Provider{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	refCache := cache.NewMemoryReferenceCache(time.Minute)
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Cache: refCache,
	})
	return svc, refCache
}

func TestCreate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, providerdomain.CreateRequest{Name: "  Green Fields "})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Green Fields", created.Name)

	_, err = svc.Create(ctx, providerdomain.CreateRequest{Name: "Green Fields"})
	assert.ErrorIs(t, err, providerdomain.ErrNameTaken)

	_, err = svc.Create(ctx, providerdomain.CreateRequest{Name: "   "})
	assert.ErrorIs(t, err, providerdomain.ErrInvalidName)
}

func TestRename(t *testing.T) {
	svc, refCache := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, providerdomain.CreateRequest{Name: "Alpha"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, providerdomain.CreateRequest{Name: "Beta"})
	require.NoError(t, err)

	// warm the cache so the rename has something to invalidate
	_, err = svc.Get(ctx, a.ID.String())
	require.NoError(t, err)
	_, cached := refCache.Provider(ctx, a.ID)
	require.True(t, cached)

	renamed, err := svc.Rename(ctx, a.ID.String(), providerdomain.UpdateRequest{Name: "Alpha Farms"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Farms", renamed.Name)
	_, cached = refCache.Provider(ctx, a.ID)
	assert.False(t, cached)

	got, err := svc.Get(ctx, a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Alpha Farms", got.Name)

	_, err = svc.Rename(ctx, a.ID.String(), providerdomain.UpdateRequest{Name: "Beta"})
	assert.ErrorIs(t, err, providerdomain.ErrNameTaken)

	same, err := svc.Rename(ctx, a.ID.String(), providerdomain.UpdateRequest{Name: "Alpha Farms"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Farms", same.Name)

	_, err = svc.Rename(ctx, "12345", providerdomain.UpdateRequest{Name: "Gamma"})
	assert.ErrorIs(t, err, providerdomain.ErrNotFound)

	_, err = svc.Rename(ctx, "abc", providerdomain.UpdateRequest{Name: "Gamma"})
	assert.ErrorIs(t, err, providerdomain.ErrInvalidID)
}

func TestLookupUnknownReturnsNil(t *testing.T) {
	svc, _ := setup(t)

	p, err := svc.Lookup(context.Background(), snowflake.ID(42))
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = svc.Get(context.Background(), "42")
	assert.ErrorIs(t, err, providerdomain.ErrNotFound)
}
