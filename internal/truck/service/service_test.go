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
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	"github.com/smallbiznis/weighbill/internal/truck/repository"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type providerStub struct {
	known map[snowflake.ID]providerdomain.Provider
}

func (p *providerStub) Create(context.Context, providerdomain.CreateRequest) (*providerdomain.Response, error) {
	return nil, nil
}

func (p *providerStub) Rename(context.Context, string, providerdomain.UpdateRequest) (*providerdomain.Response, error) {
	return nil, nil
}

func (p *providerStub) Get(context.Context, string) (*providerdomain.Response, error) {
	return nil, nil
}

func (p *providerStub) Lookup(_ context.Context, id snowflake.ID) (*providerdomain.Provider, error) {
	if v, ok := p.known[id]; ok {
		return &v, nil
	}
	return nil, nil
}

type weighingMock struct {
	mock.Mock
}

func (m *weighingMock) ListTransactions(ctx context.Context, from, to time.Time, direction string) ([]weighingdomain.Transaction, error) {
	args := m.Called(ctx, from, to, direction)
	return args.Get(0).([]weighingdomain.Transaction), args.Error(1)
}

func (m *weighingMock) GetItem(ctx context.Context, id string, from, to time.Time) (*weighingdomain.Item, error) {
	args := m.Called(ctx, id, from, to)
	item, _ := args.Get(0).(*weighingdomain.Item)
	return item, args.Error(1)
}

func (m *weighingMock) GetSession(ctx context.Context, id string) (*weighingdomain.Session, error) {
	args := m.Called(ctx, id)
	sess, _ := args.Get(0).(*weighingdomain.Session)
	return sess, args.Error(1)
}

func setup(t *testing.T) (truckdomain.Service, *weighingMock, cache.ReferenceCache) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&truckdomain.Truck{}))

	weighing := &weighingMock{}
	refCache := cache.NewMemoryReferenceCache(time.Minute)
	svc := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		ProviderSvc: &providerStub{known: map[snowflake.ID]providerdomain.Provider{
			10: {ID: 10, Name: "Alpha"},
			20: {ID: 20, Name: "Beta"},
		}},
		Weighing: weighing,
		Cache:    refCache,
	})
	return svc, weighing, refCache
}

func TestRegister(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	truck, err := svc.Register(ctx, truckdomain.RegisterRequest{ID: " 12-345-67 ", ProviderID: "10"})
	require.NoError(t, err)
	assert.Equal(t, "12-345-67", truck.ID)
	assert.Equal(t, snowflake.ID(10), truck.ProviderID)

	_, err = svc.Register(ctx, truckdomain.RegisterRequest{ID: "12-345-67", ProviderID: "20"})
	assert.ErrorIs(t, err, truckdomain.ErrAlreadyExists)

	_, err = svc.Register(ctx, truckdomain.RegisterRequest{ID: "99-999-99", ProviderID: "30"})
	assert.ErrorIs(t, err, providerdomain.ErrNotFound)

	_, err = svc.Register(ctx, truckdomain.RegisterRequest{ID: "", ProviderID: "10"})
	assert.ErrorIs(t, err, truckdomain.ErrInvalidID)

	_, err = svc.Register(ctx, truckdomain.RegisterRequest{ID: "11-111-11", ProviderID: "x"})
	assert.ErrorIs(t, err, truckdomain.ErrInvalidProvider)
}

func TestUpdateProviderInvalidatesCache(t *testing.T) {
	svc, _, refCache := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, truckdomain.RegisterRequest{ID: "12-345-67", ProviderID: "10"})
	require.NoError(t, err)

	found, err := svc.Lookup(ctx, "12-345-67")
	require.NoError(t, err)
	require.NotNil(t, found)
	_, cached := refCache.Truck(ctx, "12-345-67")
	require.True(t, cached)

	updated, err := svc.UpdateProvider(ctx, "12-345-67", truckdomain.UpdateRequest{ProviderID: "20"})
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(20), updated.ProviderID)
	_, cached = refCache.Truck(ctx, "12-345-67")
	assert.False(t, cached)

	got, err := svc.Get(ctx, "12-345-67")
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(20), got.ProviderID)

	_, err = svc.UpdateProvider(ctx, "00-000-00", truckdomain.UpdateRequest{ProviderID: "20"})
	assert.ErrorIs(t, err, truckdomain.ErrNotFound)
}

func TestInfo(t *testing.T) {
	svc, weighing, _ := setup(t)
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)

	_, err := svc.Register(ctx, truckdomain.RegisterRequest{ID: "12-345-67", ProviderID: "10"})
	require.NoError(t, err)

	tara := int64(4800)
	weighing.On("GetItem", mock.Anything, "12-345-67", from, to).
		Return(&weighingdomain.Item{ID: "12-345-67", Tara: &tara, Sessions: []string{"1", "2"}}, nil).Once()

	info, err := svc.Info(ctx, "12-345-67", from, to)
	require.NoError(t, err)
	assert.Equal(t, &tara, info.Tara)
	assert.Equal(t, []string{"1", "2"}, info.Sessions)
	weighing.AssertExpectations(t)

	_, err = svc.Info(ctx, "00-000-00", from, to)
	assert.ErrorIs(t, err, truckdomain.ErrNotFound)
}
