package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type plate struct {
	ID    string `gorm:"primaryKey"`
	Owner int64
}

func TestStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&plate{}))

	ctx := context.Background()
	store := On[plate](db)

	missing, err := store.FindOne(ctx, &plate{ID: "12-345-67"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Create(ctx, &plate{ID: "12-345-67", Owner: 10}))

	rows, err := store.Update(ctx, "12-345-67", map[string]any{"owner": 11})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = store.Update(ctx, "00-000-00", map[string]any{"owner": 11})
	require.NoError(t, err)
	assert.Zero(t, rows)

	got, err := store.FindOne(ctx, &plate{ID: "12-345-67"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.EqualValues(t, 11, got.Owner)
}
