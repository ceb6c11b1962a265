package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the generic store behind the provider and truck
// repositories. Filters are gorm struct conditions, so zero fields are
// ignored.
type Repository[T any] interface {
	FindOne(ctx context.Context, filter *T) (*T, error)
	Create(ctx context.Context, resource *T) error
	// Update sets columns on the row with the given primary key and reports
	// how many rows changed.
	Update(ctx context.Context, id any, values map[string]any) (int64, error)
}

// On binds a store to db, which may be a transaction.
func On[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}
