package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ReplaceAll(ctx context.Context, db *gorm.DB, rates []Rate) error
	List(ctx context.Context, db *gorm.DB) ([]Rate, error)
	FindForProduct(ctx context.Context, db *gorm.DB, productID, providerScope string) ([]Rate, error)
}
