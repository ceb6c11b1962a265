package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, t *Truck) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Truck, error)
	UpdateProvider(ctx context.Context, db *gorm.DB, id string, providerID snowflake.ID) error
}
