package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *Provider) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Provider, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Provider, error)
	UpdateName(ctx context.Context, db *gorm.DB, id snowflake.ID, name string) error
}
