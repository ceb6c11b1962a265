package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	"github.com/smallbiznis/weighbill/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() truckdomain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[truckdomain.Truck] {
	return repository.On[truckdomain.Truck](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, t *truckdomain.Truck) error {
	return r.store(db).Create(ctx, t)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*truckdomain.Truck, error) {
	if id == "" {
		return nil, nil
	}
	return r.store(db).FindOne(ctx, &truckdomain.Truck{ID: id})
}

func (r *repo) UpdateProvider(ctx context.Context, db *gorm.DB, id string, providerID snowflake.ID) error {
	_, err := r.store(db).Update(ctx, id, map[string]any{
		"provider_id": providerID,
		"updated_at":  db.NowFunc(),
	})
	return err
}
