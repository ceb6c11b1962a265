package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	"github.com/smallbiznis/weighbill/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() providerdomain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[providerdomain.Provider] {
	return repository.On[providerdomain.Provider](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *providerdomain.Provider) error {
	return r.store(db).Create(ctx, p)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*providerdomain.Provider, error) {
	if id == 0 {
		return nil, nil
	}
	return r.store(db).FindOne(ctx, &providerdomain.Provider{ID: id})
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*providerdomain.Provider, error) {
	if name == "" {
		return nil, nil
	}
	return r.store(db).FindOne(ctx, &providerdomain.Provider{Name: name})
}

func (r *repo) UpdateName(ctx context.Context, db *gorm.DB, id snowflake.ID, name string) error {
	_, err := r.store(db).Update(ctx, id, map[string]any{
		"name":       name,
		"updated_at": db.NowFunc(),
	})
	return err
}
