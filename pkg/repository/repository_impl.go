package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type store[T any] struct {
	db *gorm.DB
}

// FindOne returns nil, nil when nothing matches.
func (r *store[T]) FindOne(ctx context.Context, filter *T) (*T, error) {
	var result T
	err := r.db.WithContext(ctx).Where(filter).Take(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *store[T]) Update(ctx context.Context, id any, values map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(values)
	return res.RowsAffected, res.Error
}
