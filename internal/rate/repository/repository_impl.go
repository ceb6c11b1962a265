package repository

import (
	"context"

	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	"gorm.io/gorm"
)

const insertBatchSize = 200

type repo struct{}

func Provide() ratedomain.Repository {
	return &repo{}
}

// ReplaceAll must run inside a transaction.
func (r *repo) ReplaceAll(ctx context.Context, db *gorm.DB, rates []ratedomain.Rate) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM rates`).Error; err != nil {
		return err
	}
	if len(rates) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(rates, insertBatchSize).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]ratedomain.Rate, error) {
	var items []ratedomain.Rate
	err := db.WithContext(ctx).Raw(
		`SELECT product_id, scope, rate FROM rates ORDER BY product_id ASC, scope ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindForProduct(ctx context.Context, db *gorm.DB, productID, providerScope string) ([]ratedomain.Rate, error) {
	var items []ratedomain.Rate
	err := db.WithContext(ctx).Raw(
		`SELECT product_id, scope, rate FROM rates
		 WHERE product_id = ? AND (scope = ? OR UPPER(scope) = ?)
		 ORDER BY scope ASC`,
		productID,
		providerScope,
		ratedomain.ScopeAll,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
