package service

import (
	"context"
	"strings"

	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type ResolverParams struct {
	fx.In

	DB   *gorm.DB
	Repo ratedomain.Repository
}

type Resolver struct {
	db   *gorm.DB
	repo ratedomain.Repository
}

func NewResolver(p ResolverParams) ratedomain.Resolver {
	return &Resolver{db: p.DB, repo: p.Repo}
}

// Resolve prefers the provider-scoped rate and falls back to ALL.
func (r *Resolver) Resolve(ctx context.Context, productID, providerID string) (*int64, error) {
	candidates, err := r.repo.FindForProduct(ctx, r.db, productID, providerID)
	if err != nil {
		return nil, err
	}
	return pickRate(candidates, providerID), nil
}

func pickRate(candidates []ratedomain.Rate, providerID string) *int64 {
	var fallback *int64
	for _, c := range candidates {
		if providerID != "" && c.Scope == providerID {
			v := c.Rate
			return &v
		}
		if fallback == nil && strings.EqualFold(c.Scope, ratedomain.ScopeAll) {
			v := c.Rate
			fallback = &v
		}
	}
	return fallback
}
