package service

import (
	"context"
	"io"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        ratedomain.Repository
	ProviderSvc providerdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        ratedomain.Repository
	providerSvc providerdomain.Service
}

func New(p Params) ratedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("rate.service"),
		repo:        p.Repo,
		providerSvc: p.ProviderSvc,
	}
}

func (s *Service) Replace(ctx context.Context, workbook io.Reader) (*ratedomain.ImportResult, error) {
	parsed, err := parseWorkbook(workbook)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, parsed); err != nil {
		return nil, err
	}
	rates := ratesOf(parsed)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.ReplaceAll(ctx, tx, rates)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rate table replaced", zap.Int("rates", len(rates)))
	return &ratedomain.ImportResult{Imported: len(rates)}, nil
}

func (s *Service) Export(ctx context.Context, w io.Writer) error {
	rates, err := s.repo.List(ctx, s.db)
	if err != nil {
		return err
	}
	return writeWorkbook(w, rates)
}

func (s *Service) List(ctx context.Context) ([]ratedomain.Rate, error) {
	rates, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = []ratedomain.Rate{}
	}
	return rates, nil
}

// validate rejects duplicate (product, scope) pairs and provider scopes that
// do not name a registered provider.
func (s *Service) validate(ctx context.Context, rates []sheetRate) error {
	type key struct{ product, scope string }
	seen := make(map[key]struct{}, len(rates))
	checked := map[string]bool{}

	for _, r := range rates {
		k := key{r.ProductID, r.Scope}
		if _, dup := seen[k]; dup {
			return &ratedomain.RowError{Row: r.row, Column: "Scope", Err: ratedomain.ErrDuplicateRate}
		}
		seen[k] = struct{}{}

		if r.Scope == ratedomain.ScopeAll {
			continue
		}
		known, ok := checked[r.Scope]
		if !ok {
			var err error
			known, err = s.providerExists(ctx, r.Scope)
			if err != nil {
				return err
			}
			checked[r.Scope] = known
		}
		if !known {
			return &ratedomain.RowError{Row: r.row, Column: "Scope", Err: ratedomain.ErrUnknownScope}
		}
	}
	return nil
}

func (s *Service) providerExists(ctx context.Context, scope string) (bool, error) {
	id, err := snowflake.ParseString(scope)
	if err != nil || id <= 0 {
		return false, nil
	}
	p, err := s.providerSvc.Lookup(ctx, id)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}
