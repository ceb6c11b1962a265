package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/weighbill/internal/cache"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"github.com/smallbiznis/weighbill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTruckIDLength = 32

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        truckdomain.Repository
	ProviderSvc providerdomain.Service
	Weighing    weighingdomain.Client
	Cache       cache.ReferenceCache `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        truckdomain.Repository
	providerSvc providerdomain.Service
	weighing    weighingdomain.Client
	cache       cache.ReferenceCache
}

func New(p Params) truckdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("truck.service"),
		repo:        p.Repo,
		providerSvc: p.ProviderSvc,
		weighing:    p.Weighing,
		cache:       p.Cache,
	}
}

func (s *Service) Register(ctx context.Context, req truckdomain.RegisterRequest) (*truckdomain.Response, error) {
	id, err := normalizeID(req.ID)
	if err != nil {
		return nil, err
	}
	providerID, err := s.requireProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, truckdomain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	entity := &truckdomain.Truck{
		ID:         id,
		ProviderID: providerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		switch {
		case db.IsDuplicateKeyErr(err):
			return nil, truckdomain.ErrAlreadyExists
		case db.IsForeignKeyErr(err):
			return nil, truckdomain.ErrInvalidProvider
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateTruck(ctx, id)
	}

	s.log.Info("truck registered", zap.String("provider_id", providerID.String()))
	return toResponse(entity), nil
}

func (s *Service) UpdateProvider(ctx context.Context, id string, req truckdomain.UpdateRequest) (*truckdomain.Response, error) {
	truckID, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	entity, err := s.repo.FindByID(ctx, s.db, truckID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, truckdomain.ErrNotFound
	}

	providerID, err := s.requireProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if entity.ProviderID == providerID {
		return toResponse(entity), nil
	}

	if err := s.repo.UpdateProvider(ctx, s.db, truckID, providerID); err != nil {
		if db.IsForeignKeyErr(err) {
			return nil, truckdomain.ErrInvalidProvider
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateTruck(ctx, truckID)
	}

	updated, err := s.repo.FindByID(ctx, s.db, truckID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, truckdomain.ErrNotFound
	}
	return toResponse(updated), nil
}

func (s *Service) Get(ctx context.Context, id string) (*truckdomain.Response, error) {
	truckID, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	entity, err := s.Lookup(ctx, truckID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, truckdomain.ErrNotFound
	}
	return toResponse(entity), nil
}

func (s *Service) Info(ctx context.Context, id string, from, to time.Time) (*truckdomain.InfoResponse, error) {
	truckID, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	entity, err := s.Lookup(ctx, truckID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, truckdomain.ErrNotFound
	}

	item, err := s.weighing.GetItem(ctx, truckID, from, to)
	if err != nil {
		return nil, err
	}
	sessions := item.Sessions
	if sessions == nil {
		sessions = []string{}
	}
	return &truckdomain.InfoResponse{
		ID:       truckID,
		Tara:     item.Tara,
		Sessions: sessions,
	}, nil
}

func (s *Service) Lookup(ctx context.Context, id string) (*truckdomain.Truck, error) {
	if s.cache != nil {
		if t, ok := s.cache.Truck(ctx, id); ok {
			return &t, nil
		}
	}
	entity, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entity != nil && s.cache != nil {
		s.cache.PutTruck(ctx, *entity)
	}
	return entity, nil
}

func (s *Service) requireProvider(ctx context.Context, raw string) (snowflake.ID, error) {
	providerID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || providerID <= 0 {
		return 0, truckdomain.ErrInvalidProvider
	}
	provider, err := s.providerSvc.Lookup(ctx, providerID)
	if err != nil {
		return 0, err
	}
	if provider == nil {
		return 0, providerdomain.ErrNotFound
	}
	return providerID, nil
}

func normalizeID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxTruckIDLength {
		return "", truckdomain.ErrInvalidID
	}
	return id, nil
}

func toResponse(t *truckdomain.Truck) *truckdomain.Response {
	return &truckdomain.Response{
		ID:         t.ID,
		ProviderID: t.ProviderID,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
