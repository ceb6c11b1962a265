package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/weighbill/internal/cache"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	"github.com/smallbiznis/weighbill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  providerdomain.Repository
	Cache cache.ReferenceCache `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  providerdomain.Repository
	cache cache.ReferenceCache
}

func New(p Params) providerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("provider.service"),
		genID: p.GenID,
		repo:  p.Repo,
		cache: p.Cache,
	}
}

func (s *Service) Create(ctx context.Context, req providerdomain.CreateRequest) (*providerdomain.Response, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, providerdomain.ErrNameTaken
	}

	now := time.Now().UTC()
	entity := &providerdomain.Provider{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, providerdomain.ErrNameTaken
		}
		return nil, err
	}

	s.log.Info("provider created", zap.String("provider_id", entity.ID.String()))
	return toResponse(entity), nil
}

func (s *Service) Rename(ctx context.Context, id string, req providerdomain.UpdateRequest) (*providerdomain.Response, error) {
	providerID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	entity, err := s.repo.FindByID(ctx, s.db, providerID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, providerdomain.ErrNotFound
	}
	if entity.Name == name {
		return toResponse(entity), nil
	}

	holder, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.ID != providerID {
		return nil, providerdomain.ErrNameTaken
	}

	if err := s.repo.UpdateName(ctx, s.db, providerID, name); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, providerdomain.ErrNameTaken
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateProvider(ctx, providerID)
	}

	updated, err := s.repo.FindByID(ctx, s.db, providerID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, providerdomain.ErrNotFound
	}
	return toResponse(updated), nil
}

func (s *Service) Get(ctx context.Context, id string) (*providerdomain.Response, error) {
	providerID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	entity, err := s.Lookup(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, providerdomain.ErrNotFound
	}
	return toResponse(entity), nil
}

func (s *Service) Lookup(ctx context.Context, id snowflake.ID) (*providerdomain.Provider, error) {
	if s.cache != nil {
		if p, ok := s.cache.Provider(ctx, id); ok {
			return &p, nil
		}
	}
	entity, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entity != nil && s.cache != nil {
		s.cache.PutProvider(ctx, *entity)
	}
	return entity, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, providerdomain.ErrInvalidID
	}
	return id, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > 255 {
		return "", providerdomain.ErrInvalidName
	}
	return name, nil
}

func toResponse(p *providerdomain.Provider) *providerdomain.Response {
	return &providerdomain.Response{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
