package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Rename(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	// Lookup is the read contract used while enriching weighing facts.
	// It returns nil, nil for unknown ids.
	Lookup(ctx context.Context, id snowflake.ID) (*Provider, error)
}

type CreateRequest struct {
	Name string `json:"name"`
}

type UpdateRequest struct {
	Name string `json:"name"`
}

type Response struct {
	ID        snowflake.ID `json:"id"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

var (
	ErrInvalidID   = errors.New("invalid_provider_id")
	ErrInvalidName = errors.New("invalid_provider_name")
	ErrNameTaken   = errors.New("provider_name_taken")
	ErrNotFound    = errors.New("provider_not_found")
)
