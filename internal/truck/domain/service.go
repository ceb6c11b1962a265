package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Response, error)
	UpdateProvider(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	// Info reports the truck's tare and sessions as recorded by the
	// weighing service for the window.
	Info(ctx context.Context, id string, from, to time.Time) (*InfoResponse, error)
	// Lookup is the read contract used while enriching weighing facts.
	// It returns nil, nil for unknown trucks.
	Lookup(ctx context.Context, id string) (*Truck, error)
}

type RegisterRequest struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider"`
}

type UpdateRequest struct {
	ProviderID string `json:"provider_id"`
}

type Response struct {
	ID         string       `json:"id"`
	ProviderID snowflake.ID `json:"provider_id"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type InfoResponse struct {
	ID       string   `json:"id"`
	Tara     *int64   `json:"tara"`
	Sessions []string `json:"sessions"`
}

var (
	ErrInvalidID       = errors.New("invalid_truck_id")
	ErrInvalidProvider = errors.New("invalid_truck_provider")
	ErrAlreadyExists   = errors.New("truck_already_exists")
	ErrNotFound        = errors.New("truck_not_found")
)
