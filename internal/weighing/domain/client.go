package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")
	ErrUpstreamDataMissing = errors.New("upstream_data_missing")
	ErrMalformedPayload    = errors.New("malformed_payload")
	ErrNoDataForPeriod     = errors.New("no_data_for_period")
)

// Client talks to the external weighing service.
type Client interface {
	ListTransactions(ctx context.Context, from, to time.Time, direction string) ([]Transaction, error)
	GetItem(ctx context.Context, id string, from, to time.Time) (*Item, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

// Collector gathers a snapshot of weighing facts for a window.
type Collector interface {
	Collect(ctx context.Context, from, to time.Time) (*Snapshot, error)
}

// DropReason classifies a lookup error.
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamDataMissing):
		return ReasonDataMissing
	case errors.Is(err, ErrMalformedPayload):
		return ReasonMalformed
	default:
		return ReasonUnavailable
	}
}
