package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
)

type Service interface {
	// Replace swaps the whole rate table for the rows of an xlsx workbook.
	Replace(ctx context.Context, workbook io.Reader) (*ImportResult, error)
	// Export writes the rate table as an xlsx workbook.
	Export(ctx context.Context, w io.Writer) error
	List(ctx context.Context) ([]Rate, error)
}

// Resolver answers which rate applies to a product for a provider.
type Resolver interface {
	// Resolve returns nil when no rate applies.
	Resolve(ctx context.Context, productID, providerID string) (*int64, error)
}

type ImportResult struct {
	Imported int `json:"imported"`
}

var (
	ErrInvalidWorkbook = errors.New("invalid_rate_workbook")
	ErrInvalidRow      = errors.New("invalid_rate_row")
	ErrDuplicateRate   = errors.New("duplicate_rate")
	ErrUnknownScope    = errors.New("unknown_rate_scope")
)

// RowError locates a rejected workbook row. Row is 1-based as shown in a
// spreadsheet.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
