package domain

import (
	"context"
	"errors"

	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
)

type Service interface {
	BuildBill(ctx context.Context, q BillQuery) (*Bill, error)
}

var (
	ErrInvalidQuery     = errors.New("invalid_bill_query")
	ErrUnknownProvider  = errors.New("unknown_provider")
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrAmountOverflow   = errors.New("bill_amount_overflow")
	ErrNoBillableData   = errors.New("no_billable_data")
	ErrNoDataForPeriod  = weighingdomain.ErrNoDataForPeriod
)
