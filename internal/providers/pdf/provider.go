package pdf

import (
	"context"
	"io"

	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	"go.uber.org/fx"
)

type Provider interface {
	RenderBill(ctx context.Context, bill *billingdomain.Bill) (io.Reader, error)
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)
