package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	"github.com/smallbiznis/weighbill/internal/config"
)

const dateLayout = "02/01/2006 15:04"

var errNilBill = errors.New("bill is nil")

type PDFProvider struct {
	facility string
}

func New(cfg config.Config) Provider {
	return &PDFProvider{facility: cfg.Facility.Name}
}

func (p *PDFProvider) RenderBill(ctx context.Context, bill *billingdomain.Bill) (io.Reader, error) {
	if bill == nil {
		return nil, errNilBill
	}

	cfg := mconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Delivery bill", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Provider: "+bill.ProviderName, props.Text{Style: fontstyle.Bold}),
			text.New("Provider id: "+bill.ProviderID, props.Text{Top: 5}),
			text.New("Period: "+bill.From.Format(dateLayout)+" - "+bill.To.Format(dateLayout), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New(p.facility, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(fmt.Sprintf("Trucks: %d", bill.TruckCount), props.Text{Top: 5, Align: align.Right}),
			text.New(fmt.Sprintf("Sessions: %d", bill.SessionCount), props.Text{Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(4, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Sessions", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Neto (kg)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Pay", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range bill.Products {
		m.AddRow(8,
			text.NewCol(4, item.Product, props.Text{Size: 9}),
			text.NewCol(2, strconv.Itoa(item.SessionCount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, strconv.FormatInt(item.TotalNeto, 10), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAgorot(item.Rate), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAgorot(item.Pay), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, formatAgorot(&bill.Total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if bill.Diagnostics.Partial {
		m.AddRow(10,
			text.NewCol(12, partialNote(bill.Diagnostics), props.Text{Size: 8, Style: fontstyle.Italic, Top: 4}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

// formatAgorot renders an amount in agorot as shekels.
func formatAgorot(v *int64) string {
	if v == nil {
		return "-"
	}
	return decimal.New(*v, -2).StringFixed(2)
}

func partialNote(d billingdomain.Diagnostics) string {
	return fmt.Sprintf(
		"Partial data: %d dropped lookups, %d excluded sessions, %d unpriced products.",
		len(d.Drops), len(d.ExcludedSessions), len(d.UnpricedProducts),
	)
}
