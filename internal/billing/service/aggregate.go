package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
)

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// fitAmount narrows an exact decimal back to int64, refusing to wrap.
func fitAmount(d decimal.Decimal, product string) (int64, error) {
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: %s: %s", billingdomain.ErrAmountOverflow, product, d.String())
	}
	return d.IntPart(), nil
}

type aggregation struct {
	trucks   int
	sessions int
	products []billingdomain.ProductLine
	total    int64
	unpriced []string
}

// aggregate groups resolved facts by produce. A session contributes its neto
// once per product no matter how many containers it carried.
func (s *Service) aggregate(ctx context.Context, providerID string, facts []billingdomain.JoinedFact) (aggregation, error) {
	trucks := map[string]struct{}{}
	sessions := map[string]struct{}{}
	groups := map[string]map[string]int64{}

	for _, f := range facts {
		trucks[f.TruckID] = struct{}{}
		sessions[f.SessionID] = struct{}{}
		g, ok := groups[f.Produce]
		if !ok {
			g = map[string]int64{}
			groups[f.Produce] = g
		}
		if _, counted := g[f.SessionID]; !counted && f.Neto != nil {
			g[f.SessionID] = *f.Neto
		}
	}

	products := make([]string, 0, len(groups))
	for p := range groups {
		products = append(products, p)
	}
	sort.Strings(products)

	out := aggregation{trucks: len(trucks), sessions: len(sessions)}
	total := decimal.Zero
	for _, product := range products {
		line := billingdomain.ProductLine{Product: product, SessionCount: len(groups[product])}
		sum := decimal.Zero
		for _, neto := range groups[product] {
			sum = sum.Add(decimal.NewFromInt(neto))
		}
		totalNeto, err := fitAmount(sum, product)
		if err != nil {
			return aggregation{}, err
		}
		line.TotalNeto = totalNeto

		rate, err := s.rates.Resolve(ctx, product, providerID)
		if err != nil {
			return aggregation{}, err
		}
		if rate != nil {
			exact := sum.Mul(decimal.NewFromInt(*rate))
			pay, err := fitAmount(exact, product)
			if err != nil {
				return aggregation{}, err
			}
			line.Rate = rate
			line.Pay = &pay
			total = total.Add(exact)
		} else {
			out.unpriced = append(out.unpriced, product)
		}
		out.products = append(out.products, line)
	}
	grand, err := fitAmount(total, "total")
	if err != nil {
		return aggregation{}, err
	}
	out.total = grand
	return out, nil
}
