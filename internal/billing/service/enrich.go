package service

import (
	"context"
	"fmt"

	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
)

type owner struct {
	providerID   string
	providerName string
}

type enrichment struct {
	facts        []billingdomain.JoinedFact
	unattributed int
}

// enrich attaches the owning provider to every fact by truck. Facts whose
// truck or provider is unknown stay unattributed.
func (s *Service) enrich(ctx context.Context, facts []billingdomain.JoinedFact) (enrichment, error) {
	owners := map[string]*owner{}
	out := enrichment{facts: make([]billingdomain.JoinedFact, 0, len(facts))}

	for _, f := range facts {
		o, seen := owners[f.TruckID]
		if !seen {
			var err error
			o, err = s.lookupOwner(ctx, f.TruckID)
			if err != nil {
				return enrichment{}, err
			}
			owners[f.TruckID] = o
		}
		if o == nil {
			out.unattributed++
		} else {
			f.ProviderID = o.providerID
			f.ProviderName = o.providerName
		}
		out.facts = append(out.facts, f)
	}
	return out, nil
}

func (s *Service) lookupOwner(ctx context.Context, truckID string) (*owner, error) {
	if truckID == "" {
		return nil, nil
	}
	truck, err := s.truckSvc.Lookup(ctx, truckID)
	if err != nil {
		return nil, fmt.Errorf("lookup truck %s: %w", truckID, err)
	}
	if truck == nil {
		return nil, nil
	}
	provider, err := s.providerSvc.Lookup(ctx, truck.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("lookup provider %s: %w", truck.ProviderID, err)
	}
	if provider == nil {
		return nil, nil
	}
	return &owner{providerID: provider.ID.String(), providerName: provider.Name}, nil
}
