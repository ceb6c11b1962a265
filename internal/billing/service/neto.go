package service

import (
	"sort"

	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
)

// resolveNeto fills in neto for every session that lacks one:
//
//	neto = bruto - (truck tara + sum of distinct container taras)
//
// Sessions that cannot be resolved are removed and reported. Running it on
// its own output changes nothing.
func resolveNeto(facts []billingdomain.JoinedFact) ([]billingdomain.JoinedFact, []billingdomain.ExcludedSession) {
	var order []string
	bySession := map[string][]int{}
	for i, f := range facts {
		if _, ok := bySession[f.SessionID]; !ok {
			order = append(order, f.SessionID)
		}
		bySession[f.SessionID] = append(bySession[f.SessionID], i)
	}

	netos := make(map[string]int64, len(order))
	var excluded []billingdomain.ExcludedSession
	for _, sessionID := range order {
		neto, reason := sessionNeto(facts, bySession[sessionID])
		if reason != "" {
			excluded = append(excluded, billingdomain.ExcludedSession{SessionID: sessionID, Reason: reason})
			continue
		}
		netos[sessionID] = neto
	}

	out := make([]billingdomain.JoinedFact, 0, len(facts))
	for _, f := range facts {
		neto, ok := netos[f.SessionID]
		if !ok {
			continue
		}
		f.Neto = &neto
		out = append(out, f)
	}
	sort.Slice(excluded, func(i, j int) bool { return excluded[i].SessionID < excluded[j].SessionID })
	return out, excluded
}

func sessionNeto(facts []billingdomain.JoinedFact, rows []int) (int64, string) {
	first := facts[rows[0]]
	if first.Neto != nil {
		allReported := true
		for _, i := range rows {
			if facts[i].Neto == nil {
				allReported = false
				break
			}
		}
		if allReported {
			return *first.Neto, ""
		}
	}

	var truckTara *int64
	containerTaras := map[string]*int64{}
	for _, i := range rows {
		f := facts[i]
		if truckTara == nil {
			truckTara = f.TruckTara
		}
		if f.ContainerID == "" {
			continue
		}
		if _, ok := containerTaras[f.ContainerID]; !ok {
			containerTaras[f.ContainerID] = f.ContainerTara
		}
	}

	if truckTara == nil {
		return 0, billingdomain.ExclusionUnknownTruckTara
	}
	if len(containerTaras) == 0 {
		return 0, billingdomain.ExclusionNoContainers
	}
	tara := *truckTara
	for _, t := range containerTaras {
		if t == nil {
			return 0, billingdomain.ExclusionUnknownContainerTara
		}
		tara += *t
	}

	neto := first.Bruto - tara
	if neto < 0 {
		return 0, billingdomain.ExclusionNegativeNeto
	}
	return neto, ""
}
