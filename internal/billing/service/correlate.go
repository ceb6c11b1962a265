package service

import (
	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	"github.com/smallbiznis/weighbill/internal/config"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
)

type correlation struct {
	facts               []billingdomain.JoinedFact
	unmatchedContainers int
	unmatchedSessions   int
	ambiguities         []billingdomain.Ambiguity
	ambiguousExcluded   int
}

type joinKey struct {
	containerID string
	bruto       int64
}

// correlate inner-joins container facts with session facts. With the
// container key bruto is ignored.
func correlate(snap *weighingdomain.Snapshot, cfg config.CorrelationConfig) correlation {
	byBruto := cfg.Key != config.CorrelationKeyContainer
	keyOf := func(containerID string, bruto int64) joinKey {
		if !byBruto {
			bruto = 0
		}
		return joinKey{containerID: containerID, bruto: bruto}
	}

	index := make(map[joinKey][]int, len(snap.Sessions))
	for i, s := range snap.Sessions {
		k := keyOf(s.ContainerID, s.Bruto)
		index[k] = append(index[k], i)
	}

	var out correlation
	matched := make([]bool, len(snap.Sessions))
	for _, c := range snap.Containers {
		hits := index[keyOf(c.ContainerID, c.Bruto)]
		if len(hits) == 0 {
			out.unmatchedContainers++
			continue
		}
		for _, i := range hits {
			matched[i] = true
		}

		if sessions := distinctSessions(snap.Sessions, hits); len(sessions) > 1 {
			out.ambiguities = append(out.ambiguities, billingdomain.Ambiguity{
				TransactionID: c.TransactionID,
				ContainerID:   c.ContainerID,
				SessionIDs:    sessions,
			})
			if cfg.Ambiguity == config.AmbiguityExclude {
				out.ambiguousExcluded += len(hits)
				continue
			}
		}

		for _, i := range hits {
			s := snap.Sessions[i]
			out.facts = append(out.facts, billingdomain.JoinedFact{
				TransactionID: c.TransactionID,
				ContainerID:   c.ContainerID,
				Produce:       c.Produce,
				ContainerTara: c.ContainerTara,
				SessionID:     s.SessionID,
				TruckID:       s.TruckID,
				Bruto:         s.Bruto,
				Neto:          s.Neto,
				TruckTara:     s.TruckTara,
			})
		}
	}

	for _, ok := range matched {
		if !ok {
			out.unmatchedSessions++
		}
	}
	return out
}

func distinctSessions(sessions []weighingdomain.SessionFact, hits []int) []string {
	var ids []string
	seen := map[string]struct{}{}
	for _, i := range hits {
		id := sessions[i].SessionID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
