package domain

import (
	"encoding/json"
	"time"

	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
)

// BillQuery selects the provider and facility-local window to bill.
type BillQuery struct {
	ProviderID string
	From       time.Time
	To         time.Time
}

// JoinedFact is one container fact matched to one session.
type JoinedFact struct {
	TransactionID string
	ContainerID   string
	Produce       string
	ContainerTara *int64
	SessionID     string
	TruckID       string
	Bruto         int64
	Neto          *int64
	TruckTara     *int64
	ProviderID    string
	ProviderName  string
}

type ProductLine struct {
	Product      string `json:"product"`
	SessionCount int    `json:"count"`
	TotalNeto    int64  `json:"amount"`
	Rate         *int64 `json:"rate"`
	Pay          *int64 `json:"pay"`
}

// Bill is the per-provider invoice for a window. Pay and Total are in agorot.
type Bill struct {
	ProviderID   string        `json:"id"`
	ProviderName string        `json:"name"`
	From         time.Time     `json:"-"`
	To           time.Time     `json:"-"`
	TruckCount   int           `json:"truckCount"`
	SessionCount int           `json:"sessionCount"`
	Products     []ProductLine `json:"products"`
	Total        int64         `json:"total"`
	Diagnostics  Diagnostics   `json:"diagnostics"`
}

// MarshalJSON renders the window in the weighing service timestamp layout.
func (b Bill) MarshalJSON() ([]byte, error) {
	type alias Bill
	return json.Marshal(struct {
		alias
		From string `json:"from"`
		To   string `json:"to"`
	}{
		alias: alias(b),
		From:  b.From.Format(weighingdomain.TimeLayout),
		To:    b.To.Format(weighingdomain.TimeLayout),
	})
}

const (
	ExclusionUnknownTruckTara     = "unknown_truck_tara"
	ExclusionUnknownContainerTara = "unknown_container_tara"
	ExclusionNoContainers         = "no_containers"
	ExclusionNegativeNeto         = "negative_neto"
)

// Ambiguity is a container fact that matched more than one session.
type Ambiguity struct {
	TransactionID string   `json:"transaction_id"`
	ContainerID   string   `json:"container_id"`
	SessionIDs    []string `json:"session_ids"`
}

// ExcludedSession is a session whose neto could not be resolved.
type ExcludedSession struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// Diagnostics reports every row the pipeline could not use.
type Diagnostics struct {
	Partial             bool                  `json:"partial"`
	Drops               []weighingdomain.Drop `json:"drops"`
	UnmatchedContainers int                   `json:"unmatched_containers"`
	UnmatchedSessions   int                   `json:"unmatched_sessions"`
	Ambiguities         []Ambiguity           `json:"ambiguities"`
	AmbiguousExcluded   int                   `json:"ambiguous_excluded"`
	Unattributed        int                   `json:"unattributed"`
	ExcludedSessions    []ExcludedSession     `json:"excluded_sessions"`
	UnpricedProducts    []string              `json:"unpriced_products"`
}
