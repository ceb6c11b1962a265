package domain

import "time"

// TimeLayout is the weighing service timestamp format, always facility-local.
const TimeLayout = "20060102150405"

// DirectionIn selects deliveries into the facility.
const DirectionIn = "in"

// Transaction is one weighing transaction reported for the window.
type Transaction struct {
	ID         string
	Direction  string
	Produce    string
	Bruto      *int64
	Containers []string
}

// Item is the weighing service's view of a container or a truck.
type Item struct {
	ID       string
	Tara     *int64
	Sessions []string
}

// Session is a single weighing of a truck.
type Session struct {
	ID        string
	TruckID   string
	Bruto     *int64
	Neto      *int64
	TruckTara *int64
}

// ContainerFact is a transaction container with its tare attached.
type ContainerFact struct {
	TransactionID string
	ContainerID   string
	Produce       string
	Bruto         int64
	ContainerTara *int64
	SessionIDs    []string
}

// SessionFact is a session as seen through one container.
type SessionFact struct {
	SessionID   string
	ContainerID string
	TruckID     string
	Bruto       int64
	Neto        *int64
	TruckTara   *int64
}

type DropKind string

const (
	DropTransaction DropKind = "transaction"
	DropContainer   DropKind = "container"
	DropSession     DropKind = "session"
	DropTruckTara   DropKind = "truck_tara"
)

const (
	ReasonUnavailable  = "upstream_unavailable"
	ReasonDataMissing  = "upstream_data_missing"
	ReasonMalformed    = "malformed_payload"
	ReasonMissingBruto = "missing_bruto"
)

// Drop records one lookup the collector gave up on.
type Drop struct {
	Kind   DropKind `json:"kind"`
	ID     string   `json:"id"`
	Reason string   `json:"reason"`
}

// Snapshot is the immutable result of one collection run.
type Snapshot struct {
	From         time.Time
	To           time.Time
	Transactions int
	Containers   []ContainerFact
	Sessions     []SessionFact
	Drops        []Drop
}

// DropCount returns how many drops of kind the snapshot carries.
func (s Snapshot) DropCount(kind DropKind) int {
	n := 0
	for _, d := range s.Drops {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func Int64(v int64) *int64 { return &v }
