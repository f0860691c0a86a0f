package ports

import (
	"context"
	"errors"

	"cyberguard/internal/domain/threat"
)

// ErrDuplicateID reports an insert whose id already exists. Identifiers are
// generated from a 128-bit random source, so a collision indicates a caller
// bug rather than bad luck.
var ErrDuplicateID = errors.New("record id already exists")

// RecentEventsCap is the fixed read cap for honeypot event listings.
const RecentEventsCap = 50

// IncidentRepository is the append-only store for flagged analyses.
// There is deliberately no update or delete in the contract.
type IncidentRepository interface {
	Insert(ctx context.Context, incident threat.Incident) error
	// ListAll returns every incident ordered by created_at descending.
	ListAll(ctx context.Context) ([]threat.Incident, error)
}

// HoneypotRepository is the append-only store for extracted intelligence.
type HoneypotRepository interface {
	Insert(ctx context.Context, event threat.HoneypotEvent) error
	// ListRecent returns at most RecentEventsCap events, newest first.
	ListRecent(ctx context.Context) ([]threat.HoneypotEvent, error)
}
