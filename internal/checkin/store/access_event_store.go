package store

import (
	"context"

	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// EventQuery selects ledger events in sequence order.
type EventQuery struct {
	AfterSequence int64
	Identifier    string // exact match; empty means all identifiers
	Limit         int
}

const (
	DefaultEventLimit = 100
	MaxEventLimit     = 1000
)

// EffectiveLimit clamps q.Limit to (0, MaxEventLimit].
func (q EventQuery) EffectiveLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultEventLimit
	case q.Limit > MaxEventLimit:
		return MaxEventLimit
	default:
		return q.Limit
	}
}

// AccessEventStore persists access events as an append-only, sequenced log.
type AccessEventStore interface {
	// AppendEvent assigns the next sequence number and returns the stored
	// event.  Sequence numbers are unique and strictly increasing per store.
	// A zero OccurredAt is filled in by the store.
	AppendEvent(ctx context.Context, ev types.AccessEvent) (types.AccessEvent, error)

	ListEvents(ctx context.Context, q EventQuery) ([]types.AccessEvent, error)
}
