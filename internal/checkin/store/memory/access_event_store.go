package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// AccessEventStore is an in-memory append-only log of access events.
// It is intended for use in tests and dev environments.
type AccessEventStore struct {
	mu     sync.Mutex
	seq    int64
	events []types.AccessEvent
}

func NewAccessEventStore() *AccessEventStore {
	return &AccessEventStore{}
}

func (s *AccessEventStore) AppendEvent(ctx context.Context, ev types.AccessEvent) (types.AccessEvent, error) {
	if err := ctx.Err(); err != nil {
		return types.AccessEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	s.seq++
	ev.Sequence = s.seq
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *AccessEventStore) ListEvents(ctx context.Context, q store.EventQuery) ([]types.AccessEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// events is already in sequence order; find the first one after the cursor.
	start := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Sequence > q.AfterSequence
	})

	limit := q.EffectiveLimit()
	out := make([]types.AccessEvent, 0, min(limit, len(s.events)-start))
	for _, ev := range s.events[start:] {
		if q.Identifier != "" && ev.EmployeeIdentifier != q.Identifier {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Events returns a copy of all recorded events.  Test-only helper.
func (s *AccessEventStore) Events() []types.AccessEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AccessEvent, len(s.events))
	copy(out, s.events)
	return out
}
