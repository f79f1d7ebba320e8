package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/checkin/internal/checkin/metrics"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// Detail values for error events.
const (
	DetailStorageUnavailable = "storage_unavailable"
	DetailDeadlineExceeded   = "deadline_exceeded"
	DetailAppendFailed       = "append_failed"
)

const DefaultAppendTimeout = 2 * time.Second

// EventPublisher receives every durably appended event.  Failures never
// change the outcome of an attempt.
type EventPublisher interface {
	Publish(ctx context.Context, ev types.AccessEvent) error
}

// Ledger decides access and records every attempt.  It is the only writer of
// access events.
type Ledger struct {
	registry      *Registry
	events        store.AccessEventStore
	publisher     EventPublisher
	metrics       *metrics.Metrics
	log           zerolog.Logger
	now           func() time.Time
	appendTimeout time.Duration
}

type LedgerOption func(*Ledger)

func WithPublisher(p EventPublisher) LedgerOption {
	return func(l *Ledger) { l.publisher = p }
}

func WithLedgerMetrics(m *metrics.Metrics) LedgerOption {
	return func(l *Ledger) { l.metrics = m }
}

func WithLedgerLogger(log zerolog.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithAppendTimeout bounds the append that follows a failed or timed-out
// lookup.  Non-positive values are ignored.
func WithAppendTimeout(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		if d > 0 {
			l.appendTimeout = d
		}
	}
}

func NewLedger(reg *Registry, es store.AccessEventStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		registry:      reg,
		events:        es,
		log:           zerolog.Nop(),
		now:           time.Now,
		appendTimeout: DefaultAppendTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordAttempt looks up a canonical identifier, appends the outcome to the
// ledger and returns the stored event.  It never returns an error: failures
// surface as EventError, and an event that could not be stored has
// Sequence == 0.
func (l *Ledger) RecordAttempt(ctx context.Context, id string, dir types.Direction) types.AccessEvent {
	if dir == "" {
		dir = types.DirectionEntry
	}
	ev := types.AccessEvent{
		EmployeeIdentifier: id,
		Direction:          dir,
	}

	start := time.Now()
	rec, err := l.registry.Lookup(ctx, id)
	l.metrics.ObserveLookup(start)

	if err == nil && ctx.Err() != nil {
		// The caller is gone; do not report a decision it can no longer act on.
		err = ctx.Err()
	}

	switch {
	case err == nil:
		ev.EventType = types.EventGranted
		ev.EmployeeName = rec.Name
		ev.EmployeeRole = rec.Role
	case errors.Is(err, ErrNotFound):
		ev.EventType = types.EventDeniedUnregistered
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		ev.EventType = types.EventError
		ev.Detail = DetailDeadlineExceeded
	default:
		ev.EventType = types.EventError
		ev.Detail = DetailStorageUnavailable
	}
	if ev.EventType == types.EventError {
		l.log.Warn().Err(err).Str("identifier", id).Msg("lookup failed")
	}

	return l.append(ctx, ev)
}

// append writes ev with a context detached from the caller's cancellation so
// a timed-out attempt still leaves an audit record.
func (l *Ledger) append(ctx context.Context, ev types.AccessEvent) types.AccessEvent {
	ev.OccurredAt = l.now().UTC()

	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.appendTimeout)
	defer cancel()

	stored, err := l.events.AppendEvent(appendCtx, ev)
	if err != nil {
		l.log.Error().Err(err).
			Str("identifier", ev.EmployeeIdentifier).
			Str("event_type", string(ev.EventType)).
			Msg("append access event")

		failed := types.AccessEvent{
			EmployeeIdentifier: ev.EmployeeIdentifier,
			EventType:          types.EventError,
			Direction:          ev.Direction,
			Detail:             DetailAppendFailed,
			OccurredAt:         ev.OccurredAt,
		}
		l.metrics.IncAccessEvent(string(failed.EventType), false)
		return failed
	}

	l.metrics.IncAccessEvent(string(stored.EventType), true)
	l.log.Info().
		Int64("seq", stored.Sequence).
		Str("identifier", stored.EmployeeIdentifier).
		Str("event_type", string(stored.EventType)).
		Str("direction", string(stored.Direction)).
		Msg("access event")

	if l.publisher != nil {
		if err := l.publisher.Publish(appendCtx, stored); err != nil {
			l.metrics.IncPublishFailure()
			l.log.Warn().Err(err).Int64("seq", stored.Sequence).Msg("publish access event")
		}
	}
	return stored
}

// ListEvents returns ledger events in sequence order.
func (l *Ledger) ListEvents(ctx context.Context, q store.EventQuery) ([]types.AccessEvent, error) {
	events, err := l.events.ListEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []types.AccessEvent{}
	}
	return events, nil
}
