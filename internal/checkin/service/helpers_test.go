package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

var errDiskOnFire = errors.New("disk on fire")

// failingEmployeeStore returns err from every call.
type failingEmployeeStore struct{ err error }

func (s failingEmployeeStore) CreateEmployee(context.Context, types.EmployeeRecord) (types.EmployeeRecord, error) {
	return types.EmployeeRecord{}, s.err
}

func (s failingEmployeeStore) GetEmployee(context.Context, string) (types.EmployeeRecord, error) {
	return types.EmployeeRecord{}, s.err
}

// ctxEmployeeStore blocks until ctx is done, like a stalled database.
type ctxEmployeeStore struct{}

func (ctxEmployeeStore) CreateEmployee(ctx context.Context, _ types.EmployeeRecord) (types.EmployeeRecord, error) {
	<-ctx.Done()
	return types.EmployeeRecord{}, ctx.Err()
}

func (ctxEmployeeStore) GetEmployee(ctx context.Context, _ string) (types.EmployeeRecord, error) {
	<-ctx.Done()
	return types.EmployeeRecord{}, ctx.Err()
}

type failingEventStore struct{ err error }

func (s failingEventStore) AppendEvent(context.Context, types.AccessEvent) (types.AccessEvent, error) {
	return types.AccessEvent{}, s.err
}

func (s failingEventStore) ListEvents(context.Context, store.EventQuery) ([]types.AccessEvent, error) {
	return nil, s.err
}

// recordingPublisher keeps every published event and optionally fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []types.AccessEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev types.AccessEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) published() []types.AccessEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.AccessEvent(nil), p.events...)
}
