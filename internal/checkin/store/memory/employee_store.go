package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// EmployeeStore is an in-memory employee registry for tests and dev.
type EmployeeStore struct {
	mu   sync.RWMutex
	data map[string]types.EmployeeRecord
}

func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{data: make(map[string]types.EmployeeRecord)}
}

func (s *EmployeeStore) CreateEmployee(ctx context.Context, rec types.EmployeeRecord) (types.EmployeeRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.EmployeeRecord{}, err
	}
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[rec.Identifier]; ok {
		return types.EmployeeRecord{}, store.ErrConflict
	}
	s.data[rec.Identifier] = rec
	return rec, nil
}

func (s *EmployeeStore) GetEmployee(ctx context.Context, identifier string) (types.EmployeeRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.EmployeeRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[identifier]
	if !ok {
		return types.EmployeeRecord{}, store.ErrNotFound
	}
	return rec, nil
}
