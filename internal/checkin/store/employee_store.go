package store

import (
	"context"

	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// EmployeeStore maps canonical identifiers to employee records.
type EmployeeStore interface {
	// CreateEmployee inserts rec unless a record already exists for
	// rec.Identifier, in which case it returns ErrConflict.  The check and the
	// insert are a single atomic operation.  A zero RegisteredAt is filled in
	// by the store.
	CreateEmployee(ctx context.Context, rec types.EmployeeRecord) (types.EmployeeRecord, error)

	// GetEmployee returns ErrNotFound when no record matches exactly.
	GetEmployee(ctx context.Context, identifier string) (types.EmployeeRecord, error)
}
