// Package store defines the persistence ports for employees and the access
// ledger.  Backends live in the memory, sqlite and postgres subpackages.
package store

import "errors"

// Backends return these (optionally wrapped) for expected outcomes.  Any
// other error is a storage fault.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
