package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/checkin/internal/checkin/identifier"
	"github.com/BrandonDHaskell/checkin/internal/checkin/metrics"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// RegisterRequest carries an already normalized identifier.
type RegisterRequest struct {
	Identifier     string
	Name           string
	Role           string
	AllowSynthetic bool
}

// Registry maps canonical identifiers to employee records.  Uniqueness is
// enforced by the store, so concurrent registrations of one identifier have
// exactly one winner.
type Registry struct {
	employees store.EmployeeStore
	now       func() time.Time
	newID     func() string
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

type RegistryOption func(*Registry)

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func WithRegistryMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

func WithRegistryLogger(log zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

func NewRegistry(es store.EmployeeStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		employees: es,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates the employee record for req.Identifier and returns its
// record ID.
func (r *Registry) Register(ctx context.Context, req RegisterRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	role := strings.TrimSpace(req.Role)

	switch {
	case name == "" || role == "":
		r.metrics.IncRegistration("invalid")
		return "", fmt.Errorf("%w: name and role are required", ErrInvalidInput)
	case !identifier.IsCanonical(req.Identifier):
		r.metrics.IncRegistration("invalid")
		return "", fmt.Errorf("%w: identifier %q is not canonical", ErrInvalidInput, req.Identifier)
	case identifier.IsSynthetic(req.Identifier) && !req.AllowSynthetic:
		r.metrics.IncRegistration("synthetic")
		return "", ErrSyntheticIdentifier
	}

	rec, err := r.employees.CreateEmployee(ctx, types.EmployeeRecord{
		RecordID:     r.newID(),
		Identifier:   req.Identifier,
		Name:         name,
		Role:         role,
		RegisteredAt: r.now().UTC(),
	})
	if errors.Is(err, store.ErrConflict) {
		r.metrics.IncRegistration("conflict")
		return "", ErrAlreadyRegistered
	}
	if err != nil {
		r.metrics.IncRegistration("error")
		return "", fmt.Errorf("register %s: %w", req.Identifier, err)
	}

	r.metrics.IncRegistration("created")
	r.log.Info().
		Str("identifier", rec.Identifier).
		Str("record_id", rec.RecordID).
		Bool("synthetic", identifier.IsSynthetic(rec.Identifier)).
		Msg("employee registered")
	return rec.RecordID, nil
}

// Lookup returns ErrNotFound for unknown or non-canonical identifiers.  Any
// other error is a storage fault.
func (r *Registry) Lookup(ctx context.Context, id string) (types.EmployeeRecord, error) {
	if !identifier.IsCanonical(id) {
		return types.EmployeeRecord{}, ErrNotFound
	}

	rec, err := r.employees.GetEmployee(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return types.EmployeeRecord{}, ErrNotFound
	}
	if err != nil {
		return types.EmployeeRecord{}, fmt.Errorf("lookup %s: %w", id, err)
	}
	return rec, nil
}

func (r *Registry) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.Lookup(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
