package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/checkin/internal/checkin/identifier"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// Desk is the client-facing entry point.  It is the only place raw tag
// identifiers are normalized; everything behind it sees canonical keys.
type Desk struct {
	registry *Registry
	ledger   *Ledger
	log      zerolog.Logger
}

func NewDesk(reg *Registry, ledger *Ledger, log zerolog.Logger) *Desk {
	return &Desk{registry: reg, ledger: ledger, log: log}
}

func (d *Desk) SubmitRegistration(ctx context.Context, raw any, name, role string, allowSynthetic bool) (types.RegistrationResponse, error) {
	id := identifier.Normalize(raw)

	recordID, err := d.registry.Register(ctx, RegisterRequest{
		Identifier:     id.Key,
		Name:           name,
		Role:           role,
		AllowSynthetic: allowSynthetic,
	})
	if err != nil {
		return types.RegistrationResponse{}, err
	}

	return types.RegistrationResponse{
		RecordID:   recordID,
		Identifier: id.Key,
		Synthetic:  id.Synthetic,
	}, nil
}

func (d *Desk) SubmitScan(ctx context.Context, raw any, dir types.Direction) types.AccessEvent {
	id := identifier.Normalize(raw)
	if id.Synthetic {
		d.log.Warn().Str("identifier", id.Key).Msg("scan resolved to a synthetic identifier")
	}
	return d.ledger.RecordAttempt(ctx, id.Key, dir)
}

// Lookup normalizes raw and returns the matching record.
func (d *Desk) Lookup(ctx context.Context, raw any) (types.EmployeeRecord, error) {
	return d.registry.Lookup(ctx, identifier.Normalize(raw).Key)
}

// Events lists ledger events, normalizing the identifier filter when set.
func (d *Desk) Events(ctx context.Context, q store.EventQuery) ([]types.AccessEvent, error) {
	if q.Identifier = strings.TrimSpace(q.Identifier); q.Identifier != "" {
		q.Identifier = identifier.Normalize(q.Identifier).Key
	}
	return d.ledger.ListEvents(ctx, q)
}
