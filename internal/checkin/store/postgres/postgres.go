// Package postgres implements the employee and access ledger stores on
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

//go:embed schema.sql
var schema string

// appendLockKey serializes ledger appends so that commit order matches
// sequence order and cursor readers never skip an in-flight row.
const appendLockKey = 0x636865636b696e // "checkin"

// EnsureSchema creates tables, indexes and triggers if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("EnsureSchema: %w", err)
	}
	return nil
}

type EmployeeStore struct {
	db *sql.DB
}

func NewEmployeeStore(db *sql.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

func (s *EmployeeStore) CreateEmployee(ctx context.Context, rec types.EmployeeRecord) (types.EmployeeRecord, error) {
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now().UTC()
	}

	var registeredAt time.Time
	err := s.db.QueryRowContext(ctx, `
INSERT INTO employees(identifier, record_id, name, role, registered_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (identifier) DO NOTHING
RETURNING registered_at;
`, rec.Identifier, rec.RecordID, rec.Name, rec.Role, rec.RegisteredAt.UTC()).Scan(&registeredAt)

	if errors.Is(err, sql.ErrNoRows) {
		return types.EmployeeRecord{}, store.ErrConflict
	}
	if err != nil {
		return types.EmployeeRecord{}, fmt.Errorf("CreateEmployee insert: %w", err)
	}

	rec.RegisteredAt = registeredAt.UTC()
	return rec, nil
}

func (s *EmployeeStore) GetEmployee(ctx context.Context, identifier string) (types.EmployeeRecord, error) {
	var rec types.EmployeeRecord
	err := s.db.QueryRowContext(ctx, `
SELECT identifier, record_id::text, name, role, registered_at
FROM employees
WHERE identifier = $1;
`, identifier).Scan(&rec.Identifier, &rec.RecordID, &rec.Name, &rec.Role, &rec.RegisteredAt)

	if errors.Is(err, sql.ErrNoRows) {
		return types.EmployeeRecord{}, store.ErrNotFound
	}
	if err != nil {
		return types.EmployeeRecord{}, fmt.Errorf("GetEmployee query: %w", err)
	}

	rec.RegisteredAt = rec.RegisteredAt.UTC()
	return rec, nil
}

type AccessEventStore struct {
	db *sql.DB
}

func NewAccessEventStore(db *sql.DB) *AccessEventStore {
	return &AccessEventStore{db: db}
}

func (s *AccessEventStore) AppendEvent(ctx context.Context, ev types.AccessEvent) (types.AccessEvent, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if ev.Direction == "" {
		ev.Direction = types.DirectionEntry
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.AccessEvent{}, fmt.Errorf("AppendEvent begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1);`, int64(appendLockKey)); err != nil {
		return types.AccessEvent{}, fmt.Errorf("AppendEvent lock: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
INSERT INTO access_events(
  employee_identifier, employee_name, employee_role,
  event_type, direction, detail, occurred_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING seq, occurred_at;
`,
		ev.EmployeeIdentifier, ev.EmployeeName, ev.EmployeeRole,
		string(ev.EventType), string(ev.Direction), ev.Detail, ev.OccurredAt.UTC(),
	).Scan(&ev.Sequence, &ev.OccurredAt)
	if err != nil {
		return types.AccessEvent{}, fmt.Errorf("AppendEvent insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.AccessEvent{}, fmt.Errorf("AppendEvent commit: %w", err)
	}

	ev.OccurredAt = ev.OccurredAt.UTC()
	return ev, nil
}

func (s *AccessEventStore) ListEvents(ctx context.Context, q store.EventQuery) ([]types.AccessEvent, error) {
	var (
		sb   strings.Builder
		args = []any{q.AfterSequence}
	)
	sb.WriteString(`
SELECT seq, employee_identifier, employee_name, employee_role,
       event_type, direction, detail, occurred_at
FROM access_events
WHERE seq > $1`)
	if q.Identifier != "" {
		args = append(args, q.Identifier)
		fmt.Fprintf(&sb, ` AND employee_identifier = $%d`, len(args))
	}
	args = append(args, q.EffectiveLimit())
	fmt.Fprintf(&sb, ` ORDER BY seq ASC LIMIT $%d;`, len(args))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ListEvents query: %w", err)
	}
	defer rows.Close()

	var out []types.AccessEvent
	for rows.Next() {
		var (
			ev        types.AccessEvent
			eventType string
			direction string
		)
		if err := rows.Scan(
			&ev.Sequence, &ev.EmployeeIdentifier, &ev.EmployeeName, &ev.EmployeeRole,
			&eventType, &direction, &ev.Detail, &ev.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("ListEvents scan: %w", err)
		}
		ev.EventType = types.EventType(eventType)
		ev.Direction = types.Direction(direction)
		ev.OccurredAt = ev.OccurredAt.UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEvents rows: %w", err)
	}
	return out, nil
}
