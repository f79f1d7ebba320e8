package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
	dbpkg "github.com/BrandonDHaskell/checkin/internal/db"
)

type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

// AppendEvent inserts one ledger row.  seq is an AUTOINCREMENT key and all
// writes go through the single writer, so sequence numbers are never reused
// and increase in commit order.
func (s *AccessEventStore) AppendEvent(ctx context.Context, ev types.AccessEvent) (types.AccessEvent, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if ev.Direction == "" {
		ev.Direction = types.DirectionEntry
	}
	occurredMs := ev.OccurredAt.UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO access_events(
  employee_identifier, employee_name, employee_role,
  event_type, direction, detail, occurred_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			ev.EmployeeIdentifier, ev.EmployeeName, ev.EmployeeRole,
			string(ev.EventType), string(ev.Direction), ev.Detail, occurredMs,
		)
		if err != nil {
			return fmt.Errorf("AppendEvent insert: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("AppendEvent last insert id: %w", err)
		}
		ev.Sequence = seq
		return nil
	})
	if err != nil {
		return types.AccessEvent{}, err
	}

	ev.OccurredAt = time.UnixMilli(occurredMs).UTC()
	return ev, nil
}

func (s *AccessEventStore) ListEvents(ctx context.Context, q store.EventQuery) ([]types.AccessEvent, error) {
	var (
		sb   strings.Builder
		args = []any{q.AfterSequence}
	)
	sb.WriteString(`
SELECT seq, employee_identifier, employee_name, employee_role,
       event_type, direction, detail, occurred_at_ms
FROM access_events
WHERE seq > ?`)
	if q.Identifier != "" {
		sb.WriteString(` AND employee_identifier = ?`)
		args = append(args, q.Identifier)
	}
	sb.WriteString(` ORDER BY seq ASC LIMIT ?;`)
	args = append(args, q.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ListEvents query: %w", err)
	}
	defer rows.Close()

	var out []types.AccessEvent
	for rows.Next() {
		var (
			ev         types.AccessEvent
			eventType  string
			direction  string
			occurredMs int64
		)
		if err := rows.Scan(
			&ev.Sequence, &ev.EmployeeIdentifier, &ev.EmployeeName, &ev.EmployeeRole,
			&eventType, &direction, &ev.Detail, &occurredMs,
		); err != nil {
			return nil, fmt.Errorf("ListEvents scan: %w", err)
		}
		ev.EventType = types.EventType(eventType)
		ev.Direction = types.Direction(direction)
		ev.OccurredAt = time.UnixMilli(occurredMs).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEvents rows: %w", err)
	}
	return out, nil
}
