package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
	dbpkg "github.com/BrandonDHaskell/checkin/internal/db"
)

type EmployeeStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEmployeeStore(db *sql.DB, writer *dbpkg.Worker) *EmployeeStore {
	return &EmployeeStore{db: db, writer: writer}
}

// CreateEmployee relies on the identifier primary key: ON CONFLICT DO NOTHING
// makes the uniqueness check and the insert one statement.
func (s *EmployeeStore) CreateEmployee(ctx context.Context, rec types.EmployeeRecord) (types.EmployeeRecord, error) {
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now().UTC()
	}
	registeredMs := rec.RegisteredAt.UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO employees(identifier, record_id, name, role, registered_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(identifier) DO NOTHING;
`, rec.Identifier, rec.RecordID, rec.Name, rec.Role, registeredMs)
		if err != nil {
			return fmt.Errorf("CreateEmployee insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("CreateEmployee rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrConflict
		}
		return nil
	})
	if err != nil {
		return types.EmployeeRecord{}, err
	}

	// Report the millisecond value that was actually stored.
	rec.RegisteredAt = time.UnixMilli(registeredMs).UTC()
	return rec, nil
}

func (s *EmployeeStore) GetEmployee(ctx context.Context, identifier string) (types.EmployeeRecord, error) {
	var (
		rec          types.EmployeeRecord
		registeredMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT identifier, record_id, name, role, registered_at_ms
FROM employees
WHERE identifier = ?;
`, identifier).Scan(&rec.Identifier, &rec.RecordID, &rec.Name, &rec.Role, &registeredMs)

	if errors.Is(err, sql.ErrNoRows) {
		return types.EmployeeRecord{}, store.ErrNotFound
	}
	if err != nil {
		return types.EmployeeRecord{}, fmt.Errorf("GetEmployee query: %w", err)
	}

	rec.RegisteredAt = time.UnixMilli(registeredMs).UTC()
	return rec, nil
}
