package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DevEmployee is a fixture row for local development.
type DevEmployee struct {
	Identifier string
	Name       string
	Role       string
}

// DefaultDevEmployees mirrors the sample cards the mobile app shipped with.
var DefaultDevEmployees = []DevEmployee{
	{Identifier: "04A21F9C", Name: "Juan Pérez López", Role: "Supervisor de Ventas"},
	{Identifier: "87654321", Name: "María González", Role: "Desarrolladora"},
}

// SeedDev inserts fixture employees.  Existing identifiers are left alone, so
// running it twice is harmless.
func SeedDev(ctx context.Context, db *sql.DB, employees []DevEmployee) (int, error) {
	now := time.Now().UTC().UnixMilli()

	inserted := 0
	for _, e := range employees {
		res, err := db.ExecContext(ctx, `
INSERT INTO employees(identifier, record_id, name, role, registered_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(identifier) DO NOTHING;`,
			e.Identifier, uuid.NewString(), e.Name, e.Role, now)
		if err != nil {
			return inserted, fmt.Errorf("seed employee %s: %w", e.Identifier, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
