package db_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BrandonDHaskell/checkin/internal/db"
)

func openTempDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.Config{
		Path: filepath.Join(t.TempDir(), "checkin.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return conn
}

func TestOpen_LeavesSchemaAlone(t *testing.T) {
	conn, err := db.Open(context.Background(), db.Config{
		Path: filepath.Join(t.TempDir(), "nested", "checkin.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table'`).Scan(&count); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if count != 0 {
		t.Errorf("expected an empty database before Migrate, got %d tables", count)
	}
}

func TestMigrate_CreatesTables(t *testing.T) {
	conn := openTempDB(t)

	for _, table := range []string{"employees", "access_events", "schema_migrations"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s: %v", table, err)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	conn := openTempDB(t)

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 applied migrations, got %d", count)
	}
}

func TestSeedDev_InsertsOnce(t *testing.T) {
	conn := openTempDB(t)
	ctx := context.Background()

	n, err := db.SeedDev(ctx, conn, db.DefaultDevEmployees)
	if err != nil {
		t.Fatalf("SeedDev: %v", err)
	}
	if n != len(db.DefaultDevEmployees) {
		t.Errorf("expected %d inserted, got %d", len(db.DefaultDevEmployees), n)
	}

	n, err = db.SeedDev(ctx, conn, db.DefaultDevEmployees)
	if err != nil {
		t.Fatalf("second SeedDev: %v", err)
	}
	if n != 0 {
		t.Errorf("expected reseed to insert nothing, got %d", n)
	}
}

func TestWorker_RollsBackOnError(t *testing.T) {
	conn := openTempDB(t)
	w := db.NewWorker(conn)
	defer w.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO employees(identifier, record_id, name, role, registered_at_ms)
VALUES ('AABB', 'r1', 'Ana', 'Cashier', 0);`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback to leave 0 rows, got %d", count)
	}
}

func TestWorker_ExpiredContextNeverRuns(t *testing.T) {
	conn := openTempDB(t)
	w := db.NewWorker(conn)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	var ran atomic.Bool
	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		ran.Store(true)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if ran.Load() {
		t.Error("expected fn not to run with an expired context")
	}
}

func TestMigrate_EmployeesCannotBeDeleted(t *testing.T) {
	conn := openTempDB(t)

	if _, err := conn.Exec(`
INSERT INTO employees(identifier, record_id, name, role, registered_at_ms)
VALUES ('AABB', 'r1', 'Ana', 'Cashier', 0);`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := conn.Exec(`DELETE FROM employees WHERE identifier = 'AABB'`); err == nil {
		t.Fatal("expected DELETE on employees to be rejected")
	}
}
