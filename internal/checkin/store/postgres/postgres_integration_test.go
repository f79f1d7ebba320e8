//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	pgstore "github.com/BrandonDHaskell/checkin/internal/checkin/store/postgres"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
	"github.com/BrandonDHaskell/checkin/internal/platform/postgres"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *sql.DB
	employees *pgstore.EmployeeStore
	events    *pgstore.AccessEventStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("checkin"),
		tcpostgres.WithUsername("checkin"),
		tcpostgres.WithPassword("checkin"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := postgres.Open(ctx, postgres.DefaultConfig(url))
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(pgstore.EnsureSchema(ctx, db))
	// Second run must be a no-op.
	s.Require().NoError(pgstore.EnsureSchema(ctx, db))

	s.employees = pgstore.NewEmployeeStore(db)
	s.events = pgstore.NewAccessEventStore(db)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func newEmployee(identifier, name string) types.EmployeeRecord {
	return types.EmployeeRecord{
		RecordID:   uuid.NewString(),
		Identifier: identifier,
		Name:       name,
		Role:       "Engineer",
	}
}

func (s *PostgresStoreSuite) TestCreateThenGet() {
	ctx := context.Background()
	id := "AA" + uuid.NewString()[:8]

	created, err := s.employees.CreateEmployee(ctx, newEmployee(id, "Ana"))
	s.Require().NoError(err)

	got, err := s.employees.GetEmployee(ctx, id)
	s.Require().NoError(err)
	s.Equal(created.RecordID, got.RecordID)
	s.Equal("Ana", got.Name)
	s.WithinDuration(created.RegisteredAt, got.RegisteredAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.employees.GetEmployee(context.Background(), "00000000DEAD")
	s.ErrorIs(err, store.ErrNotFound)
}

// TestConcurrentCreateSingleWinner verifies that concurrent registrations of
// one identifier result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentCreateSingleWinner() {
	ctx := context.Background()
	id := "BB" + uuid.NewString()[:8]
	const goroutines = 50

	var (
		wg            sync.WaitGroup
		successCount  atomic.Int32
		conflictCount atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.employees.CreateEmployee(ctx, newEmployee(id, "Racer"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, store.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")
}

func (s *PostgresStoreSuite) TestConcurrentAppendsAreOrdered() {
	ctx := context.Background()
	id := "CC" + uuid.NewString()[:8]
	const goroutines = 40

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.events.AppendEvent(ctx, types.AccessEvent{
				EmployeeIdentifier: id,
				EventType:          types.EventDeniedUnregistered,
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	events, err := s.events.ListEvents(ctx, store.EventQuery{Identifier: id, Limit: store.MaxEventLimit})
	s.Require().NoError(err)
	s.Require().Len(events, goroutines)
	for i := 1; i < len(events); i++ {
		s.Greater(events[i].Sequence, events[i-1].Sequence)
	}
	s.Equal(types.DirectionEntry, events[0].Direction)
}

func (s *PostgresStoreSuite) TestLedgerIsAppendOnly() {
	ctx := context.Background()
	_, err := s.events.AppendEvent(ctx, types.AccessEvent{
		EmployeeIdentifier: "DD01",
		EventType:          types.EventGranted,
	})
	s.Require().NoError(err)

	_, err = s.db.ExecContext(ctx, `UPDATE access_events SET event_type = 'error' WHERE employee_identifier = 'DD01'`)
	s.Error(err)
	_, err = s.db.ExecContext(ctx, `DELETE FROM access_events WHERE employee_identifier = 'DD01'`)
	s.Error(err)
}

func (s *PostgresStoreSuite) TestEmployeesAreImmutable() {
	ctx := context.Background()
	_, err := s.employees.CreateEmployee(ctx, newEmployee("EE01", "Ana"))
	s.Require().NoError(err)

	_, err = s.db.ExecContext(ctx, `UPDATE employees SET name = 'Eve' WHERE identifier = 'EE01'`)
	s.Error(err)
	_, err = s.db.ExecContext(ctx, `DELETE FROM employees WHERE identifier = 'EE01'`)
	s.Error(err)

	rec, err := s.employees.GetEmployee(ctx, "EE01")
	s.Require().NoError(err)
	s.Equal("Ana", rec.Name)
}
