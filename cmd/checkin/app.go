package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/checkin/internal/checkin/archive"
	"github.com/BrandonDHaskell/checkin/internal/checkin/metrics"
	"github.com/BrandonDHaskell/checkin/internal/checkin/service"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store/memory"
	pgstore "github.com/BrandonDHaskell/checkin/internal/checkin/store/postgres"
	sqlitestore "github.com/BrandonDHaskell/checkin/internal/checkin/store/sqlite"
	"github.com/BrandonDHaskell/checkin/internal/config"
	"github.com/BrandonDHaskell/checkin/internal/db"
	"github.com/BrandonDHaskell/checkin/internal/platform/postgres"
	"github.com/BrandonDHaskell/checkin/internal/platform/rabbitmq"
)

// app is the wired dependency graph shared by every command.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	sqlDB  *sql.DB
	writer *db.Worker

	employees store.EmployeeStore
	events    store.AccessEventStore
	publisher *rabbitmq.Publisher

	registry *service.Registry
	ledger   *service.Ledger
	desk     *service.Desk
}

// openStores connects the configured backend and brings its schema up to
// date, so every command sees a migrated database.
func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	switch cfg.DBDriver {
	case "memory":
		a.employees = memory.NewEmployeeStore()
		a.events = memory.NewAccessEventStore()

	case "postgres":
		conn, err := postgres.Open(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pgstore.EnsureSchema(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		a.sqlDB = conn
		a.employees = pgstore.NewEmployeeStore(conn)
		a.events = pgstore.NewAccessEventStore(conn)

	default:
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		a.sqlDB = conn
		a.writer = db.NewWorker(conn)
		a.employees = sqlitestore.NewEmployeeStore(conn, a.writer)
		a.events = sqlitestore.NewAccessEventStore(conn, a.writer)
	}

	log.Info().Str("driver", cfg.DBDriver).Msg("storage ready")
	return a, nil
}

// wireServices builds the registry, ledger and desk.  reg may be nil for
// one-shot commands that do not expose metrics.
func (a *app) wireServices(ctx context.Context, reg prometheus.Registerer) error {
	if reg != nil {
		a.metrics = metrics.New(reg)
	}

	ledgerOpts := []service.LedgerOption{
		service.WithLedgerLogger(a.log),
		service.WithLedgerMetrics(a.metrics),
		service.WithAppendTimeout(a.cfg.AppendTimeout),
	}
	if a.cfg.AMQPURL != "" {
		pub, err := rabbitmq.Dial(ctx, rabbitmq.Config{URL: a.cfg.AMQPURL, Exchange: a.cfg.AMQPExchange}, a.log)
		if err != nil {
			return err
		}
		a.publisher = pub
		ledgerOpts = append(ledgerOpts, service.WithPublisher(pub))
		a.log.Info().Str("exchange", a.cfg.AMQPExchange).Msg("event publishing enabled")
	}

	a.registry = service.NewRegistry(a.employees,
		service.WithRegistryLogger(a.log),
		service.WithRegistryMetrics(a.metrics),
	)
	a.ledger = service.NewLedger(a.registry, a.events, ledgerOpts...)
	a.desk = service.NewDesk(a.registry, a.ledger, a.log)
	return nil
}

// archiver returns a ledger archiver; it is disabled when no bucket is
// configured.
func (a *app) archiver(ctx context.Context) (*archive.Archiver, error) {
	var up archive.Uploader
	if a.cfg.ArchiveBucket != "" {
		mu, err := archive.NewMinIOUploader(archive.MinIOConfig{
			Endpoint:  a.cfg.ArchiveEndpoint,
			AccessKey: a.cfg.ArchiveAccessKey,
			SecretKey: a.cfg.ArchiveSecretKey,
			Bucket:    a.cfg.ArchiveBucket,
			Region:    a.cfg.ArchiveRegion,
			UseSSL:    a.cfg.ArchiveUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := mu.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		up = mu
	}

	return archive.NewArchiver(a.events, up, archive.Config{
		Prefix:   a.cfg.ArchivePrefix,
		Interval: a.cfg.ArchiveInterval,
		PageSize: a.cfg.ArchivePageSize,
	}, a.metrics, a.log), nil
}

// seed inserts the demo employees.  Existing identifiers are skipped.
func (a *app) seed(ctx context.Context) (int, error) {
	if a.cfg.DBDriver == "sqlite" {
		return db.SeedDev(ctx, a.sqlDB, db.DefaultDevEmployees)
	}

	inserted := 0
	for _, e := range db.DefaultDevEmployees {
		_, err := a.registry.Register(ctx, service.RegisterRequest{
			Identifier: e.Identifier,
			Name:       e.Name,
			Role:       e.Role,
		})
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, service.ErrAlreadyRegistered):
		default:
			return inserted, err
		}
	}
	return inserted, nil
}

func (a *app) health(ctx context.Context) error {
	if a.sqlDB == nil {
		return nil
	}
	return a.sqlDB.PingContext(ctx)
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close publisher")
		}
	}
	if a.writer != nil {
		a.writer.Close()
	}
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
}
