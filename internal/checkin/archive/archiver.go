// Package archive exports the access ledger to object storage as NDJSON.
package archive

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/checkin/internal/checkin/metrics"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// EventSource is satisfied by service.Ledger and by every AccessEventStore.
type EventSource interface {
	ListEvents(ctx context.Context, q store.EventQuery) ([]types.AccessEvent, error)
}

type Uploader interface {
	Put(ctx context.Context, key string, body []byte) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

type Config struct {
	// Prefix is prepended to every object key.  Defaults to "access-events".
	Prefix string

	// Interval between export runs.  Defaults to 15 minutes.
	Interval time.Duration

	// PageSize is the number of events per object.  Defaults to 500.
	PageSize int
}

// Archiver periodically copies ledger events after its checkpoint into
// object storage, one object per page.  A nil uploader disables it.
type Archiver struct {
	source   EventSource
	uploader Uploader
	prefix   string
	interval time.Duration
	pageSize int
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu         sync.Mutex
	checkpoint int64
	recovered  bool

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewArchiver(src EventSource, up Uploader, cfg Config, m *metrics.Metrics, log zerolog.Logger) *Archiver {
	if cfg.Prefix = strings.Trim(cfg.Prefix, "/"); cfg.Prefix == "" {
		cfg.Prefix = "access-events"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.PageSize <= 0 || cfg.PageSize > store.MaxEventLimit {
		cfg.PageSize = 500
	}

	return &Archiver{
		source:   src,
		uploader: up,
		prefix:   cfg.Prefix,
		interval: cfg.Interval,
		pageSize: cfg.PageSize,
		metrics:  m,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start runs an export immediately and then on every interval until ctx is
// cancelled or Stop is called.
func (a *Archiver) Start(ctx context.Context) {
	a.started = true
	if a.uploader == nil {
		a.log.Info().Msg("ledger archiver disabled (no bucket)")
		close(a.done)
		return
	}

	ctx, a.cancel = context.WithCancel(ctx)
	go a.loop(ctx)

	a.log.Info().Str("prefix", a.prefix).Dur("interval", a.interval).Msg("ledger archiver started")
}

// Stop signals the loop to exit and waits for it.  It is a no-op if Start
// was never called.
func (a *Archiver) Stop() {
	if !a.started {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	<-a.done
}

func (a *Archiver) loop(ctx context.Context) {
	defer close(a.done)

	a.run(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.run(ctx)
		}
	}
}

func (a *Archiver) run(ctx context.Context) {
	n, err := a.ExportOnce(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("ledger archive")
		return
	}
	if n > 0 {
		a.log.Info().Int("events", n).Int64("checkpoint", a.Checkpoint()).Msg("ledger archive")
	}
}

// ExportOnce uploads every event after the checkpoint and returns how many
// were written.  A failed page leaves the checkpoint at the last uploaded
// page, so the next run retries it.
func (a *Archiver) ExportOnce(ctx context.Context) (int, error) {
	if a.uploader == nil {
		return 0, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.recovered {
		cp, err := a.recoverCheckpoint(ctx)
		if err != nil {
			return 0, err
		}
		a.checkpoint, a.recovered = cp, true
	}

	total := 0
	for {
		events, err := a.source.ListEvents(ctx, store.EventQuery{
			AfterSequence: a.checkpoint,
			Limit:         a.pageSize,
		})
		if err != nil {
			return total, fmt.Errorf("archive list after %d: %w", a.checkpoint, err)
		}
		if len(events) == 0 {
			return total, nil
		}

		body, err := EncodeNDJSON(events)
		if err != nil {
			return total, err
		}
		first, last := events[0].Sequence, events[len(events)-1].Sequence
		if err := a.uploader.Put(ctx, ObjectKey(a.prefix, first, last), body); err != nil {
			return total, err
		}

		a.checkpoint = last
		total += len(events)
		a.metrics.AddArchived(len(events))

		if len(events) < a.pageSize {
			return total, nil
		}
	}
}

func (a *Archiver) Checkpoint() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.checkpoint
}

func (a *Archiver) recoverCheckpoint(ctx context.Context) (int64, error) {
	keys, err := a.uploader.Keys(ctx, a.prefix+"/")
	if err != nil {
		return 0, fmt.Errorf("archive recover checkpoint: %w", err)
	}
	var cp int64
	for _, k := range keys {
		if last, ok := LastSequence(k); ok && last > cp {
			cp = last
		}
	}
	return cp, nil
}
