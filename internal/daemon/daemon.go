package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
)

// DefaultInterval is used when the configured refresh interval is not positive
const DefaultInterval = time.Hour

// Daemon keeps a holiday snapshot current by refetching it on a fixed interval
type Daemon struct {
	provider  calendar.Provider
	interval  time.Duration
	state     *StateFile
	logger    *zap.Logger
	onRefresh func(*calendar.Snapshot)

	mu          sync.RWMutex
	current     *calendar.Snapshot
	lastRefresh time.Time
	lastErr     error

	refreshMu sync.Mutex // one refresh at a time
}

// Option configures a Daemon
type Option func(*Daemon)

// WithStateFile persists every refreshed snapshot and seeds the daemon from
// the file on start
func WithStateFile(state *StateFile) Option {
	return func(d *Daemon) {
		d.state = state
	}
}

// WithOnRefresh registers a hook called after each successful refresh
func WithOnRefresh(fn func(*calendar.Snapshot)) Option {
	return func(d *Daemon) {
		d.onRefresh = fn
	}
}

// NewDaemon creates a new refresher
func NewDaemon(provider calendar.Provider, interval time.Duration, logger *zap.Logger, opts ...Option) *Daemon {
	if interval <= 0 {
		interval = DefaultInterval
	}

	d := &Daemon{
		provider: provider,
		interval: interval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Current returns the latest snapshot, nil before the first refresh
func (d *Daemon) Current() *calendar.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// Status reports when the snapshot was last refreshed and the last error
func (d *Daemon) Status() (time.Time, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRefresh, d.lastErr
}

// Refresh drops the provider's in-process cache, fetches every holiday and
// swaps in a new snapshot. On failure the previous snapshot stays in place.
func (d *Daemon) Refresh(ctx context.Context) error {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	calendar.ClearCache(d.provider)

	records, err := d.provider.FetchAll(ctx)
	if err != nil {
		d.mu.Lock()
		d.lastErr = err
		d.mu.Unlock()
		return fmt.Errorf("failed to refresh holidays: %w", err)
	}

	next := calendar.NewSnapshot(records)

	d.mu.Lock()
	previous := d.current
	d.current = next
	d.lastRefresh = time.Now()
	d.lastErr = nil
	d.mu.Unlock()

	added, removed := previous.Diff(next)
	d.logger.Info("Holiday snapshot refreshed",
		zap.Int("holidays", next.Len()),
		zap.Int("added", added),
		zap.Int("removed", removed))

	if d.state != nil {
		if err := d.state.Save(next); err != nil {
			d.logger.Warn("Failed to save snapshot state", zap.Error(err))
		}
	}

	if d.onRefresh != nil {
		d.onRefresh(next)
	}

	return nil
}

// Run refreshes immediately and then on every tick until ctx is cancelled or
// the process receives SIGINT/SIGTERM
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.logger.Info("Daemon started", zap.Duration("interval", d.interval))

	d.restore()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	d.runRefresh(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Daemon stopped")
			return nil

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			return nil

		case <-ticker.C:
			d.runRefresh(ctx)
		}
	}
}

func (d *Daemon) runRefresh(ctx context.Context) {
	if err := d.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		if d.Current() != nil {
			lastRefresh, _ := d.Status()
			d.logger.Warn("Refresh failed, keeping previous snapshot",
				zap.Time("last_refresh", lastRefresh),
				zap.Error(err))
			return
		}
		d.logger.Error("Refresh failed", zap.Error(err))
	}
}

// restore seeds the current snapshot from the state file so a restart with an
// unreachable provider still has data
func (d *Daemon) restore() {
	if d.state == nil || d.Current() != nil {
		return
	}

	snapshot, err := d.state.Load()
	if err != nil {
		d.logger.Warn("Failed to load snapshot state", zap.Error(err))
		return
	}
	if snapshot == nil {
		return
	}

	d.mu.Lock()
	d.current = snapshot
	d.mu.Unlock()
}
