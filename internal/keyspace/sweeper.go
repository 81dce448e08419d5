package keyspace

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Sweeper drives active expiration on a timer. Each cycle scans at most
// Budget expiring keys; the limiter caps how many cycles may burst after
// a scheduling stall, so a paused process does not hammer the store when
// it wakes up.
type Sweeper struct {
	store    *Store
	interval time.Duration
	budget   int
	logger   *slog.Logger
	limiter  *rate.Limiter

	stopCh chan struct{}
	doneCh chan struct{}
}

// SweeperConfig configures the background expiration loop.
type SweeperConfig struct {
	Interval time.Duration
	Budget   int
	Logger   *slog.Logger
}

// NewSweeper creates a stopped sweeper for store.
func NewSweeper(store *Store, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sweeper{
		store:    store,
		interval: cfg.Interval,
		budget:   cfg.Budget,
		logger:   cfg.Logger,
		limiter:  rate.NewLimiter(rate.Every(cfg.Interval), 2),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to halt it; Start must not be
// called twice.
func (sw *Sweeper) Start() {
	go sw.run()
}

// Stop halts the loop and waits for the in-flight cycle to finish.
func (sw *Sweeper) Stop() {
	close(sw.stopCh)
	<-sw.doneCh
}

func (sw *Sweeper) run() {
	defer close(sw.doneCh)
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-sw.stopCh:
			return
		case <-ticker.C:
			if !sw.limiter.Allow() {
				continue
			}
			if n := sw.store.ActiveExpire(sw.budget); n > 0 {
				sw.logger.Debug("expired keys reclaimed", "count", n)
			}
		}
	}
}

// SweepOnce runs a single bounded cycle, honoring ctx for callers that
// pace sweeps themselves.
func (sw *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	if err := sw.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return sw.store.ActiveExpire(sw.budget), nil
}
