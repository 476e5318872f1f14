// Package sweeper implements the broker's periodic TTL sweep (spec §4.6):
// a timer that removes expired values and leases so correctness never
// depends solely on the eager sweep inside leasestore.Store.Lease.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ValueStore is the subset of valuestore.Store the sweeper needs.
type ValueStore interface {
	Sweep() int
}

// LeaseStore is the subset of leasestore.Store the sweeper needs.
type LeaseStore interface {
	Sweep() int
}

// ExpiryRecorder is the subset of observability.Metrics the sweeper
// needs to report what it removed.
type ExpiryRecorder interface {
	RecordExpiredItems(n int)
	RecordExpiredLeases(n int)
}

// Sweeper periodically sweeps both stores.
type Sweeper struct {
	values   ValueStore
	leases   LeaseStore
	metrics  ExpiryRecorder
	interval time.Duration
	logger   *zap.Logger
}

// New constructs a Sweeper with the given cadence.
func New(values ValueStore, leases LeaseStore, metrics ExpiryRecorder, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{values: values, leases: leases, metrics: metrics, interval: interval, logger: logger}
}

// Run blocks, sweeping on each tick until ctx is cancelled. Each tick is
// a single bounded pass over the current table sizes; it never blocks
// request handling beyond the brief mutex hold inside each store's
// Sweep method.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Sweeper) tick() {
	expiredItems := s.values.Sweep()
	expiredLeases := s.leases.Sweep()
	if expiredItems > 0 {
		s.metrics.RecordExpiredItems(expiredItems)
	}
	if expiredLeases > 0 {
		s.metrics.RecordExpiredLeases(expiredLeases)
	}
	if expiredItems > 0 || expiredLeases > 0 {
		s.logger.Debug("sweep complete",
			zap.Int("expired_items", expiredItems),
			zap.Int("expired_leases", expiredLeases))
	}
}
