// Package leasestore implements the broker's lease allocator (spec §4.5):
// per-pool assignment of the smallest unused non-negative integer to a
// named worker, with renewal on repeat leases and TTL-based expiry.
package leasestore

import (
	"sync"
	"time"
)

// Lease is the public snapshot of one worker's claim.
type Lease struct {
	PoolKey       string
	AssignedValue int
	ExpiresAt     int64 // unix milliseconds
}

// Config controls store-wide policy.
type Config struct {
	DefaultTTL time.Duration
}

// Store is the in-memory lease table, keyed by worker ID.
type Store struct {
	mu   sync.Mutex
	cfg  Config
	byID map[string]Lease
	now  func() time.Time
}

// New constructs an empty Store.
func New(cfg Config) *Store {
	return &Store{
		cfg:  cfg,
		byID: make(map[string]Lease),
		now:  time.Now,
	}
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Lease allocates or renews a lease for workerID in poolKey. See spec
// §4.5 for the full contract, including the density invariant this
// method must preserve.
func (s *Store) Lease(poolKey, workerID string, ttl *int64) (assigned int, errToken string) {
	if poolKey == "" || workerID == "" {
		return 0, "key_and_worker_required"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	ttlDur := s.cfg.DefaultTTL
	if ttl != nil && *ttl > 0 {
		ttlDur = time.Duration(*ttl) * time.Millisecond
	}
	expiresAt := s.nowMillis() + ttlDur.Milliseconds()

	if existing, ok := s.byID[workerID]; ok {
		if existing.PoolKey != poolKey {
			return 0, "worker_already_has_lease"
		}
		existing.ExpiresAt = expiresAt
		s.byID[workerID] = existing
		return existing.AssignedValue, ""
	}

	used := make(map[int]struct{})
	for _, l := range s.byID {
		if l.PoolKey == poolKey {
			used[l.AssignedValue] = struct{}{}
		}
	}
	value := 0
	for {
		if _, taken := used[value]; !taken {
			break
		}
		value++
	}

	s.byID[workerID] = Lease{PoolKey: poolKey, AssignedValue: value, ExpiresAt: expiresAt}
	return value, ""
}

// Release removes workerID's lease if present, reporting whether one
// existed. Releasing an unknown worker is not an error.
func (s *Store) Release(workerID string) (released bool, errToken string) {
	if workerID == "" {
		return false, "worker_required"
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.byID[workerID]
	delete(s.byID, workerID)
	return existed, ""
}

// Sweep removes every lease whose expiry has passed and returns the
// count removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.byID)
	s.pruneExpiredLocked()
	return before - len(s.byID)
}

func (s *Store) pruneExpiredLocked() {
	now := s.nowMillis()
	for id, l := range s.byID {
		if l.ExpiresAt <= now {
			delete(s.byID, id)
		}
	}
}

// Count returns the number of non-expired leases.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneExpiredLocked()
	return len(s.byID)
}

// Clear empties the lease table. Used by the lifecycle controller on
// stop().
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]Lease)
}

// SetClock overrides the store's time source; test-only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
