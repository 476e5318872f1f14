// Package valuestore implements the broker's value store (spec §4.4): a
// map of key to (value, expiry, compressed-flag) enforcing per-value size
// and total-item caps, with all values treated as opaque JSON.
package valuestore

import (
	"encoding/json"
	"sync"
	"time"
)

// MetricsRecorder is the subset of observability.Metrics the store needs.
// Defined here, consumer-side, so this package never imports observability.
type MetricsRecorder interface {
	RecordCompressedWrite(beforeSize, afterSize int)
	RecordUncompressedWrite(size int)
}

// Item is the public shape of a list() entry: an expiry with no value.
type Item struct {
	ExpiresAt int64 `json:"expires"`
	HasValue  bool  `json:"hasValue"`
}

type entry struct {
	value      json.RawMessage
	expiresAt  int64 // unix milliseconds
	compressed bool
}

// Config controls store-wide policy.
type Config struct {
	DefaultTTL   time.Duration
	RequireTTL   bool
	MaxItems     int // 0 disables the cap
	MaxValueSize int // bytes
}

// Store is the in-memory, single-process value table.
type Store struct {
	mu      sync.Mutex
	cfg     Config
	items   map[string]entry
	now     func() time.Time
	metrics MetricsRecorder
}

// New constructs an empty Store.
func New(cfg Config, metrics MetricsRecorder) *Store {
	return &Store{
		cfg:     cfg,
		items:   make(map[string]entry),
		now:     time.Now,
		metrics: metrics,
	}
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Get returns the raw value and compressed flag for key, or an error
// token ("not_found" / "expired") if it cannot be returned. A found-but
// -expired key is evicted as a side effect, matching the spec's lazy
// expiry semantics.
func (s *Store) Get(key string) (value json.RawMessage, compressed bool, errToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return nil, false, "not_found"
	}
	if e.expiresAt <= s.nowMillis() {
		delete(s.items, key)
		return nil, false, "expired"
	}
	return e.value, e.compressed, ""
}

// Set validates and stores value under key. See spec §4.4 for the full
// TTL/size/capacity validation contract.
func (s *Store) Set(key string, value json.RawMessage, ttl *int64, compressed bool, beforeSize, afterSize *int) (errToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl != nil && *ttl < 0 {
		return "invalid_ttl"
	}
	if s.cfg.RequireTTL {
		if ttl == nil {
			return "ttl_required"
		}
		if *ttl == 0 {
			return "invalid_ttl"
		}
	}

	size, err := valueSize(value)
	if err != nil {
		return "invalid_json"
	}
	if size > s.cfg.MaxValueSize {
		return "too_large"
	}

	_, exists := s.items[key]
	if !exists && s.cfg.MaxItems > 0 {
		if s.countLocked() >= s.cfg.MaxItems {
			return "max_items"
		}
	}

	var ttlDur time.Duration
	if ttl != nil && *ttl > 0 {
		ttlDur = time.Duration(*ttl) * time.Millisecond
	} else {
		ttlDur = s.cfg.DefaultTTL
	}

	if s.metrics != nil {
		if compressed && beforeSize != nil && afterSize != nil {
			s.metrics.RecordCompressedWrite(*beforeSize, *afterSize)
		} else {
			s.metrics.RecordUncompressedWrite(size)
		}
	}

	s.items[key] = entry{
		value:      value,
		expiresAt:  s.nowMillis() + ttlDur.Milliseconds(),
		compressed: compressed,
	}
	return ""
}

// Del removes key if present. It always succeeds, present or not.
func (s *Store) Del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// List returns every non-expired key's expiry, values omitted.
func (s *Store) List() map[string]Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowMillis()
	out := make(map[string]Item, len(s.items))
	for k, e := range s.items {
		if e.expiresAt <= now {
			continue
		}
		out[k] = Item{ExpiresAt: e.expiresAt, HasValue: true}
	}
	return out
}

// Sweep removes every entry whose expiry has passed and returns the
// count removed. Called on a timer by the sweeper (C6).
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowMillis()
	removed := 0
	for k, e := range s.items {
		if e.expiresAt <= now {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

// Count returns the number of non-expired entries.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

func (s *Store) countLocked() int {
	now := s.nowMillis()
	n := 0
	for _, e := range s.items {
		if e.expiresAt > now {
			n++
		}
	}
	return n
}

// ApproxBytes returns a heuristic estimate of total store size in bytes,
// monotone in key and value sizes as required by spec §9's open
// question on the estimator; the exact formula is otherwise
// unspecified.
func (s *Store) ApproxBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for k, e := range s.items {
		total += int64(len(k)) + int64(len(e.value))
	}
	return total
}

// Clear empties the store. Used by the lifecycle controller on stop().
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]entry)
}

// SetClock overrides the store's time source; test-only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func valueSize(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	if raw[0] == '"' {
		var decoded string
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return 0, err
		}
		return len(decoded), nil
	}
	return len(raw), nil
}
