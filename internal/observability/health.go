package observability

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// DegradedTracker logs a single warning each time health crosses from
// healthy into degraded, rather than once per poll (spec §4.8).
type DegradedTracker struct {
	degraded atomic.Bool
}

// Note reports the current degraded state and warns on a healthy ->
// degraded crossing only.
func (t *DegradedTracker) Note(degraded bool, logger *zap.Logger) {
	was := t.degraded.Swap(degraded)
	if degraded && !was && logger != nil {
		logger.Warn("health degraded: at capacity")
	}
}

// Health is the flat health object returned by the "health" action
// (spec §4.8, §6).
type Health struct {
	OK        bool     `json:"ok"`
	Status    string   `json:"status"`
	UptimeMS  int64    `json:"uptimeMs"`
	Timestamp int64    `json:"timestamp"`
	Capacity  Capacity `json:"capacity"`
	Memory    Memory   `json:"memory"`
	InFlight  int      `json:"inFlight"`
	Draining  bool     `json:"draining"`
}

// BuildHealth assembles a Health snapshot. status is "degraded" exactly
// when the capacity block reports at_capacity, else "healthy".
func BuildHealth(uptimeMS, timestamp int64, capacity Capacity, memory Memory, inFlight int, draining bool) Health {
	status := "healthy"
	if capacity.AtCapacity {
		status = "degraded"
	}
	return Health{
		OK:        true,
		Status:    status,
		UptimeMS:  uptimeMS,
		Timestamp: timestamp,
		Capacity:  capacity,
		Memory:    memory,
		InFlight:  inFlight,
		Draining:  draining,
	}
}
