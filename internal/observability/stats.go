package observability

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

func processPID() int { return os.Getpid() }

// Capacity is the shared capacity assessment block embedded in both the
// stats and health snapshots (spec §4.8).
type Capacity struct {
	Items       int     `json:"items"`
	MaxItems    int     `json:"maxItems"`
	Utilization float64 `json:"utilization"`
	NearCapacity bool   `json:"nearCapacity"`
	AtCapacity   bool   `json:"atCapacity"`
	Warning      string `json:"warning"`
}

const (
	nearCapacityThreshold = 0.90
	atCapacityThreshold   = 1.0
)

// AssessCapacity computes the capacity block for a given item count and
// cap. A max of 0 means uncapped.
func AssessCapacity(items, max int) Capacity {
	c := Capacity{Items: items, MaxItems: max}
	if max <= 0 {
		c.Warning = "none"
		return c
	}
	c.Utilization = float64(items) / float64(max)
	c.AtCapacity = c.Utilization >= atCapacityThreshold
	c.NearCapacity = c.Utilization >= nearCapacityThreshold
	switch {
	case c.AtCapacity:
		c.Warning = "at_capacity"
	case c.NearCapacity:
		c.Warning = "near_capacity"
	default:
		c.Warning = "none"
	}
	return c
}

// Memory is the resident/heap memory block included in stats and health.
type Memory struct {
	ResidentBytes uint64 `json:"residentBytes"`
	HeapBytes     uint64 `json:"heapBytes"`
}

// ReadMemory samples the current process's resident size via gopsutil
// and its heap size from the Go runtime. On failure it returns a zeroed
// Memory rather than propagating the error, since a stats/health read
// must never fail the request on its own.
func ReadMemory() Memory {
	proc, err := process.NewProcess(int32(processPID()))
	if err != nil {
		return Memory{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	info, err := proc.MemoryInfoWithContext(ctx)
	if err != nil || info == nil {
		return Memory{}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Memory{ResidentBytes: info.RSS, HeapBytes: ms.HeapAlloc}
}

// Stats is the full stats snapshot (spec §4.8).
type Stats struct {
	Items    int      `json:"items"`
	Leases   int      `json:"leases"`
	Capacity Capacity `json:"capacity"`
	Memory   Memory   `json:"memory"`
	UptimeMS int64    `json:"uptimeMs"`
}
