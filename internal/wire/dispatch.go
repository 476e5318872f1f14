package wire

import (
	"time"

	"go.uber.org/zap"

	"github.com/brokerd/broker/internal/leasestore"
	"github.com/brokerd/broker/internal/observability"
	"github.com/brokerd/broker/internal/valuestore"
)

// Deps bundles everything a handler needs to answer a request. It is
// built once at server construction time and shared across connections;
// the stores themselves are the only mutable state and are internally
// synchronized.
type Deps struct {
	Values    *valuestore.Store
	Leases    *leasestore.Store
	Metrics   *observability.Metrics
	MaxItems  int
	StartedAt time.Time
	Logger    *zap.Logger
	Degraded  *observability.DegradedTracker
}

// RuntimeSnapshot carries the lifecycle-owned state a stats/health
// response needs but that this package does not itself own.
type RuntimeSnapshot struct {
	InFlight int
	Draining bool
}

// Dispatch routes req to its handler and returns the response to be
// written back. It never panics and always returns a Response, even for
// an unrecognised action.
func Dispatch(deps *Deps, req Request, rt RuntimeSnapshot, now time.Time) Response {
	switch req.Action {
	case ActionGet:
		return handleGet(deps, req)
	case ActionSet:
		return handleSet(deps, req)
	case ActionDel:
		return handleDel(deps, req)
	case ActionList:
		return handleList(deps)
	case ActionPing:
		return OK(map[string]any{"pong": now.UnixMilli()})
	case ActionStats:
		return handleStats(deps, rt, now)
	case ActionHealth:
		return handleHealth(deps, rt, now)
	case ActionMetrics:
		return handleMetrics(deps)
	case ActionLease:
		return handleLease(deps, req)
	case ActionRelease:
		return handleRelease(deps, req)
	default:
		return Fail(ErrUnknownAction)
	}
}

func handleGet(deps *Deps, req Request) Response {
	value, compressed, errToken := deps.Values.Get(req.Key)
	if errToken != "" {
		return Fail(errToken)
	}
	return OK(map[string]any{"value": value, "compressed": compressed})
}

func handleSet(deps *Deps, req Request) Response {
	compressed := req.Compressed != nil && *req.Compressed
	errToken := deps.Values.Set(req.Key, req.Value, req.TTL, compressed, req.BeforeSize, req.AfterSize)
	if errToken != "" {
		return Fail(errToken)
	}
	return OK(nil)
}

func handleDel(deps *Deps, req Request) Response {
	deps.Values.Del(req.Key)
	return OK(nil)
}

func handleList(deps *Deps) Response {
	items := deps.Values.List()
	return OK(map[string]any{"items": items})
}

func handleLease(deps *Deps, req Request) Response {
	value, errToken := deps.Leases.Lease(req.Key, req.WorkerID, req.TTL)
	if errToken != "" {
		return Fail(errToken)
	}
	return OK(map[string]any{"value": value})
}

func handleRelease(deps *Deps, req Request) Response {
	released, errToken := deps.Leases.Release(req.WorkerID)
	if errToken != "" {
		return Fail(errToken)
	}
	return OK(map[string]any{"released": released})
}

func handleStats(deps *Deps, rt RuntimeSnapshot, now time.Time) Response {
	capacity := observability.AssessCapacity(deps.Values.Count(), deps.MaxItems)
	stats := observability.Stats{
		Items:    deps.Values.Count(),
		Leases:   deps.Leases.Count(),
		Capacity: capacity,
		Memory:   observability.ReadMemory(),
		UptimeMS: now.Sub(deps.StartedAt).Milliseconds(),
	}
	if deps.Metrics != nil {
		deps.Metrics.SetCapacity(capacity.Items, capacity.MaxItems)
	}
	return OK(map[string]any{"stats": stats})
}

func handleHealth(deps *Deps, rt RuntimeSnapshot, now time.Time) Response {
	capacity := observability.AssessCapacity(deps.Values.Count(), deps.MaxItems)
	h := observability.BuildHealth(
		now.Sub(deps.StartedAt).Milliseconds(),
		now.UnixMilli(),
		capacity,
		observability.ReadMemory(),
		rt.InFlight,
		rt.Draining,
	)
	if deps.Degraded != nil {
		deps.Degraded.Note(h.Status == "degraded", deps.Logger)
	}
	fields := map[string]any{
		"status":    h.Status,
		"uptimeMs":  h.UptimeMS,
		"timestamp": h.Timestamp,
		"capacity":  h.Capacity,
		"memory":    h.Memory,
		"inFlight":  h.InFlight,
		"draining":  h.Draining,
	}
	return OK(fields)
}

func handleMetrics(deps *Deps) Response {
	if deps.Metrics == nil {
		return OK(map[string]any{"metrics": "", "format": "prometheus"})
	}
	text, err := deps.Metrics.Render()
	if err != nil {
		return Fail("internal_error")
	}
	return OK(map[string]any{"metrics": text, "format": "prometheus"})
}
