// Package wire implements the newline-delimited JSON request/response
// framing described in the broker's wire protocol, plus dispatch of
// each accepted frame to a store or lease handler.
package wire

// Error tokens carried on the wire as the response "error" field. They are
// deliberately short, lowercase, and stable across versions.
const (
	ErrInvalidJSON            = "invalid_json"
	ErrUnknownAction          = "unknown_action"
	ErrTooLarge               = "too_large"
	ErrKeyAndWorkerRequired   = "key_and_worker_required"
	ErrWorkerRequired         = "worker_required"
	ErrTTLRequired            = "ttl_required"
	ErrInvalidTTL             = "invalid_ttl"
	ErrMaxItems               = "max_items"
	ErrWorkerAlreadyHasLease  = "worker_already_has_lease"
	ErrNotFound               = "not_found"
	ErrExpired                = "expired"
	ErrAuthFailed             = "auth_failed"
	ErrDraining               = "draining"
	ErrAlreadyRunning         = "already_running"
)

// Action names recognised in the "action" field of a request frame.
const (
	ActionGet     = "get"
	ActionSet     = "set"
	ActionDel     = "del"
	ActionList    = "list"
	ActionPing    = "ping"
	ActionStats   = "stats"
	ActionHealth  = "health"
	ActionMetrics = "metrics"
	ActionLease   = "lease"
	ActionRelease = "release"
)
