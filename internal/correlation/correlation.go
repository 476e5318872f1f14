// Package correlation generates and carries per-request correlation IDs
// for log events, as described in spec §4.2 step 3 and the GLOSSARY.
// IDs never travel on the wire; they exist purely for the log sink.
package correlation

import (
	"context"
	"fmt"
	"sync/atomic"
)

type contextKey struct{}

// Generator produces correlation IDs: a wall-clock millisecond prefix
// plus a monotonically increasing per-process suffix, so IDs sort
// roughly by time while staying unique even when many requests land in
// the same millisecond.
type Generator struct {
	counter atomic.Uint64
	nowMS   func() int64
}

// NewGenerator constructs a Generator that takes its millisecond prefix
// from nowMS.
func NewGenerator(nowMS func() int64) *Generator {
	return &Generator{nowMS: nowMS}
}

// New returns the next correlation ID.
func (g *Generator) New() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("%d-%d", g.nowMS(), n)
}

// Set attaches id to ctx, returning the derived context.
func Set(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// ID retrieves the correlation ID stored on ctx, if any.
func ID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
