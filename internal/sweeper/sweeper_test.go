package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct{ swept int }

func (f *fakeStore) Sweep() int { return f.swept }

type fakeMetrics struct {
	items, leases int
}

func (f *fakeMetrics) RecordExpiredItems(n int)  { f.items += n }
func (f *fakeMetrics) RecordExpiredLeases(n int) { f.leases += n }

func TestSweeper_TicksUntilCancelled(t *testing.T) {
	t.Parallel()
	values := &fakeStore{swept: 2}
	leases := &fakeStore{swept: 1}
	metrics := &fakeMetrics{}

	s := New(values, leases, metrics, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	assert.NoError(t, err)
	assert.Greater(t, metrics.items, 0)
	assert.Greater(t, metrics.leases, 0)
}
