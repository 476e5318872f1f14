package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_ProducesUniqueIDs(t *testing.T) {
	t.Parallel()
	g := NewGenerator(func() int64 { return 1000 })

	a := g.New()
	b := g.New()
	assert.NotEqual(t, a, b)
}

func TestSetAndID(t *testing.T) {
	t.Parallel()
	ctx := Set(context.Background(), "abc-1")
	assert.Equal(t, "abc-1", ID(ctx))
	assert.Equal(t, "", ID(context.Background()))
	assert.Equal(t, "", ID(nil))
}
