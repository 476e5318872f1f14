package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSuffix_LengthAndCharset(t *testing.T) {
	t.Parallel()
	suffix, err := RandomSuffix()
	require.NoError(t, err)
	assert.Len(t, suffix, 12)
	for _, r := range suffix {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'), "unexpected character %q", r)
	}
}

func TestRandomSuffix_Unique(t *testing.T) {
	t.Parallel()
	a, err := RandomSuffix()
	require.NoError(t, err)
	b, err := RandomSuffix()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestErrAlreadyRunning_Message(t *testing.T) {
	t.Parallel()
	err := &ErrAlreadyRunning{Path: "/tmp/broker-abc123.sock"}
	assert.Contains(t, err.Error(), "/tmp/broker-abc123.sock")
	assert.Contains(t, err.Error(), "already listening")
}

func TestErrPathTooLong_Message(t *testing.T) {
	t.Parallel()
	err := &ErrPathTooLong{Path: "/tmp/very/long/path"}
	assert.Contains(t, err.Error(), "/tmp/very/long/path")
	assert.Contains(t, err.Error(), "sun_path limit")
}
