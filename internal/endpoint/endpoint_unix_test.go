//go:build !windows

package endpoint

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_JoinsTempDirAndSuffix(t *testing.T) {
	t.Parallel()
	path, err := Path("deadbeef1234")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, os.TempDir()))
	assert.True(t, strings.HasSuffix(path, "broker-deadbeef1234.sock"))
}

func TestBind_CreatesOwnerOnlySocket(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broker-bind.sock")

	ln, err := Bind(path)
	require.NoError(t, err)
	defer ln.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestBind_RejectsWhenAlreadyListening(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broker-live.sock")

	first, err := Bind(path)
	require.NoError(t, err)
	defer first.Close()

	_, err = Bind(path)
	require.Error(t, err)
	var already *ErrAlreadyRunning
	assert.ErrorAs(t, err, &already)
}

func TestBind_ReclaimsStaleSocket(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broker-stale.sock")

	// Simulate a socket file left behind by a crashed broker: nothing is
	// listening on it, so probeAlive must fail and Bind must reclaim it.
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ln, err := Bind(path)
	require.NoError(t, err)
	defer ln.Close()
}

func TestUnlink_IdempotentOnMissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broker-missing.sock")
	assert.NoError(t, Unlink(path))
	assert.NoError(t, Unlink(path))
}

func TestUnlink_RemovesSocketFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broker-remove.sock")
	ln, err := Bind(path)
	require.NoError(t, err)
	ln.Close()

	require.NoError(t, Unlink(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProbeAlive_DetectsLiveListenerAndDeadSocket(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broker-probe.sock")

	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	assert.True(t, probeAlive(path))
	ln.Close()

	stale, err := net.Listen("unix", filepath.Join(t.TempDir(), "broker-probe2.sock"))
	require.NoError(t, err)
	stalePath := stale.Addr().String()
	stale.Close()
	assert.False(t, probeAlive(stalePath))
}
