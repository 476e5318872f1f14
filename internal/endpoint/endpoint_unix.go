//go:build !windows

package endpoint

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Path computes the POSIX socket path for the given suffix, validating
// the sun_path length constraint.
func Path(suffix string) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("broker-%s.sock", suffix))
	if len(path) > MaxUnixSockPathLen {
		return "", &ErrPathTooLong{Path: path}
	}
	return path, nil
}

// Bind creates and listens on a Unix domain socket at path, reclaiming
// a stale socket left behind by a crashed broker and refusing to start
// if another broker is genuinely alive on it.
func Bind(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if probeAlive(path) {
			return nil, &ErrAlreadyRunning{Path: path}
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("endpoint: remove stale socket %s: %w", path, err)
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("endpoint: listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o700); err != nil {
		ln.Close()
		return nil, fmt.Errorf("endpoint: chmod %s: %w", path, err)
	}
	return ln, nil
}

// probeAlive attempts a short-timeout connect to path to distinguish a
// stale socket file from a live listener.
func probeAlive(path string) bool {
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Unlink removes the socket file. Safe to call after the listener is
// already closed.
func Unlink(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("endpoint: unlink %s: %w", path, err)
	}
	return nil
}
