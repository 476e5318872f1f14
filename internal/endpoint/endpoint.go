// Package endpoint implements the broker's C1 transport: creating,
// binding, and tearing down a local stream endpoint (a Unix domain
// socket on POSIX, a named pipe on Windows), with owner-only
// permissions and stale-endpoint recovery.
package endpoint

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MaxUnixSockPathLen is the conventional sun_path limit on common
// systems; spec §4.1 requires failing fast with a clear diagnostic
// rather than letting the bind syscall fail opaquely.
const MaxUnixSockPathLen = 107

// RandomSuffix returns 12 lowercase hex characters, the endpoint name
// suffix spec §4.1 specifies. pipe_id in the configuration surface
// overrides this when set.
func RandomSuffix() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("endpoint: generate random suffix: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ErrAlreadyRunning is returned by Bind when a live broker already owns
// the chosen endpoint path.
type ErrAlreadyRunning struct {
	Path string
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("endpoint: a broker is already listening on %s", e.Path)
}

// ErrPathTooLong is returned when the computed POSIX socket path would
// exceed MaxUnixSockPathLen.
type ErrPathTooLong struct {
	Path string
}

func (e *ErrPathTooLong) Error() string {
	return fmt.Sprintf("endpoint: socket path %q (%d bytes) exceeds the %d-byte sun_path limit; pick a shorter TMPDIR", e.Path, len(e.Path), MaxUnixSockPathLen)
}
