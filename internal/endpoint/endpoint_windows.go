//go:build windows

package endpoint

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// Path computes the named pipe path for the given suffix. Windows named
// pipes are never "too long" in the sun_path sense, so there is no
// length check here.
func Path(suffix string) (string, error) {
	return fmt.Sprintf(`\\.\pipe\broker-%s`, suffix), nil
}

// Bind creates a Windows named pipe server listening at path. Windows
// named pipes have no POSIX-style "stale file" concept: each
// CreateNamedPipe call either succeeds (creating a fresh pipe instance)
// or fails. Accept surfaces ERROR_ACCESS_DENIED (another broker already
// owns the name) as ErrAlreadyRunning; any other failure, including
// ERROR_PIPE_BUSY, is returned as a wrapped create error.
//
// Permissioning relies on the default ACL of the creating user, per
// spec §9's residual-risk note for multi-user Windows hosts.
func Bind(path string) (net.Listener, error) {
	return &pipeListener{path: path}, nil
}

// Unlink is a no-op on Windows; closing the listener releases the pipe.
func Unlink(path string) error { return nil }

type pipeListener struct {
	path   string
	handle windows.Handle
	closed bool
}

func (l *pipeListener) Accept() (net.Conn, error) {
	if l.closed {
		return nil, fmt.Errorf("endpoint: listener closed")
	}

	pathPtr, err := windows.UTF16PtrFromString(l.path)
	if err != nil {
		return nil, err
	}

	const (
		pipeAccessDuplex   = 0x00000003
		pipeTypeByte       = 0x00000000
		pipeReadmodeByte   = 0x00000000
		pipeWait           = 0x00000000
		pipeUnlimitedInsts = 255
		bufSize            = 65536
	)

	handle, err := windows.CreateNamedPipe(
		pathPtr,
		pipeAccessDuplex,
		pipeTypeByte|pipeReadmodeByte|pipeWait,
		pipeUnlimitedInsts,
		bufSize,
		bufSize,
		0,
		nil,
	)
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return nil, &ErrAlreadyRunning{Path: l.path}
		}
		return nil, fmt.Errorf("endpoint: create named pipe: %w", err)
	}

	if err := windows.ConnectNamedPipe(handle, nil); err != nil && err != windows.ERROR_PIPE_CONNECTED {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("endpoint: connect named pipe: %w", err)
	}

	return &pipeConn{file: os.NewFile(uintptr(handle), l.path), path: l.path}, nil
}

func (l *pipeListener) Close() error {
	l.closed = true
	return nil
}

func (l *pipeListener) Addr() net.Addr { return pipeAddr(l.path) }

type pipeAddr string

func (p pipeAddr) Network() string { return "pipe" }
func (p pipeAddr) String() string  { return string(p) }

// pipeConn adapts an *os.File backed by a named-pipe handle to net.Conn.
// Deadlines are accepted but not enforced; the broker's handlers are
// short, CPU-bound, and do not rely on read/write deadlines per spec §5.
type pipeConn struct {
	file *os.File
	path string
}

func (c *pipeConn) Read(b []byte) (int, error)  { return c.file.Read(b) }
func (c *pipeConn) Write(b []byte) (int, error) { return c.file.Write(b) }
func (c *pipeConn) Close() error                { return c.file.Close() }
func (c *pipeConn) LocalAddr() net.Addr         { return pipeAddr(c.path) }
func (c *pipeConn) RemoteAddr() net.Addr        { return pipeAddr(c.path) }
func (c *pipeConn) SetDeadline(t time.Time) error      { return nil }
func (c *pipeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *pipeConn) SetWriteDeadline(t time.Time) error { return nil }
