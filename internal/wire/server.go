package wire

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/brokerd/broker/internal/correlation"
)

// DefaultMaxRequestSize is the per-connection buffer cap (spec §6).
const DefaultMaxRequestSize = 1 << 20 // 1 MiB

// Server implements the C2 framed request pipeline: it accepts
// connections on a listener, reads newline-delimited JSON frames, and
// writes one JSON response per frame.
type Server struct {
	listener       net.Listener
	deps           *Deps
	auth           *Authenticator
	maxRequestSize int
	logger         *zap.Logger
	correlation    *correlation.Generator

	draining     atomic.Bool
	inFlight     atomic.Int64
	lastActivity atomic.Int64 // unix millis
}

// NewServer constructs a Server. maxRequestSize<=0 uses the default.
func NewServer(ln net.Listener, deps *Deps, auth *Authenticator, maxRequestSize int, logger *zap.Logger) *Server {
	if maxRequestSize <= 0 {
		maxRequestSize = DefaultMaxRequestSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		listener:       ln,
		deps:           deps,
		auth:           auth,
		maxRequestSize: maxRequestSize,
		logger:         logger,
		correlation:    correlation.NewGenerator(func() int64 { return time.Now().UnixMilli() }),
	}
	s.lastActivity.Store(time.Now().UnixMilli())
	return s
}

// SetListener binds the server to ln. Production wiring constructs the
// Server before an endpoint exists and attaches the listener once
// lifecycle.Controller.Start has bound it; tests that already have a
// listener may pass it directly to NewServer instead.
func (s *Server) SetListener(ln net.Listener) { s.listener = ln }

// SetDraining toggles whether new connections are refused.
func (s *Server) SetDraining(draining bool) {
	s.draining.Store(draining)
	if s.deps != nil && s.deps.Metrics != nil {
		s.deps.Metrics.SetDraining(draining)
	}
}

// Draining reports the current drain flag.
func (s *Server) Draining() bool { return s.draining.Load() }

// InFlight reports the number of requests currently being handled.
func (s *Server) InFlight() int { return int(s.inFlight.Load()) }

// LastActivity reports the time of the most recently accepted request.
func (s *Server) LastActivity() time.Time {
	return time.UnixMilli(s.lastActivity.Load())
}

// Serve accepts connections until the listener is closed. Cancelling
// ctx does not unblock a pending Accept; it is observed when Accept
// next returns. It never returns an error on a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if s.draining.Load() {
		writeLine(conn, Fail(ErrDraining))
		return
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), s.maxRequestSize+1)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		resp := s.handleFrame(ctx, line)
		if err := writeLine(conn, resp); err != nil {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			writeLine(conn, Fail(ErrTooLarge))
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, raw []byte) Response {
	n := s.inFlight.Add(1)
	s.lastActivity.Store(time.Now().UnixMilli())
	s.setInFlightMetric(n)
	defer func() { s.setInFlightMetric(s.inFlight.Add(-1)) }()

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Fail(ErrInvalidJSON)
	}

	if s.auth != nil && !s.auth.Verify(raw) {
		return Fail(ErrAuthFailed)
	}

	corrID := s.correlation.New()
	ctx = correlation.Set(ctx, corrID)

	now := time.Now()
	rt := RuntimeSnapshot{InFlight: s.InFlight(), Draining: s.draining.Load()}
	resp := Dispatch(s.deps, req, rt, now)

	ok, _ := resp["ok"].(bool)
	s.recordOp(req.Action, ok)
	s.logger.Debug("handled request",
		zap.String("correlation_id", corrID),
		zap.String("action", req.Action),
		zap.Bool("ok", ok))

	return resp
}

func (s *Server) setInFlightMetric(n int64) {
	if s.deps != nil && s.deps.Metrics != nil {
		s.deps.Metrics.SetInFlight(int(n))
	}
}

func (s *Server) recordOp(action string, ok bool) {
	if s.deps != nil && s.deps.Metrics != nil {
		s.deps.Metrics.RecordOperation(action, ok)
	}
}

func writeLine(conn net.Conn, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Fail("internal_error"))
	}
	data = append(data, '\n')
	_, err = conn.Write(data)
	return err
}
