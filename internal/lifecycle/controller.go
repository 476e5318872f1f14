// Package lifecycle implements the broker's C7 state machine: start,
// drain, stop; signal handling; the idle watchdog; the heartbeat
// emitter; and optional child-process supervision.
package lifecycle

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brokerd/broker/internal/endpoint"
	"github.com/brokerd/broker/internal/leasestore"
	"github.com/brokerd/broker/internal/observability"
	"github.com/brokerd/broker/internal/sweeper"
	"github.com/brokerd/broker/internal/valuestore"
	"github.com/brokerd/broker/internal/wire"
)

// EnvEndpointPath is the environment variable a started broker exports
// so that spawned children can discover the endpoint without a
// side-channel (spec §4.7, §9 "global mutable state").
const EnvEndpointPath = "BROKER_ENDPOINT_PATH"

// EnvSecret conveys the shared HMAC secret to co-operating children,
// per spec §6's "complementary variable".
const EnvSecret = "BROKER_SECRET"

// State is one of the four lifecycle states. There is no re-entry to
// Listening from Stopped.
type State int

const (
	Fresh State = iota
	Listening
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Listening:
		return "listening"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config controls the controller's timers and defaults.
type Config struct {
	SweeperInterval   time.Duration
	IdleTimeout       time.Duration // 0 disables the watchdog
	HeartbeatInterval time.Duration // 0 disables the heartbeat
	DrainTimeout      time.Duration
	EndpointSuffix    string // overrides the random suffix when set (pipe_id)
	Secret            string
	MaxItems          int
}

// Controller owns the endpoint, the socket server, the sweeper, and
// every timer goroutine, and sequences them through Fresh -> Listening
// -> Draining -> Stopped.
type Controller struct {
	cfg    Config
	logger *zap.Logger

	server *wire.Server
	values *valuestore.Store
	leases *leasestore.Store
	sweep  *sweeper.Sweeper

	mu           sync.Mutex
	state        State
	endpointPath string
	listener     net.Listener
	startedAt    time.Time
	group        *errgroup.Group
	groupCancel  context.CancelFunc
	signalCh     chan os.Signal
	signalsOnce  bool
	child        *exec.Cmd
}

// New constructs a Controller in the Fresh state.
func New(cfg Config, logger *zap.Logger, server *wire.Server, values *valuestore.Store, leases *leasestore.Store, sweep *sweeper.Sweeper) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	return &Controller{
		cfg:    cfg,
		logger: logger,
		server: server,
		values: values,
		leases: leases,
		sweep:  sweep,
		state:  Fresh,
	}
}

// State reports the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EndpointPath reports the bound endpoint path, valid once Start has
// succeeded.
func (c *Controller) EndpointPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpointPath
}

// Start binds the endpoint, installs signal handlers, and launches the
// sweeper, idle watchdog, and heartbeat timers. It transitions Fresh ->
// Listening and fails fast on a bind error.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Fresh {
		return fmt.Errorf("lifecycle: start called in state %s, want fresh", c.state)
	}

	suffix := c.cfg.EndpointSuffix
	if suffix == "" {
		var err error
		suffix, err = endpoint.RandomSuffix()
		if err != nil {
			return fmt.Errorf("lifecycle: generate endpoint suffix: %w", err)
		}
	}
	path, err := endpoint.Path(suffix)
	if err != nil {
		return fmt.Errorf("lifecycle: compute endpoint path: %w", err)
	}
	ln, err := endpoint.Bind(path)
	if err != nil {
		return fmt.Errorf("lifecycle: bind endpoint: %w", err)
	}

	c.listener = ln
	if c.server != nil {
		c.server.SetListener(ln)
	}
	c.endpointPath = path
	c.startedAt = time.Now()
	c.state = Listening

	if err := os.Setenv(EnvEndpointPath, path); err != nil {
		c.logger.Warn("failed to export endpoint path", zap.Error(err))
	}
	if c.cfg.Secret != "" {
		if err := os.Setenv(EnvSecret, c.cfg.Secret); err != nil {
			c.logger.Warn("failed to export shared secret", zap.Error(err))
		}
	}

	c.installSignalHandlersLocked()

	groupCtx, cancel := context.WithCancel(ctx)
	g, groupCtx := errgroup.WithContext(groupCtx)
	c.group = g
	c.groupCancel = cancel

	g.Go(func() error { return c.server.Serve(groupCtx) })
	g.Go(func() error { return c.sweep.Run(groupCtx) })
	if c.cfg.IdleTimeout > 0 {
		g.Go(func() error { c.runIdleWatchdog(groupCtx); return nil })
	}
	if c.cfg.HeartbeatInterval > 0 {
		g.Go(func() error { c.runHeartbeat(groupCtx); return nil })
	}

	c.logger.Info("broker listening", zap.String("endpoint", path))
	return nil
}

// Spawn launches command with the endpoint path (and secret, if any)
// already present in its environment, and watches its exit in the
// background: when the child exits, the controller drains then stops
// using the child's exit code as its own.
func (c *Controller) Spawn(ctx context.Context, name string, args []string) error {
	c.mu.Lock()
	if c.state != Listening {
		c.mu.Unlock()
		return fmt.Errorf("lifecycle: spawn called in state %s, want listening", c.state)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), EnvEndpointPath+"="+c.endpointPath)
	if c.cfg.Secret != "" {
		cmd.Env = append(cmd.Env, EnvSecret+"="+c.cfg.Secret)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("lifecycle: spawn %s: %w", name, err)
	}
	c.child = cmd
	c.mu.Unlock()

	go func() {
		err := cmd.Wait()
		code := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		c.logger.Info("child process exited", zap.String("command", name), zap.Int("exitCode", code))
		c.Drain(c.cfg.DrainTimeout)
		if stopErr := c.Stop(); stopErr != nil {
			c.logger.Error("stop after child exit failed", zap.Error(stopErr))
		}
		os.Exit(code)
	}()
	return nil
}

// installSignalHandlersLocked installs the INT/TERM handler exactly
// once; a repeat call is a no-op with a debug log (spec §4.7, §9
// "duplicate signal handler install"). Start itself rejects a second
// call, so handlers never stack.
func (c *Controller) installSignalHandlersLocked() {
	if c.signalsOnce {
		c.logger.Debug("signal handlers already installed")
		return
	}
	c.signalsOnce = true
	c.signalCh = make(chan os.Signal, 1)
	signal.Notify(c.signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-c.signalCh
		if !ok {
			return
		}
		c.logger.Info("received signal", zap.String("signal", sig.String()))

		c.mu.Lock()
		child := c.child
		c.mu.Unlock()
		if child != nil && child.Process != nil {
			_ = child.Process.Signal(sig)
			done := make(chan struct{})
			go func() { child.Wait(); close(done) }()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
			}
		}

		c.Drain(c.cfg.DrainTimeout)
		if err := c.Stop(); err != nil {
			c.logger.Error("stop on signal failed", zap.Error(err))
		}
		os.Exit(0)
	}()
}

// Drain transitions Listening -> Draining, refuses new connections, and
// polls in_flight until it reaches zero or timeout elapses. It is
// idempotent: calling it again while already draining polls again and
// reports the current outcome; on a Fresh or Stopped controller it does
// nothing and returns "drain_timeout".
func (c *Controller) Drain(timeout time.Duration) string {
	c.mu.Lock()
	if c.state == Fresh || c.state == Stopped {
		c.mu.Unlock()
		return "drain_timeout"
	}
	c.state = Draining
	c.mu.Unlock()

	if c.server != nil {
		c.server.SetDraining(true)
	}
	c.logger.Info("draining")

	if timeout <= 0 {
		timeout = c.cfg.DrainTimeout
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.server == nil || c.server.InFlight() == 0 {
			c.logger.Info("drain_complete")
			return "drained"
		}
		if time.Now().After(deadline) {
			c.logger.Warn("drain_timeout", zap.Int("inFlight", c.server.InFlight()))
			return "drain_timeout"
		}
		<-ticker.C
	}
}

// Stop tears down the controller: it cancels timers, closes the
// listener, unlinks the endpoint, and clears the stores. Safe to call
// more than once; only the first call does any work.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return nil
	}
	c.state = Stopped
	listener := c.listener
	path := c.endpointPath
	cancel := c.groupCancel
	group := c.group
	signalCh := c.signalCh
	c.mu.Unlock()

	var errs error

	if signalCh != nil {
		signal.Stop(signalCh)
		close(signalCh)
	}
	if cancel != nil {
		cancel()
	}
	// Close the listener before waiting on the group: Serve is blocked in
	// Accept and only returns once the listener is closed.
	if listener != nil {
		if err := listener.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("lifecycle: close listener: %w", err))
		}
	}
	if group != nil {
		if err := group.Wait(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if path != "" {
		if err := endpoint.Unlink(path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("lifecycle: unlink endpoint: %w", err))
		}
	}
	if c.values != nil {
		c.values.Clear()
	}
	if c.leases != nil {
		c.leases.Clear()
	}

	c.logger.Info("stopped", zap.Error(errs))
	return errs
}

func (c *Controller) runIdleWatchdog(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.server == nil {
				continue
			}
			idleFor := time.Since(c.server.LastActivity())
			if idleFor >= c.cfg.IdleTimeout {
				c.logger.Info("idle timeout exceeded, draining and stopping",
					zap.Duration("idleFor", idleFor), zap.Duration("threshold", c.cfg.IdleTimeout))
				c.Drain(c.cfg.DrainTimeout)
				if err := c.Stop(); err != nil {
					c.logger.Error("stop after idle timeout failed", zap.Error(err))
				}
				os.Exit(0)
			}
		}
	}
}

// InFlight, Draining, Uptime, ItemCount, and MaxItems satisfy
// httpexport.RuntimeSource, letting the HTTP observability surface read
// the same state the socket protocol's stats/health actions expose.

func (c *Controller) InFlight() int {
	if c.server == nil {
		return 0
	}
	return c.server.InFlight()
}

func (c *Controller) Draining() bool {
	if c.server == nil {
		return false
	}
	return c.server.Draining()
}

func (c *Controller) Uptime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startedAt.IsZero() {
		return 0
	}
	return time.Since(c.startedAt).Milliseconds()
}

func (c *Controller) ItemCount() int {
	if c.values == nil {
		return 0
	}
	return c.values.Count()
}

func (c *Controller) MaxItems() int { return c.cfg.MaxItems }

func (c *Controller) runHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			uptime := time.Since(c.startedAt)
			c.mu.Unlock()
			inFlight := 0
			if c.server != nil {
				inFlight = c.server.InFlight()
			}
			mem := observability.ReadMemory()
			c.logger.Info("heartbeat",
				zap.Duration("uptime", uptime),
				zap.Int("inFlight", inFlight),
				zap.Uint64("residentBytes", mem.ResidentBytes))
		}
	}
}
