// Package feed owns the websocket connection to the L2 orderbook stream:
// connect, heartbeat supervision, reconnect with exponential backoff, and
// graceful close. Raw messages are decoded and pushed to a handler; all
// recovery happens inside the feed and is never surfaced to the estimation
// pipeline.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/costsim/internal/book"
)

const (
	// handshakeTimeout bounds a single dial attempt.
	handshakeTimeout = 15 * time.Second

	// DefaultHeartbeat is how long the feed waits for the next message
	// before treating the connection as stalled.
	DefaultHeartbeat = 30 * time.Second

	// DefaultBackoffFloor is the initial reconnect delay; the delay is
	// reset to the floor after every successful handshake.
	DefaultBackoffFloor = 1 * time.Second

	// DefaultBackoffCeiling caps the exponential reconnect delay.
	DefaultBackoffCeiling = 30 * time.Second
)

// Handler is invoked for every successfully decoded message, on the feed's
// receive goroutine. Handlers must be bounded-latency: no blocking I/O, no
// unbounded retries.
type Handler func(msg book.RawMessage)

// Config holds the feed's connection parameters.
type Config struct {
	URL            string
	Heartbeat      time.Duration
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
}

// Feed is the streaming orderbook client. Run drives the state machine
// Disconnected -> Connecting -> Connected <-> Backoff until the context is
// cancelled or Stop is called, after which the feed is Closed permanently.
type Feed struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	// onDown, when set, is invoked once for the first connection failure
	// so the operator can be notified. Subsequent failures are only
	// logged.
	onDown   func(err error)
	downOnce sync.Once

	// onRetry, when set, is invoked for every reconnect attempt.
	onRetry func()

	state     atomic.Int32
	closeOnce sync.Once
	done      chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a Feed. Zero durations in cfg fall back to the defaults.
func New(cfg Config, handler Handler, logger *slog.Logger) *Feed {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.BackoffFloor <= 0 {
		cfg.BackoffFloor = DefaultBackoffFloor
	}
	if cfg.BackoffCeiling <= 0 {
		cfg.BackoffCeiling = DefaultBackoffCeiling
	}
	return &Feed{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With(slog.String("component", "feed")),
		done:    make(chan struct{}),
	}
}

// OnDown registers a hook invoked once, on the first connection failure.
func (f *Feed) OnDown(hook func(err error)) {
	f.onDown = hook
}

// OnRetry registers a hook invoked before every reconnect attempt.
func (f *Feed) OnRetry(hook func()) {
	f.onRetry = hook
}

// State returns the current connection state.
func (f *Feed) State() State {
	return State(f.state.Load())
}

// Run connects and receives until ctx is cancelled or Stop is called. It
// reconnects with exponential backoff (floor doubled up to the ceiling,
// reset on every successful handshake) and returns nil on clean shutdown.
func (f *Feed) Run(ctx context.Context) error {
	delay := f.cfg.BackoffFloor

	for {
		select {
		case <-ctx.Done():
			f.shutdown()
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		f.state.Store(int32(StateConnecting))
		conn, err := f.dial(ctx)
		if err != nil {
			f.logger.Warn("connect failed",
				slog.String("url", f.cfg.URL),
				slog.String("error", err.Error()),
			)
			f.notifyDown(err)
			f.notifyRetry()
			if !f.waitBackoff(ctx, delay) {
				return f.runErr(ctx)
			}
			delay = nextDelay(delay, f.cfg.BackoffCeiling)
			continue
		}

		// Handshake succeeded: reset backoff to the floor.
		delay = f.cfg.BackoffFloor
		f.setConn(conn)
		f.state.Store(int32(StateConnected))
		f.logger.Info("connected", slog.String("url", f.cfg.URL))

		err = f.receive(conn)
		f.setConn(nil)
		_ = conn.Close()

		select {
		case <-ctx.Done():
			f.shutdown()
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		f.logger.Warn("connection lost, backing off",
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		f.notifyDown(err)
		f.notifyRetry()
		if !f.waitBackoff(ctx, delay) {
			return f.runErr(ctx)
		}
		delay = nextDelay(delay, f.cfg.BackoffCeiling)
	}
}

// Stop closes the feed permanently. It is idempotent and safe to call
// concurrently with an in-flight receive; the receive loop observes the
// closed transport within one heartbeat cycle.
func (f *Feed) Stop() {
	f.closeOnce.Do(func() {
		close(f.done)
		f.state.Store(int32(StateClosed))
		f.mu.Lock()
		if f.conn != nil {
			_ = f.conn.Close()
		}
		f.mu.Unlock()
	})
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(dialCtx, f.cfg.URL, nil)
	return conn, err
}

// receive reads messages until the connection fails or stalls. Decode
// failures are logged and skipped without tearing the connection down.
func (f *Feed) receive(conn *websocket.Conn) error {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(f.cfg.Heartbeat)); err != nil {
			return err
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := book.Decode(payload)
		if err != nil {
			f.logger.Warn("dropping unparseable message",
				slog.Int("bytes", len(payload)),
				slog.String("error", err.Error()),
			)
			continue
		}
		f.handler(msg)
	}
}

// waitBackoff sleeps for delay in the Backoff state. It returns false when
// the feed was stopped or the context cancelled during the wait.
func (f *Feed) waitBackoff(ctx context.Context, delay time.Duration) bool {
	f.state.Store(int32(StateBackoff))
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		f.shutdown()
		return false
	case <-f.done:
		return false
	case <-timer.C:
		return true
	}
}

func (f *Feed) notifyDown(err error) {
	if f.onDown == nil {
		return
	}
	f.downOnce.Do(func() { f.onDown(err) })
}

func (f *Feed) notifyRetry() {
	if f.onRetry != nil {
		f.onRetry()
	}
}

func (f *Feed) setConn(conn *websocket.Conn) {
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
}

func (f *Feed) shutdown() {
	f.Stop()
}

// runErr distinguishes context cancellation from a Stop call.
func (f *Feed) runErr(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// nextDelay doubles the backoff delay up to the ceiling.
func nextDelay(current, ceiling time.Duration) time.Duration {
	next := current * 2
	if next > ceiling {
		return ceiling
	}
	return next
}
