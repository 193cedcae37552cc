package feed

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TokenSource supplies the current broker access token at connection time.
// The manager only reads tokens; rotation happens out-of-band.
type TokenSource interface {
	Current(ctx context.Context) string
}

// State is the connection lifecycle position. There is no terminal state:
// the manager retries until its context is cancelled.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribing
	StateStreaming
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	default:
		return "disconnected"
	}
}

// Options configures one feed connection.
type Options struct {
	URL              string
	ClientID         string
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	BatchDelay       time.Duration
	Policy           RetryPolicy
}

func (o Options) withDefaults() Options {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 20 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 20 * time.Second
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = 50 * time.Millisecond
	}
	if o.Policy == (RetryPolicy{}) {
		o.Policy = DefaultRetryPolicy
	}
	return o
}

// Manager owns one authenticated streaming connection: connect, subscribe the
// universe, keep the stream alive with pings, and reconnect forever with
// exponential backoff on any failure. Message handling is strictly sequential;
// the handler runs on the read loop's goroutine.
type Manager struct {
	opts     Options
	tokens   TokenSource
	universe []string
	handler  func([]byte)
	logger   *zap.Logger

	state atomic.Int32
}

func NewManager(opts Options, tokens TokenSource, universe []string, handler func([]byte), logger *zap.Logger) *Manager {
	return &Manager{
		opts:     opts.withDefaults(),
		tokens:   tokens,
		universe: universe,
		handler:  handler,
		logger:   logger,
	}
}

// Run drives the connection until ctx is cancelled. Connect and stream
// failures are never fatal; each one is logged and retried after the current
// backoff delay. Any successful connect resets the delay to its initial value.
func (m *Manager) Run(ctx context.Context) error {
	backoff := m.opts.Policy.NewBackoff()

	for {
		m.setState(StateConnecting)
		m.logger.Info("connecting to feed", zap.String("url", m.opts.URL))

		conn, err := m.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				m.setState(StateDisconnected)
				return ctx.Err()
			}
			delay := backoff.Next()
			m.logger.Error("feed connect failed",
				zap.Error(err), zap.Duration("retry_in", delay))
			m.setState(StateBackoff)
			if !m.wait(ctx, delay) {
				m.setState(StateDisconnected)
				return ctx.Err()
			}
			continue
		}
		backoff.Reset()
		m.logger.Info("feed connected", zap.String("url", m.opts.URL))

		// Subscriptions do not survive a reconnect; reissue the full
		// universe on every successful connect.
		m.setState(StateSubscribing)
		if err := m.subscribe(ctx, conn); err != nil {
			conn.Close()
			delay := backoff.Next()
			m.logger.Error("feed subscribe failed",
				zap.Error(err), zap.Duration("retry_in", delay))
			m.setState(StateBackoff)
			if !m.wait(ctx, delay) {
				m.setState(StateDisconnected)
				return ctx.Err()
			}
			continue
		}

		m.setState(StateStreaming)
		err = m.stream(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			m.setState(StateDisconnected)
			return ctx.Err()
		}

		delay := backoff.Next()
		m.logger.Warn("feed disconnected",
			zap.Error(err), zap.Duration("retry_in", delay))
		m.setState(StateBackoff)
		if !m.wait(ctx, delay) {
			m.setState(StateDisconnected)
			return ctx.Err()
		}
	}
}

// State reports the current lifecycle position, for logging and health checks.
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

func (m *Manager) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: m.opts.HandshakeTimeout}

	header := http.Header{}
	header.Set("access-token", m.tokens.Current(ctx))
	header.Set("client-id", m.opts.ClientID)
	header.Set("Accept", "application/json")

	conn, _, err := dialer.DialContext(ctx, m.opts.URL, header)
	return conn, err
}

// subscribe sends the full universe in protocol-sized batches with a short
// pause between them.
func (m *Manager) subscribe(ctx context.Context, conn *websocket.Conn) error {
	batches := Batches(m.universe, BatchSize)
	count := 0
	for i, req := range batches {
		if i > 0 {
			if !m.wait(ctx, m.opts.BatchDelay) {
				return ctx.Err()
			}
		}
		if err := conn.WriteJSON(req); err != nil {
			return err
		}
		count += len(req.Data)
	}
	m.logger.Info("subscribed universe",
		zap.Int("symbols", count), zap.Int("batches", len(batches)))
	return nil
}

// stream reads messages until the connection breaks or ctx is cancelled. A
// keep-alive goroutine pings on a fixed interval and closes the connection on
// ctx cancellation, which unblocks the read.
func (m *Manager) stream(ctx context.Context, conn *websocket.Conn) error {
	deadline := m.opts.PongTimeout + m.opts.PingInterval
	if err := conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
		return err
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})

	done := make(chan struct{})
	defer close(done)
	go m.keepAlive(ctx, conn, done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if m.handler != nil {
			m.handler(msg)
		}
	}
}

func (m *Manager) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			deadline := time.Now().Add(m.opts.PongTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// wait sleeps for d unless ctx is cancelled first; it reports whether the
// full wait elapsed.
func (m *Manager) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
