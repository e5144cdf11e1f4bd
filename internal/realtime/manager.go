// Package realtime owns the single persistent hub connection for an
// authenticated session. It supervises connect/reconnect/backoff and feeds
// every received frame to the dispatcher in arrival order.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/famstack/famstack-client/internal/dispatch"
	"github.com/famstack/famstack-client/internal/events"
	"github.com/famstack/famstack-client/internal/session"
)

// ErrSuperseded is returned from a connect attempt that was overtaken by a
// Disconnect or a newer Connect before it could resolve.
var ErrSuperseded = errors.New("connection attempt superseded")

// Options configures the connection manager.
type Options struct {
	// HubURL is the base URL of the backend, http(s) or ws(s) scheme.
	HubURL string

	// HubPath is the websocket endpoint path on the backend.
	HubPath string

	HandshakeTimeout     time.Duration
	BackoffInitial       time.Duration
	BackoffMax           time.Duration
	MaxReconnectAttempts int
}

func (o *Options) applyDefaults() {
	if o.HubPath == "" {
		o.HubPath = "/hubs/notifications"
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 2 * time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 30 * time.Second
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = 5
	}
}

// Manager supervises one logical hub connection. All UI-facing consumers go
// through the dispatcher; nothing outside this package touches the socket.
type Manager struct {
	opts       Options
	dispatcher *dispatch.Dispatcher
	scheduler  Scheduler
	logger     zerolog.Logger

	mu          sync.Mutex
	state       ConnectionState
	conn        *websocket.Conn
	token       string
	generation  uint64
	pending     chan struct{}
	pendingErr  error
	failures    int
	lastErr     string
	cancelRetry func()
}

func NewManager(opts Options, dispatcher *dispatch.Dispatcher, scheduler Scheduler, logger zerolog.Logger) *Manager {
	opts.applyDefaults()
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}
	return &Manager{
		opts:       opts,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		logger:     logger.With().Str("component", "realtime").Logger(),
		state:      StateDisconnected,
	}
}

// Connect establishes the hub connection with the given bearer token.
// It is idempotent: while Connected it returns immediately, and while an
// attempt is in flight it joins that attempt instead of opening a second
// socket. A missing, malformed, or expired token fails with *AuthError
// before any network traffic.
func (m *Manager) Connect(ctx context.Context, token string) error {
	ident, err := session.ParseIdentity(token)
	if err != nil {
		return &AuthError{Reason: err.Error()}
	}
	if ident.Expired(time.Now()) {
		return &AuthError{Reason: "token expired"}
	}

	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return nil
	case StateConnecting:
		pending := m.pending
		m.mu.Unlock()
		return m.await(ctx, pending)
	case StateReconnecting:
		// The backoff loop owns the attempt; the caller just observes.
		m.mu.Unlock()
		return nil
	}

	// Disconnected or Failed: start a fresh attempt.
	m.generation++
	gen := m.generation
	m.token = token
	if m.cancelRetry != nil {
		m.cancelRetry()
		m.cancelRetry = nil
	}
	m.setStateLocked(StateConnecting)
	pending := make(chan struct{})
	m.pending = pending
	m.mu.Unlock()
	m.emitState(StateConnecting, "")

	err = m.attempt(ctx, gen)

	m.mu.Lock()
	if m.pending == pending {
		m.pendingErr = err
		m.pending = nil
		close(pending)
	}
	m.mu.Unlock()
	return err
}

// await blocks until an in-flight attempt resolves and returns its result.
func (m *Manager) await(ctx context.Context, pending chan struct{}) error {
	if pending == nil {
		return nil
	}
	select {
	case <-pending:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.pendingErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// attempt performs one explicit dial and applies the failure policy:
// auth errors stop cold, transport errors hand off to the backoff loop.
func (m *Manager) attempt(ctx context.Context, gen uint64) error {
	conn, err := m.dial(ctx)
	if err == nil {
		if !m.establish(conn, gen) {
			return ErrSuperseded
		}
		return nil
	}

	var authErr *AuthError
	isAuth := errors.As(err, &authErr)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.failures++
	m.lastErr = err.Error()
	var next ConnectionState
	if isAuth {
		next = StateDisconnected
	} else {
		next = StateReconnecting
		m.scheduleRetryLocked(gen, 1)
	}
	m.setStateLocked(next)
	m.mu.Unlock()
	m.emitState(next, err.Error())

	if isAuth {
		m.logger.Warn().Str("reason", authErr.Reason).Msg("hub rejected credentials")
	} else {
		m.logger.Warn().Err(err).Msg("hub connect failed, entering backoff")
	}
	return err
}

// dial opens the websocket and classifies any failure. It takes no locks.
func (m *Manager) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := m.endpoint()
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}

	dialer := websocket.Dialer{HandshakeTimeout: m.opts.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, &AuthError{Reason: resp.Status}
		}
		return nil, &TransportError{Op: "dial", Err: err}
	}
	return conn, nil
}

// establish claims a freshly dialed socket for generation gen. A stale
// generation means a Disconnect or newer Connect won the race; the socket is
// closed and its result discarded.
func (m *Manager) establish(conn *websocket.Conn, gen uint64) bool {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		_ = conn.Close()
		return false
	}
	m.conn = conn
	m.failures = 0
	m.lastErr = ""
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	m.logger.Info().Msg("hub connected")
	m.emitState(StateConnected, "")
	go m.readLoop(conn, gen)
	return true
}

// readLoop reads frames until the socket errors. Frames are decoded and
// dispatched one at a time from this single goroutine, which is what
// preserves arrival order end to end.
func (m *Manager) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			m.handleReadError(gen, err)
			return
		}
		env, payload, err := events.Decode(frame)
		if err != nil {
			m.logger.Warn().Err(err).Msg("dropping undecodable hub frame")
			continue
		}
		m.dispatcher.Emit(env.Event, payload)
	}
}

func (m *Manager) handleReadError(gen uint64, err error) {
	m.mu.Lock()
	if gen != m.generation || m.state != StateConnected {
		// Explicit disconnect already tore this connection down.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.failures++
	m.lastErr = err.Error()
	m.setStateLocked(StateReconnecting)
	m.scheduleRetryLocked(gen, 1)
	m.mu.Unlock()

	m.logger.Warn().Err(err).Msg("hub connection lost, reconnecting")
	m.emitState(StateReconnecting, err.Error())
}

// scheduleRetryLocked arms the backoff timer for the given attempt number.
// Caller holds m.mu.
func (m *Manager) scheduleRetryLocked(gen uint64, attempt int) {
	delay := m.backoff(attempt)
	m.cancelRetry = m.scheduler.After(delay, func() {
		m.retry(gen, attempt)
	})
}

func (m *Manager) retry(gen uint64, attempt int) {
	m.mu.Lock()
	if gen != m.generation || m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	conn, err := m.dial(context.Background())
	if err == nil {
		if m.establish(conn, gen) {
			m.logger.Info().Int("attempt", attempt).Msg("hub reconnected")
		}
		return
	}

	var authErr *AuthError
	isAuth := errors.As(err, &authErr)

	m.mu.Lock()
	if gen != m.generation || m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.failures++
	m.lastErr = err.Error()
	if isAuth || attempt >= m.opts.MaxReconnectAttempts {
		m.setStateLocked(StateFailed)
		m.mu.Unlock()
		m.logger.Error().Err(err).Int("attempts", attempt).Msg("giving up on hub reconnection")
		m.emitState(StateFailed, err.Error())
		return
	}
	m.scheduleRetryLocked(gen, attempt+1)
	m.mu.Unlock()

	m.logger.Warn().Err(err).Int("attempt", attempt).Msg("hub reconnect attempt failed")
}

// Disconnect tears down the connection and stops any pending retry. It is
// idempotent and supersedes an in-flight connect attempt.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state == StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.generation++
	if m.cancelRetry != nil {
		m.cancelRetry()
		m.cancelRetry = nil
	}
	conn := m.conn
	m.conn = nil
	m.failures = 0
	m.lastErr = ""
	m.token = ""
	if m.pending != nil {
		m.pendingErr = ErrSuperseded
		close(m.pending)
		m.pending = nil
	}
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}
	m.logger.Info().Msg("hub disconnected")
	m.emitState(StateDisconnected, "")
}

// IsConnected reports whether the hub connection is currently established.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Health reports connection wellbeing for UI display.
func (m *Manager) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	quality := QualityDegraded
	if m.state == StateConnected && m.failures == 0 {
		quality = QualityHealthy
	}
	return Health{
		State:               m.state,
		ConsecutiveFailures: m.failures,
		LastError:           m.lastErr,
		Quality:             quality,
	}
}

// setStateLocked mutates state only; callers emit the bus event after
// releasing the lock so subscribers can call back into the manager.
func (m *Manager) setStateLocked(s ConnectionState) {
	m.state = s
}

func (m *Manager) emitState(s ConnectionState, errMsg string) {
	m.dispatcher.Emit(events.EventConnectionStateChanged, events.ConnectionStateChanged{
		State: s.String(),
		Error: errMsg,
	})
}

// backoff returns the delay before the given attempt, doubling from the
// initial interval and capping at the configured maximum.
func (m *Manager) backoff(attempt int) time.Duration {
	d := m.opts.BackoffInitial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= m.opts.BackoffMax {
			return m.opts.BackoffMax
		}
	}
	if d > m.opts.BackoffMax {
		d = m.opts.BackoffMax
	}
	return d
}

// endpoint builds the websocket URL with the bearer token in the query, the
// same convention the backend hub uses for browser clients.
func (m *Manager) endpoint() (string, error) {
	base := strings.TrimSuffix(strings.TrimSpace(m.opts.HubURL), "/")
	if base == "" {
		return "", fmt.Errorf("hub URL is not configured")
	}
	base = strings.Replace(base, "http://", "ws://", 1)
	base = strings.Replace(base, "https://", "wss://", 1)
	if !strings.HasPrefix(base, "ws://") && !strings.HasPrefix(base, "wss://") {
		return "", fmt.Errorf("unsupported hub URL scheme: %s", m.opts.HubURL)
	}

	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	return fmt.Sprintf("%s%s?access_token=%s", base, m.opts.HubPath, token), nil
}
