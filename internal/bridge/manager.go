package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/socketio"
	"github.com/rs/zerolog"
)

// ReconnectPolicy bounds automatic reconnection: after a failure the manager
// waits Delay, then tries up to Attempts times with the same Delay between
// tries. There is no growth and no jitter.
type ReconnectPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultReconnectPolicy is five attempts one second apart.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{Attempts: 5, Delay: time.Second}
}

var errReconnectDisabled = errors.New("automatic reconnect disabled")

// Manager owns the transport handle of one bridge and its
// connect/disconnect/reconnect lifecycle. At most one run loop, and so at
// most one transport handle, exists at a time.
type Manager struct {
	dialer  client.Dialer
	policy  ReconnectPolicy
	onEvent func(client.Envelope)
	logger  zerolog.Logger
	states  *Stream[ConnectionState]

	mu       sync.Mutex
	state    ConnectionState
	conn     client.Conn
	cancel   context.CancelFunc // non-nil while a run loop is active
	done     chan struct{}      // closed when the current run loop exits
	attempts int
}

// NewManager creates a disconnected manager. onEvent receives every server
// event in transport order, on the manager's goroutine.
func NewManager(dialer client.Dialer, policy ReconnectPolicy, onEvent func(client.Envelope), logger zerolog.Logger) *Manager {
	return &Manager{
		dialer:  dialer,
		policy:  policy,
		onEvent: onEvent,
		logger:  logger,
		states:  NewStreamWith(Disconnected),
	}
}

// States is the connection state stream. It replays the current state to
// new subscribers. Its callbacks run on the manager's goroutine and must not
// call Disconnect.
func (m *Manager) States() *Stream[ConnectionState] { return m.states }

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ReconnectAttempts returns how many automatic reconnects the current
// failure run has made. It resets on every successful connection.
func (m *Manager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Active reports whether a run loop is live, i.e. the manager is connected
// or still trying to be.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Done returns a channel closed when the latest run loop exits. It is nil
// before the first Connect.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Connect starts connecting unless a run loop is already active. Concurrent
// calls collapse into one attempt. It does not wait for the connection; use
// Await for that.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev := m.done
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.attempts = 0

	go func() {
		// a loop that was abandoned or disconnected may still be publishing
		// its final state
		if prev != nil {
			<-prev
		}
		m.run(ctx, done)
	}()
}

// Disconnect tears the connection down and waits for the run loop to exit.
// It is a no-op when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Emit sends an event on the live connection.
func (m *Manager) Emit(event string, payload any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return client.ErrNotConnected
	}
	return conn.Emit(event, payload)
}

// Await blocks until the state stream reports want or ctx ends.
func (m *Manager) Await(ctx context.Context, want ConnectionState) error {
	reached := make(chan struct{})
	var once sync.Once
	sub := m.states.Subscribe(func(s ConnectionState) {
		if s == want {
			once.Do(func() { close(reached) })
		}
	})
	defer sub.Unsubscribe()

	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer m.finish(done)

	conn, err := m.dial(ctx)
	for {
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logFailure(err)
			m.transition(Disconnected)
			if !recoverable(err) {
				return
			}
			if conn, err = m.reconnect(ctx); err != nil {
				if ctx.Err() == nil {
					m.logger.Error().Err(err).Int("attempts", m.ReconnectAttempts()).Msg("reconnect abandoned")
				}
				return
			}
		}

		m.attach(conn)
		err = m.read(ctx, conn)
		m.detach()
	}
}

func (m *Manager) dial(ctx context.Context) (client.Conn, error) {
	m.transition(Connecting)
	return m.dialer.Dial(ctx)
}

func (m *Manager) reconnect(ctx context.Context) (client.Conn, error) {
	if m.policy.Attempts <= 0 {
		return nil, errReconnectDisabled
	}

	timer := time.NewTimer(m.policy.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	op := func() (client.Conn, error) {
		m.mu.Lock()
		m.attempts++
		n := m.attempts
		m.mu.Unlock()
		m.logger.Info().Int("attempt", n).Int("max", m.policy.Attempts).Msg("reconnecting")

		conn, err := m.dial(ctx)
		if err != nil {
			m.transition(Disconnected)
			if ctx.Err() != nil || !recoverable(err) {
				return nil, backoff.Permanent(err)
			}
			m.logFailure(err)
			return nil, err
		}
		return conn, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(m.policy.Delay)),
		backoff.WithMaxTries(uint(m.policy.Attempts)),
	)
}

func (m *Manager) read(ctx context.Context, conn client.Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		env, err := conn.Recv()
		if err != nil {
			return err
		}
		m.onEvent(env)
	}
}

func (m *Manager) attach(conn client.Conn) {
	m.mu.Lock()
	m.conn = conn
	m.attempts = 0
	m.mu.Unlock()
	m.logger.Info().Msg("connected")
	m.transition(Connected)
}

func (m *Manager) detach() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (m *Manager) finish(done chan struct{}) {
	m.mu.Lock()
	if m.done == done {
		m.cancel = nil
	}
	m.mu.Unlock()
	m.transition(Disconnected)
	close(done)
}

// transition records and publishes s. Only run loops call it and they never
// overlap, so publications are ordered.
func (m *Manager) transition(s ConnectionState) {
	m.mu.Lock()
	changed := m.state != s
	m.state = s
	m.mu.Unlock()
	if changed {
		m.states.Publish(s)
	}
}

func (m *Manager) logFailure(err error) {
	var de *client.DisconnectError
	var ce *socketio.ConnectError
	switch {
	case errors.As(err, &de):
		m.logger.Warn().Str("reason", de.Reason).Err(de.Err).Msg("disconnect")
	case errors.As(err, &ce):
		m.logger.Error().Str("message", ce.Message).Msg("connect_error")
	default:
		m.logger.Warn().Err(err).Msg("connect_error")
	}
}

// recoverable reports whether err should enter the reconnect policy. A
// namespace rejected by the server or left on the server's request stays
// down until Connect is called again.
func recoverable(err error) bool {
	var de *client.DisconnectError
	if errors.As(err, &de) {
		return de.Recoverable()
	}
	var ce *socketio.ConnectError
	return !errors.As(err, &ce)
}
