package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/courtside/client/internal/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeConn implements client.Conn for testing without a real socket.
type fakeConn struct {
	events chan client.Envelope
	errs   chan error

	mu      sync.Mutex
	emitted []client.Envelope

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan client.Envelope, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Recv() (client.Envelope, error) {
	select {
	case env := <-c.events:
		return env, nil
	case err := <-c.errs:
		return client.Envelope{}, err
	case <-c.closed:
		return client.Envelope{}, &client.DisconnectError{Reason: client.ReasonClientDisconnect}
	}
}

func (c *fakeConn) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitted = append(c.emitted, client.Envelope{Event: event, Data: data})
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(event string, payload any) {
	data, _ := json.Marshal(payload)
	c.events <- client.Envelope{Event: event, Data: data}
}

func (c *fakeConn) drop(reason string) {
	c.errs <- &client.DisconnectError{Reason: reason}
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeDialer hands out fakeConns. fail decides, per 1-based dial number,
// whether that dial errors.
type fakeDialer struct {
	delay time.Duration
	fail  func(n int) error

	mu    sync.Mutex
	dials int
	conns chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 32)}
}

func (d *fakeDialer) Dial(ctx context.Context) (client.Conn, error) {
	d.mu.Lock()
	d.dials++
	n := d.dials
	d.mu.Unlock()

	if d.delay > 0 {
		t := time.NewTimer(d.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.fail != nil {
		if err := d.fail(n); err != nil {
			return nil, err
		}
	}
	conn := newFakeConn()
	d.conns <- conn
	return conn, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) next(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no connection dialed")
		return nil
	}
}

// recordStates subscribes to s and returns a channel of every value seen.
func recordStates(t *testing.T, s *Stream[ConnectionState]) <-chan ConnectionState {
	t.Helper()
	ch := make(chan ConnectionState, 64)
	sub := s.Subscribe(func(v ConnectionState) { ch <- v })
	t.Cleanup(sub.Unsubscribe)
	return ch
}

func expectStates(t *testing.T, ch <-chan ConnectionState, want ...ConnectionState) {
	t.Helper()
	for i, w := range want {
		select {
		case got := <-ch:
			require.Equal(t, w, got, "state #%d", i)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for state #%d (%s)", i, w)
		}
	}
}

func expectNoState(t *testing.T, ch <-chan ConnectionState, within time.Duration) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("unexpected state %s", got)
	case <-time.After(within):
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
