package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/socketio"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(d client.Dialer, policy ReconnectPolicy) (*Manager, *[]client.Envelope, *sync.Mutex) {
	var mu sync.Mutex
	var got []client.Envelope
	m := NewManager(d, policy, func(env client.Envelope) {
		mu.Lock()
		got = append(got, env)
		mu.Unlock()
	}, testLogger())
	return m, &got, &mu
}

func awaitState(t *testing.T, m *Manager, want ConnectionState) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Await(ctx, want), "waiting for %s", want)
}

func loopExited(m *Manager) bool {
	return !m.Active()
}

func TestConnectScenario(t *testing.T) {
	d := newFakeDialer()
	d.delay = 50 * time.Millisecond
	m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 5, Delay: 100 * time.Millisecond})
	defer m.Disconnect()

	states := recordStates(t, m.States())
	expectStates(t, states, Disconnected) // replayed current state

	m.Connect()
	expectStates(t, states, Connecting, Connected)
	assert.Equal(t, Connected, m.State())

	d.next(t).drop(client.ReasonTransportClose)
	expectStates(t, states, Disconnected)

	start := time.Now()
	expectStates(t, states, Connecting)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "reconnect should begin within the backoff delay")
	expectStates(t, states, Connected)
	assert.Equal(t, 2, d.count())
	assert.Equal(t, 0, m.ReconnectAttempts(), "successful reconnect resets the counter")
}

func TestConcurrentConnectDialsOnce(t *testing.T) {
	d := newFakeDialer()
	d.delay = 20 * time.Millisecond
	m, _, _ := newTestManager(d, DefaultReconnectPolicy())
	defer m.Disconnect()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Connect()
		}()
	}
	wg.Wait()

	awaitState(t, m, Connected)
	m.Connect()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, d.count())
}

func TestReconnectAbandonedAfterPolicyAttempts(t *testing.T) {
	d := newFakeDialer()
	d.fail = func(int) error { return errors.New("connection refused") }
	m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 5, Delay: 5 * time.Millisecond})

	m.Connect()
	require.Eventually(t, func() bool { return loopExited(m) }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 5, m.ReconnectAttempts())
	assert.Equal(t, 6, d.count(), "initial dial plus five reconnects")
	assert.Equal(t, Disconnected, m.State())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 5, m.ReconnectAttempts())
	assert.Equal(t, 6, d.count())

	// an explicit Connect starts a fresh run
	m.Connect()
	require.Eventually(t, func() bool { return d.count() > 6 }, time.Second, 5*time.Millisecond)
	m.Disconnect()
}

func TestReconnectRecoversMidRun(t *testing.T) {
	d := newFakeDialer()
	d.fail = func(n int) error {
		if n >= 2 && n <= 3 {
			return errors.New("connection refused")
		}
		return nil
	}
	m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 5, Delay: 5 * time.Millisecond})
	defer m.Disconnect()

	m.Connect()
	awaitState(t, m, Connected)
	d.next(t).drop(client.ReasonTransportError)

	require.Eventually(t, func() bool { return d.count() == 4 && m.State() == Connected }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, m.ReconnectAttempts())
}

func TestDisconnectWhenDisconnectedIsNoop(t *testing.T) {
	m, _, _ := newTestManager(newFakeDialer(), DefaultReconnectPolicy())
	states := recordStates(t, m.States())
	expectStates(t, states, Disconnected)

	assert.NotPanics(t, func() {
		m.Disconnect()
		m.Disconnect()
	})
	assert.Equal(t, Disconnected, m.State())
	expectNoState(t, states, 20*time.Millisecond)
}

func TestDisconnectClosesTransport(t *testing.T) {
	d := newFakeDialer()
	m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 5, Delay: 5 * time.Millisecond})
	states := recordStates(t, m.States())

	m.Connect()
	expectStates(t, states, Disconnected, Connecting, Connected)
	conn := d.next(t)

	m.Disconnect()
	assert.True(t, conn.isClosed())
	expectStates(t, states, Disconnected)
	assert.Equal(t, Disconnected, m.State())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, d.count(), "an explicit disconnect never reconnects")
	m.Disconnect()
}

func TestDisconnectDuringHandshake(t *testing.T) {
	upgraded := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		upgraded <- struct{}{}
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	d, err := client.NewSocketDialer(srv.URL, client.NamespaceChat, nil, testLogger())
	require.NoError(t, err)
	m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 5, Delay: time.Second})

	m.Connect()
	select {
	case <-upgraded:
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the upgrade")
	}

	start := time.Now()
	m.Disconnect()
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Disconnected, m.State())
	assert.True(t, loopExited(m))
}

func TestDisconnectDuringBackoff(t *testing.T) {
	d := newFakeDialer()
	d.fail = func(int) error { return errors.New("connection refused") }
	m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 5, Delay: time.Hour})

	m.Connect()
	require.Eventually(t, func() bool { return d.count() == 1 && m.State() == Disconnected }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Disconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Disconnect blocked on the backoff timer")
	}
	assert.True(t, loopExited(m))
	select {
	case <-m.Done():
	default:
		t.Fatal("Done should be closed once the loop exited")
	}
}

func TestServerRejectionIsNotRetried(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *fakeDialer, m *Manager, t *testing.T)
	}{
		{
			name: "connect error",
			setup: func(d *fakeDialer, m *Manager, t *testing.T) {
				d.fail = func(int) error { return &socketio.ConnectError{Message: "invalid token"} }
				m.Connect()
			},
		},
		{
			name: "server disconnect",
			setup: func(d *fakeDialer, m *Manager, t *testing.T) {
				m.Connect()
				awaitState(t, m, Connected)
				d.next(t).drop(client.ReasonServerDisconnect)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDialer()
			m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 5, Delay: 5 * time.Millisecond})
			tt.setup(d, m, t)

			require.Eventually(t, func() bool { return loopExited(m) }, time.Second, 5*time.Millisecond)
			time.Sleep(30 * time.Millisecond)
			assert.Equal(t, 1, d.count())
			assert.Equal(t, Disconnected, m.State())
		})
	}
}

func TestZeroAttemptsDisablesReconnect(t *testing.T) {
	d := newFakeDialer()
	m, _, _ := newTestManager(d, ReconnectPolicy{Attempts: 0, Delay: time.Millisecond})

	m.Connect()
	awaitState(t, m, Connected)
	d.next(t).drop(client.ReasonPingTimeout)

	require.Eventually(t, func() bool { return loopExited(m) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, d.count())
}

func TestEventsDeliveredInTransportOrder(t *testing.T) {
	d := newFakeDialer()
	m, got, mu := newTestManager(d, DefaultReconnectPolicy())
	defer m.Disconnect()

	m.Connect()
	awaitState(t, m, Connected)
	conn := d.next(t)
	for i := 0; i < 10; i++ {
		conn.push(client.EventNewMessage, map[string]int{"seq": i})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(*got) == 10
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, env := range *got {
		assert.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, i), string(env.Data))
	}
}

func TestEmitRequiresConnection(t *testing.T) {
	d := newFakeDialer()
	m, _, _ := newTestManager(d, DefaultReconnectPolicy())
	defer m.Disconnect()

	assert.ErrorIs(t, m.Emit(client.EventSendMessage, nil), client.ErrNotConnected)

	m.Connect()
	awaitState(t, m, Connected)
	conn := d.next(t)
	require.NoError(t, m.Emit(client.EventSendMessage, map[string]string{"content": "hi"}))

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.emitted, 1)
	assert.Equal(t, client.EventSendMessage, conn.emitted[0].Event)
}
