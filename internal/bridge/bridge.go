package bridge

import (
	"github.com/courtside/client/internal/client"
	"github.com/rs/zerolog"
)

// Bridge is one realtime feature: a Manager for the connection and a Demux
// routing its events onto streams. Feature types embed it and add their
// typed streams.
type Bridge struct {
	name       string
	manager    *Manager
	demux      *Demux
	exceptions *Stream[client.Exception]
}

func newBridge(name string, dialer client.Dialer, policy ReconnectPolicy, logger zerolog.Logger) *Bridge {
	logger = logger.With().Str("component", "bridge").Str("bridge", name).Logger()
	b := &Bridge{
		name:       name,
		demux:      NewDemux(logger),
		exceptions: NewStream[client.Exception](),
	}
	b.manager = NewManager(dialer, policy, b.demux.Dispatch, logger)
	Route(b.demux, client.EventException, b.exceptions)
	return b
}

// Name identifies the bridge in logs and views.
func (b *Bridge) Name() string { return b.name }

// Connect starts the connection; see Manager.Connect.
func (b *Bridge) Connect() { b.manager.Connect() }

// Disconnect stops the connection; see Manager.Disconnect.
func (b *Bridge) Disconnect() { b.manager.Disconnect() }

// Manager exposes the connection manager.
func (b *Bridge) Manager() *Manager { return b.manager }

// States is the connection state stream.
func (b *Bridge) States() *Stream[ConnectionState] { return b.manager.States() }

// Exceptions carries the server's exception events.
func (b *Bridge) Exceptions() *Stream[client.Exception] { return b.exceptions }

// Emit sends an event; it fails with client.ErrNotConnected while down.
func (b *Bridge) Emit(event string, payload any) error {
	return b.manager.Emit(event, payload)
}
