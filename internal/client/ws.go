package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/courtside/client/internal/socketio"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	// used until the server's open frame tells us its ping settings
	defaultReadDeadline = 45 * time.Second
)

// Conn is one live realtime connection. Recv is called from a single
// goroutine; Emit and Close are safe for concurrent use.
type Conn interface {
	// Recv blocks until the next server event. When the connection ends it
	// returns a *DisconnectError.
	Recv() (Envelope, error)
	Emit(event string, payload any) error
	Close() error
}

// Dialer opens realtime connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// SocketDialer connects to a Socket.IO namespace over a WebSocket.
type SocketDialer struct {
	endpoint  string
	namespace string
	token     TokenSource
	dialer    *websocket.Dialer
	logger    zerolog.Logger
}

// NewSocketDialer creates a dialer for namespace on the server at apiURL
// (e.g. "https://api.courtside.vn").
func NewSocketDialer(apiURL, namespace string, token TokenSource, logger zerolog.Logger) (*SocketDialer, error) {
	endpoint, err := socketEndpoint(apiURL)
	if err != nil {
		return nil, err
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &SocketDialer{
		endpoint:  endpoint,
		namespace: namespace,
		token:     token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		logger: logger.With().Str("component", "socket").Str("namespace", namespace).Logger(),
	}, nil
}

// socketEndpoint converts http://host:port → ws://host:port/socket.io/?EIO=4&transport=websocket
func socketEndpoint(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parsing api url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}

// Dial performs the Engine.IO handshake and joins the namespace.
func (d *SocketDialer) Dial(ctx context.Context) (Conn, error) {
	token := d.token()
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, _, err := d.dialer.DialContext(ctx, d.endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.endpoint, err)
	}

	// closing the socket is the only way to interrupt a blocked read
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	c := &socketConn{ws: ws, namespace: d.namespace, logger: d.logger, readDeadline: defaultReadDeadline}
	if err := c.handshake(ctx, token); err != nil {
		ws.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("joining %s: %w", d.namespace, ctxErr)
		}
		return nil, err
	}
	if !stop() {
		// ctx ended just as the handshake finished and the socket is gone
		return nil, fmt.Errorf("joining %s: %w", d.namespace, ctx.Err())
	}
	return c, nil
}

type socketConn struct {
	ws        *websocket.Conn
	namespace string
	logger    zerolog.Logger

	writeMu      sync.Mutex // serialises all ws writes (pong, emit, disconnect)
	readDeadline time.Duration
	closeOnce    sync.Once
	closed       chan struct{}
}

func (c *socketConn) handshake(ctx context.Context, token string) error {
	c.closed = make(chan struct{})

	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.ws.SetReadDeadline(deadline)

	typ, body, err := c.readFrame()
	if err != nil {
		return fmt.Errorf("reading open frame: %w", err)
	}
	if typ != socketio.EngineOpen {
		return fmt.Errorf("expected open frame, got %q", byte(typ))
	}
	info, err := socketio.DecodeOpen(body)
	if err != nil {
		return err
	}
	if d := info.Deadline(); d > 0 {
		c.readDeadline = d
	}

	auth, _ := json.Marshal(map[string]string{"token": token})
	connect := socketio.Packet{Type: socketio.PacketConnect, Namespace: c.namespace, Data: auth}
	if err := c.writePacket(connect); err != nil {
		return fmt.Errorf("joining %s: %w", c.namespace, err)
	}

	for {
		typ, body, err := c.readFrame()
		if err != nil {
			return fmt.Errorf("waiting for %s connect: %w", c.namespace, err)
		}
		switch typ {
		case socketio.EnginePing:
			if err := c.write(socketio.EncodeEngine(socketio.EnginePong, nil)); err != nil {
				return err
			}
			continue
		case socketio.EngineMessage:
		default:
			continue
		}

		p, err := socketio.Decode(body)
		if err != nil {
			return err
		}
		if p.Namespace != c.namespace {
			continue
		}
		switch p.Type {
		case socketio.PacketConnect:
			c.logger.Debug().Str("sid", info.SID).Msg("namespace joined")
			c.ws.SetReadDeadline(time.Now().Add(c.readDeadline))
			return nil
		case socketio.PacketConnectError:
			var ce socketio.ConnectError
			if err := json.Unmarshal(p.Data, &ce); err != nil {
				ce.Message = string(p.Data)
			}
			return &ce
		}
	}
}

// Recv reads frames until an event for this namespace arrives. Server pings
// are answered inline; each one pushes the read deadline forward.
func (c *socketConn) Recv() (Envelope, error) {
	for {
		typ, body, err := c.readFrame()
		if err != nil {
			return Envelope{}, c.classify(err)
		}

		switch typ {
		case socketio.EnginePing:
			c.ws.SetReadDeadline(time.Now().Add(c.readDeadline))
			if err := c.write(socketio.EncodeEngine(socketio.EnginePong, nil)); err != nil {
				return Envelope{}, c.classify(err)
			}
			continue
		case socketio.EngineClose:
			return Envelope{}, &DisconnectError{Reason: ReasonTransportClose}
		case socketio.EngineMessage:
		default:
			continue
		}

		p, err := socketio.Decode(body)
		if err != nil {
			c.logger.Warn().Err(err).Msg("dropping undecodable packet")
			continue
		}
		if p.Namespace != c.namespace {
			continue
		}
		switch p.Type {
		case socketio.PacketDisconnect:
			return Envelope{}, &DisconnectError{Reason: ReasonServerDisconnect}
		case socketio.PacketEvent:
			name, payload, err := p.Event()
			if err != nil {
				c.logger.Warn().Err(err).Msg("dropping malformed event")
				continue
			}
			return Envelope{Event: name, Data: payload}, nil
		}
	}
}

// Emit sends an event to the namespace.
func (c *socketConn) Emit(event string, payload any) error {
	select {
	case <-c.closed:
		return ErrNotConnected
	default:
	}
	var args []any
	if payload != nil {
		args = append(args, payload)
	}
	p, err := socketio.NewEvent(c.namespace, event, args...)
	if err != nil {
		return err
	}
	return c.writePacket(p)
}

// Close leaves the namespace and closes the WebSocket.
func (c *socketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writePacket(socketio.Packet{Type: socketio.PacketDisconnect, Namespace: c.namespace})
		c.writeMu.Lock()
		c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *socketConn) readFrame() (socketio.EngineType, []byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, nil, err
		}
		if mt != websocket.TextMessage {
			c.logger.Debug().Int("type", mt).Msg("ignoring non-text frame")
			continue
		}
		return socketio.SplitEngine(data)
	}
}

func (c *socketConn) writePacket(p socketio.Packet) error {
	return c.write(socketio.EncodeEngine(socketio.EngineMessage, p.Encode()))
}

func (c *socketConn) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

func (c *socketConn) classify(err error) error {
	select {
	case <-c.closed:
		return &DisconnectError{Reason: ReasonClientDisconnect, Err: err}
	default:
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &DisconnectError{Reason: ReasonPingTimeout, Err: err}
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return &DisconnectError{Reason: ReasonTransportClose, Err: err}
	}
	return &DisconnectError{Reason: ReasonTransportError, Err: err}
}
