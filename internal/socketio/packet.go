// Package socketio encodes and decodes the text frames of the Engine.IO v4
// and Socket.IO v5 protocols carried over a WebSocket.
//
// Only the subset a plain JSON client needs is implemented: binary
// attachments are rejected with ErrBinaryUnsupported.
package socketio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EngineType is the leading byte of an Engine.IO frame.
type EngineType byte

const (
	EngineOpen    EngineType = '0'
	EngineClose   EngineType = '1'
	EnginePing    EngineType = '2'
	EnginePong    EngineType = '3'
	EngineMessage EngineType = '4'
	EngineUpgrade EngineType = '5'
	EngineNoop    EngineType = '6'
)

// PacketType is the Socket.IO packet type carried inside an Engine.IO message.
type PacketType byte

const (
	PacketConnect      PacketType = '0'
	PacketDisconnect   PacketType = '1'
	PacketEvent        PacketType = '2'
	PacketAck          PacketType = '3'
	PacketConnectError PacketType = '4'
	PacketBinaryEvent  PacketType = '5'
	PacketBinaryAck    PacketType = '6'
)

// DefaultNamespace is the namespace implied when a packet names none.
const DefaultNamespace = "/"

var (
	ErrEmptyFrame        = errors.New("socketio: empty frame")
	ErrBinaryUnsupported = errors.New("socketio: binary packets are not supported")
)

// Packet is a decoded Socket.IO packet.
type Packet struct {
	Type      PacketType
	Namespace string
	ID        *uint64
	Data      json.RawMessage
}

// OpenInfo is the payload of the Engine.IO open frame.
type OpenInfo struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Deadline is how long a client may wait for the next server ping before
// considering the connection dead.
func (o OpenInfo) Deadline() time.Duration {
	return time.Duration(o.PingInterval+o.PingTimeout) * time.Millisecond
}

// ConnectError is the payload of a CONNECT_ERROR packet.
type ConnectError struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ConnectError) Error() string {
	return "socketio: connect error: " + e.Message
}

// SplitEngine separates an Engine.IO frame into its type and body.
func SplitEngine(frame []byte) (EngineType, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, ErrEmptyFrame
	}
	t := EngineType(frame[0])
	if t < EngineOpen || t > EngineNoop {
		return 0, nil, fmt.Errorf("socketio: unknown engine frame type %q", frame[0])
	}
	return t, frame[1:], nil
}

// EncodeEngine builds an Engine.IO frame.
func EncodeEngine(t EngineType, body []byte) []byte {
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(t))
	return append(out, body...)
}

// DecodeOpen parses the body of an Engine.IO open frame.
func DecodeOpen(body []byte) (OpenInfo, error) {
	var info OpenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return OpenInfo{}, fmt.Errorf("socketio: decoding open frame: %w", err)
	}
	return info, nil
}

// Encode serializes p as the body of an Engine.IO message frame.
func (p Packet) Encode() []byte {
	var b strings.Builder
	b.WriteByte(byte(p.Type))
	if p.Namespace != "" && p.Namespace != DefaultNamespace {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}
	if p.ID != nil {
		b.WriteString(strconv.FormatUint(*p.ID, 10))
	}
	b.Write(p.Data)
	return []byte(b.String())
}

// Decode parses the body of an Engine.IO message frame.
func Decode(body []byte) (Packet, error) {
	if len(body) == 0 {
		return Packet{}, ErrEmptyFrame
	}
	p := Packet{Type: PacketType(body[0]), Namespace: DefaultNamespace}
	switch p.Type {
	case PacketConnect, PacketDisconnect, PacketEvent, PacketAck, PacketConnectError:
	case PacketBinaryEvent, PacketBinaryAck:
		return Packet{}, ErrBinaryUnsupported
	default:
		return Packet{}, fmt.Errorf("socketio: unknown packet type %q", body[0])
	}

	rest := string(body[1:])
	if strings.HasPrefix(rest, "/") {
		end := strings.IndexByte(rest, ',')
		if end < 0 {
			p.Namespace = rest
			return p, nil
		}
		p.Namespace = rest[:end]
		rest = rest[end+1:]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.ParseUint(rest[:digits], 10, 64)
		if err != nil {
			return Packet{}, fmt.Errorf("socketio: packet id: %w", err)
		}
		p.ID = &id
		rest = rest[digits:]
	}

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return Packet{}, fmt.Errorf("socketio: packet data is not JSON")
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// NewEvent builds an EVENT packet for namespace with the given name and
// arguments.
func NewEvent(namespace, name string, args ...any) (Packet, error) {
	items := make([]any, 0, len(args)+1)
	items = append(items, name)
	items = append(items, args...)
	data, err := json.Marshal(items)
	if err != nil {
		return Packet{}, fmt.Errorf("socketio: encoding event %q: %w", name, err)
	}
	return Packet{Type: PacketEvent, Namespace: namespace, Data: data}, nil
}

// Event splits an EVENT packet into its name and first argument. Events
// without arguments yield a nil payload.
func (p Packet) Event() (string, json.RawMessage, error) {
	if p.Type != PacketEvent {
		return "", nil, fmt.Errorf("socketio: packet type %q is not an event", byte(p.Type))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(p.Data, &items); err != nil {
		return "", nil, fmt.Errorf("socketio: decoding event: %w", err)
	}
	if len(items) == 0 {
		return "", nil, errors.New("socketio: event without a name")
	}
	var name string
	if err := json.Unmarshal(items[0], &name); err != nil {
		return "", nil, fmt.Errorf("socketio: event name: %w", err)
	}
	if len(items) == 1 {
		return name, nil, nil
	}
	return name, items[1], nil
}
