package socketio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePackets(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantType PacketType
		wantNS   string
		wantID   *uint64
		wantData string
	}{
		{name: "connect default namespace", body: "0", wantType: PacketConnect, wantNS: "/"},
		{name: "connect ack with sid", body: `0/ws/chat,{"sid":"abc"}`, wantType: PacketConnect, wantNS: "/ws/chat", wantData: `{"sid":"abc"}`},
		{name: "disconnect trailing comma", body: "1/ws/playmate,", wantType: PacketDisconnect, wantNS: "/ws/playmate"},
		{name: "disconnect no comma", body: "1/ws/playmate", wantType: PacketDisconnect, wantNS: "/ws/playmate"},
		{name: "event", body: `2/ws/playmate,["new-playmate",{"id":"p1"}]`, wantType: PacketEvent, wantNS: "/ws/playmate", wantData: `["new-playmate",{"id":"p1"}]`},
		{name: "event with ack id", body: `2/ws/chat,12["send-message",{}]`, wantType: PacketEvent, wantNS: "/ws/chat", wantID: ptr(12), wantData: `["send-message",{}]`},
		{name: "ack on default namespace", body: `337[true]`, wantType: PacketAck, wantNS: "/", wantID: ptr(37), wantData: `[true]`},
		{name: "connect error", body: `4/ws/chat,{"message":"unauthorized"}`, wantType: PacketConnectError, wantNS: "/ws/chat", wantData: `{"message":"unauthorized"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantNS, p.Namespace)
			assert.Equal(t, tt.wantID, p.ID)
			assert.Equal(t, tt.wantData, string(p.Data))
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, body := range []string{"", "9", `51-/ws/chat,["upload",{"_placeholder":true,"num":0}]`, `2/ws/chat,["oops"`} {
		_, err := Decode([]byte(body))
		assert.Error(t, err, "body %q", body)
	}

	_, err := Decode([]byte(`51-["upload"]`))
	assert.ErrorIs(t, err, ErrBinaryUnsupported)
}

func TestEncodeMatchesDecode(t *testing.T) {
	p, err := NewEvent("/ws/chat", "send-message", map[string]string{"body": "hi"})
	require.NoError(t, err)
	assert.Equal(t, `2/ws/chat,["send-message",{"body":"hi"}]`, string(p.Encode()))

	id := uint64(5)
	p.ID = &id
	assert.Equal(t, `2/ws/chat,5["send-message",{"body":"hi"}]`, string(p.Encode()))

	connect := Packet{Type: PacketConnect, Namespace: DefaultNamespace}
	assert.Equal(t, "0", string(connect.Encode()))
}

func TestEventPayload(t *testing.T) {
	p, err := Decode([]byte(`2/ws/playmate,["update-playmate",{"id":"p9","status":"full"},"extra"]`))
	require.NoError(t, err)

	name, payload, err := p.Event()
	require.NoError(t, err)
	assert.Equal(t, "update-playmate", name)
	assert.JSONEq(t, `{"id":"p9","status":"full"}`, string(payload))

	p, err = Decode([]byte(`2["ping-only"]`))
	require.NoError(t, err)
	name, payload, err = p.Event()
	require.NoError(t, err)
	assert.Equal(t, "ping-only", name)
	assert.Nil(t, payload)

	_, _, err = Packet{Type: PacketConnect}.Event()
	assert.Error(t, err)
}

func TestEngineFrames(t *testing.T) {
	typ, body, err := SplitEngine([]byte(`0{"sid":"s1","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`))
	require.NoError(t, err)
	assert.Equal(t, EngineOpen, typ)

	info, err := DecodeOpen(body)
	require.NoError(t, err)
	assert.Equal(t, "s1", info.SID)
	assert.Equal(t, 45*time.Second, info.Deadline())

	assert.Equal(t, "3", string(EncodeEngine(EnginePong, nil)))
	assert.Equal(t, "40", string(EncodeEngine(EngineMessage, Packet{Type: PacketConnect}.Encode())))

	_, _, err = SplitEngine(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)
	_, _, err = SplitEngine([]byte("x"))
	assert.Error(t, err)
}

func ptr(v uint64) *uint64 { return &v }
