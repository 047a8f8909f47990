// Package bridge keeps one realtime connection per feature and republishes
// server-pushed events as replaying streams for UI consumers.
package bridge

// ConnectionState represents the current state of a bridge's connection.
type ConnectionState int

const (
	// Disconnected means there is no live transport handle.
	Disconnected ConnectionState = iota

	// Connecting means a dial is in flight.
	Connecting

	// Connected means the namespace handshake completed.
	Connected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
