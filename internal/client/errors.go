package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FallbackMessage is shown when the backend gives no usable message.
const FallbackMessage = "Something went wrong. Please try again."

var (
	// ErrUnauthorized is matched by APIErrors with status 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConnected is returned when emitting on a closed socket.
	ErrNotConnected = errors.New("not connected")
)

// APIError is a non-2xx response from the REST backend.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// Is reports authorization failures as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// parseErrorBody extracts the backend's {"message": ...} convention. The
// message is either a string or, for validation failures, a list of strings.
func parseErrorBody(body []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Message) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(envelope.Message, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if json.Unmarshal(envelope.Message, &list) == nil {
		return strings.TrimSpace(strings.Join(list, "; "))
	}
	return ""
}

// UserMessage returns the text to show a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackMessage
}

// DisconnectError reports why a socket connection ended. Reason uses the
// Socket.IO vocabulary ("transport close", "io server disconnect", ...).
type DisconnectError struct {
	Reason string
	Err    error
}

// Disconnect reasons.
const (
	ReasonTransportClose   = "transport close"
	ReasonTransportError   = "transport error"
	ReasonPingTimeout      = "ping timeout"
	ReasonServerDisconnect = "io server disconnect"
	ReasonClientDisconnect = "io client disconnect"
)

func (e *DisconnectError) Error() string {
	if e.Err != nil {
		return "disconnected: " + e.Reason + ": " + e.Err.Error()
	}
	return "disconnected: " + e.Reason
}

func (e *DisconnectError) Unwrap() error { return e.Err }

// Recoverable reports whether an automatic reconnect is appropriate.
func (e *DisconnectError) Recoverable() bool {
	return e.Reason != ReasonServerDisconnect && e.Reason != ReasonClientDisconnect
}
