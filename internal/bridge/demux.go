package bridge

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/courtside/client/internal/client"
	"github.com/rs/zerolog"
)

// Demux maps named server events onto typed streams.
type Demux struct {
	logger zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]func(json.RawMessage) error
}

// NewDemux creates a demultiplexer with no routes.
func NewDemux(logger zerolog.Logger) *Demux {
	return &Demux{
		logger:   logger,
		handlers: make(map[string]func(json.RawMessage) error),
	}
}

// Route decodes every event named event into T and publishes it on s.
// Each event name can be routed once; routing it again panics.
func Route[T any](d *Demux, event string, s *Stream[T]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.handlers[event]; dup {
		panic(fmt.Sprintf("bridge: event %q routed twice", event))
	}
	d.handlers[event] = func(raw json.RawMessage) error {
		var v T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
		}
		s.Publish(v)
		return nil
	}
}

// Routed reports whether event has a route.
func (d *Demux) Routed(event string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[event]
	return ok
}

// Dispatch delivers env to its stream. Unknown or undecodable events are
// logged and dropped.
func (d *Demux) Dispatch(env client.Envelope) {
	d.mu.RLock()
	h, ok := d.handlers[env.Event]
	d.mu.RUnlock()
	if !ok {
		d.logger.Debug().Str("event", env.Event).Msg("no route for event")
		return
	}
	if err := h(env.Data); err != nil {
		d.logger.Warn().Err(err).Str("event", env.Event).Msg("dropping undecodable event")
	}
}
