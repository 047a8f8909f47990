package bridge

import (
	"github.com/courtside/client/internal/client"
	"github.com/rs/zerolog"
)

// Playmate follows the playmate namespace: postings created or updated by
// other players.
type Playmate struct {
	*Bridge
	created *Stream[client.Playmate]
	updated *Stream[client.Playmate]
}

// NewPlaymate creates a disconnected playmate bridge.
func NewPlaymate(dialer client.Dialer, policy ReconnectPolicy, logger zerolog.Logger) *Playmate {
	p := &Playmate{
		Bridge:  newBridge("playmate", dialer, policy, logger),
		created: NewStream[client.Playmate](),
		updated: NewStream[client.Playmate](),
	}
	Route(p.demux, client.EventNewPlaymate, p.created)
	Route(p.demux, client.EventUpdatePlaymate, p.updated)
	return p
}

// Created carries new-playmate events.
func (p *Playmate) Created() *Stream[client.Playmate] { return p.created }

// Updated carries update-playmate events.
func (p *Playmate) Updated() *Stream[client.Playmate] { return p.updated }
