// Package notify polls the unread notification count. The chat socket
// pushes new notifications, but nothing pushes read-state changes made on
// other devices, so the count is refreshed on a timer.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/courtside/client/internal/bridge"
	"github.com/courtside/client/internal/client"
	"github.com/rs/zerolog"
)

// UnreadCounter is the slice of client.HTTPClient the poller needs.
type UnreadCounter interface {
	UnreadNotifications(ctx context.Context) (int, error)
}

// Poller publishes the unread notification count on a fixed interval.
type Poller struct {
	source   UnreadCounter
	interval time.Duration
	counts   *bridge.Stream[int]
	logger   zerolog.Logger
}

// NewPoller creates a poller asking source every interval. It does
// nothing until Run.
func NewPoller(source UnreadCounter, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		counts:   bridge.NewStream[int](),
		logger:   logger.With().Str("component", "notify").Logger(),
	}
}

// Counts carries the unread count; a value is published only when it
// changes.
func (p *Poller) Counts() *bridge.Stream[int] { return p.counts }

// Run polls once immediately and then every interval until ctx is done or
// the backend rejects the token. Other failures are logged and the next
// tick tries again.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug().Dur("interval", p.interval).Msg("poller started")
	for {
		if err := p.poll(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			p.logger.Debug().Msg("poller stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	n, err := p.source.UnreadNotifications(ctx)
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return err
	case err != nil:
		if ctx.Err() == nil {
			p.logger.Warn().Err(err).Msg("unread count")
		}
		return nil
	}
	if last, ok := p.counts.Last(); !ok || last != n {
		p.counts.Publish(n)
	}
	return nil
}
