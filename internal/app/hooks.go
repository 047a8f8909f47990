package app

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/courtside/client/internal/bridge"
)

// mailboxSize bounds how far a hook may fall behind its stream. A full
// mailbox blocks the publisher until the UI catches up or the hook closes.
const mailboxSize = 64

// StreamMsg carries one stream value into Update. Pass it to the Accept of
// the hook that produced it.
type StreamMsg[T any] struct {
	hook  *Hook[T]
	Value T
}

// Hook mounts a UI consumer on a stream. Values queue in a mailbox and are
// pulled into the program one at a time with Next, the same way a read loop
// command is re-issued after every message.
type Hook[T any] struct {
	sub     *bridge.Subscription[T]
	mailbox chan T

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// Use mounts a hook on s. If s already holds a value it is queued at once.
func Use[T any](s *bridge.Stream[T]) *Hook[T] {
	h := &Hook[T]{
		mailbox: make(chan T, mailboxSize),
		done:    make(chan struct{}),
	}
	h.sub = s.Subscribe(func(v T) {
		select {
		case h.mailbox <- v:
		case <-h.done:
		}
	})
	return h
}

// Next waits for the next value. It returns nil once the hook is closed,
// and the command it returns yields nil if the hook closes while waiting.
func (h *Hook[T]) Next() tea.Cmd {
	if h == nil || h.closed.Load() {
		return nil
	}
	return func() tea.Msg {
		select {
		case v := <-h.mailbox:
			return StreamMsg[T]{hook: h, Value: v}
		case <-h.done:
			return nil
		}
	}
}

// Accept unwraps msg if it came from h and h is still mounted.
func (h *Hook[T]) Accept(msg StreamMsg[T]) (T, bool) {
	if h == nil || msg.hook != h || h.closed.Load() {
		var zero T
		return zero, false
	}
	return msg.Value, true
}

// Close unmounts the hook. Once it returns the stream no longer calls into
// the hook and Accept rejects anything still in flight.
func (h *Hook[T]) Close() {
	if h == nil {
		return
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		close(h.done)
		h.sub.Unsubscribe()
	})
}

// Closed reports whether Close was called.
func (h *Hook[T]) Closed() bool {
	return h == nil || h.closed.Load()
}
