package bridge

import (
	"sync"

	"github.com/google/uuid"
)

// Stream is an observable value with replay-of-one semantics: a new
// subscriber immediately receives the last published value, if any.
//
// Publish calls are serialized and every subscriber sees values in publish
// order. Callbacks run on the publishing goroutine and must not Publish to,
// Subscribe to, or Unsubscribe from the stream that invoked them.
type Stream[T any] struct {
	pubMu sync.Mutex // held for a whole fan-out, so replay and publish never interleave

	mu   sync.Mutex
	subs []*Subscription[T]
	last T
	has  bool
}

// NewStream creates an empty stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{}
}

// NewStreamWith creates a stream whose last value is initial.
func NewStreamWith[T any](initial T) *Stream[T] {
	return &Stream[T]{last: initial, has: true}
}

// Publish records v as the last value and delivers it to every subscriber.
// It returns only after every callback has returned, so one slow or blocked
// subscriber stalls delivery to the others and whoever is publishing,
// usually a Manager's read loop. Callbacks must hand work off quickly.
func (s *Stream[T]) Publish(v T) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	s.last = v
	s.has = true
	subs := make([]*Subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(v)
	}
}

// Last returns the last published value.
func (s *Stream[T]) Last() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.has
}

// Subscribe registers fn. If a value was published before, fn receives it
// before Subscribe returns.
func (s *Stream[T]) Subscribe(fn func(T)) *Subscription[T] {
	sub := &Subscription[T]{id: uuid.NewString(), stream: s, fn: fn, active: true}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	last, has := s.last, s.has
	s.mu.Unlock()

	if has {
		sub.deliver(last)
	}
	return sub
}

// Len returns the number of live subscriptions.
func (s *Stream[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Stream[T]) remove(sub *Subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.subs {
		if cur == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Subscription ties one callback to a stream.
type Subscription[T any] struct {
	id     string
	stream *Stream[T]
	fn     func(T)

	mu     sync.Mutex // held while fn runs
	active bool
}

// ID identifies the subscription in logs.
func (s *Subscription[T]) ID() string { return s.id }

// Unsubscribe detaches the callback. Once it returns the callback will not
// be invoked again; an invocation already running completes first. Calling
// it more than once is harmless.
func (s *Subscription[T]) Unsubscribe() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.stream.remove(s)
}

func (s *Subscription[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.fn(v)
	}
}
