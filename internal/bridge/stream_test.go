package bridge

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLateSubscriberReceivesLastValue(t *testing.T) {
	s := NewStream[string]()

	var early []string
	s.Subscribe(func(v string) { early = append(early, v) })
	assert.Empty(t, early, "nothing published yet, nothing replayed")

	s.Publish("first")
	s.Publish("second")

	var late []string
	s.Subscribe(func(v string) { late = append(late, v) })
	assert.Equal(t, []string{"second"}, late, "replay happens inside Subscribe")
	assert.Equal(t, []string{"first", "second"}, early)

	s.Publish("third")
	assert.Equal(t, []string{"second", "third"}, late)
}

func TestSeededStreamReplaysInitialValue(t *testing.T) {
	s := NewStreamWith(Disconnected)
	var got []ConnectionState
	s.Subscribe(func(v ConnectionState) { got = append(got, v) })
	assert.Equal(t, []ConnectionState{Disconnected}, got)

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, Disconnected, last)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := NewStream[int]()
	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })

	s.Publish(1)
	sub.Unsubscribe()
	sub.Unsubscribe()
	s.Publish(2)

	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 0, s.Len())
}

func TestSubscribersSeePublishOrder(t *testing.T) {
	s := NewStream[int]()
	var a, b []int
	s.Subscribe(func(v int) { a = append(a, v) })
	s.Subscribe(func(v int) { b = append(b, v) })

	for i := 0; i < 100; i++ {
		s.Publish(i)
	}
	require.Len(t, a, 100)
	assert.Equal(t, a, b)
	for i, v := range a {
		assert.Equal(t, i, v)
	}
}

// No callback may run once Unsubscribe has returned, whatever the
// interleaving of mounts, unmounts and concurrent publishes.
func TestPublishWaitsForSlowSubscriber(t *testing.T) {
	s := NewStream[int]()
	release := make(chan struct{})
	s.Subscribe(func(int) { <-release })
	var got atomic.Int32
	s.Subscribe(func(v int) { got.Store(int32(v)) })

	done := make(chan struct{})
	go func() {
		s.Publish(7)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Publish returned while a callback was still running")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, got.Load(), "later subscribers wait behind the slow one")

	close(release)
	<-done
	assert.Equal(t, int32(7), got.Load())
}

func TestNoDeliveryAfterUnsubscribeUnderConcurrency(t *testing.T) {
	s := NewStream[int]()
	stop := make(chan struct{})
	var pubWG sync.WaitGroup
	for p := 0; p < 4; p++ {
		pubWG.Add(1)
		go func() {
			defer pubWG.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
					s.Publish(i)
				}
			}
		}()
	}

	var violations atomic.Int64
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		n := rng.Intn(5) + 1
		subs := make([]*Subscription[int], n)
		gone := make([]*atomic.Bool, n)
		for i := range subs {
			flag := &atomic.Bool{}
			gone[i] = flag
			subs[i] = s.Subscribe(func(int) {
				if flag.Load() {
					violations.Add(1)
				}
			})
		}
		for _, i := range rng.Perm(n) {
			subs[i].Unsubscribe()
			gone[i].Store(true)
		}
	}

	close(stop)
	pubWG.Wait()
	assert.Zero(t, violations.Load())
	assert.Equal(t, 0, s.Len())
}
