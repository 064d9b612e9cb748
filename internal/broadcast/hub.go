// Package broadcast implements replay-latest fan-out of entity values to
// live stream subscribers.
//
// A Hub keeps the most recently published value and a set of subscriptions.
// A new subscription first receives that latest value (if any), then every
// later publish in order. Publish never blocks: a subscriber whose buffer is
// full misses that value. A subscription only ends when its context is done
// or Close is called; the hub never ends one on its own.
package broadcast

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Publisher is the write side of a hub.
type Publisher[T any] interface {
	Publish(v T)
}

// Hub fans values of T out to subscriptions.
type Hub[T any] struct {
	name   string
	buffer int
	log    zerolog.Logger

	mu     sync.RWMutex
	latest T
	has    bool
	subs   map[*Subscription[T]]struct{}
}

// NewHub returns an empty hub. name labels logs and metrics; buffer is the
// per-subscriber queue length and is raised to 1 when smaller.
func NewHub[T any](name string, buffer int, log zerolog.Logger) *Hub[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub[T]{
		name:   name,
		buffer: buffer,
		log:    log.With().Str("hub", name).Logger(),
		subs:   make(map[*Subscription[T]]struct{}),
	}
}

// Name returns the hub label.
func (h *Hub[T]) Name() string { return h.name }

// Publish records v as the latest value and offers it to every subscription.
// Values a full subscriber cannot take are counted in the dropped metric.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	h.latest, h.has = v, true
	missed := 0
	for s := range h.subs {
		select {
		case s.ch <- v:
		default:
			missed++
		}
	}
	h.mu.Unlock()

	published.WithLabelValues(h.name).Inc()
	if missed > 0 {
		dropped.WithLabelValues(h.name).Add(float64(missed))
		h.log.Debug().Int("subscribers", missed).Msg("stream value dropped for full subscribers")
	}
}

// Subscribe attaches a subscription. The latest value, when there is one, is
// already queued on the returned subscription. The subscription is closed
// when ctx is done.
func (h *Hub[T]) Subscribe(ctx context.Context) *Subscription[T] {
	s := &Subscription[T]{
		hub:  h,
		ch:   make(chan T, h.buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.has {
		s.ch <- h.latest
	}
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	subscribers.WithLabelValues(h.name).Set(float64(n))
	h.log.Debug().Int("subscribers", n).Msg("stream subscriber attached")

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.Close()
			case <-s.done:
			}
		}()
	}
	return s
}

// Current returns the latest published value.
func (h *Hub[T]) Current() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.has
}

// Subscribers returns the number of attached subscriptions.
func (h *Hub[T]) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub[T]) remove(s *Subscription[T]) {
	h.mu.Lock()
	delete(h.subs, s)
	n := len(h.subs)
	// closed under the lock so Publish can never send on it
	close(s.ch)
	h.mu.Unlock()

	subscribers.WithLabelValues(h.name).Set(float64(n))
	h.log.Debug().Int("subscribers", n).Msg("stream subscriber detached")
}

// Subscription is one subscriber's view of a hub.
type Subscription[T any] struct {
	hub  *Hub[T]
	ch   chan T
	done chan struct{}
	once sync.Once
}

// C yields values in publish order and is closed after Close.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Done is closed once the subscription has been detached.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}
