// Package events provides a broadcast channel whose subscribers can be
// invalidated all at once. It carries browser lifecycle events to the
// active run.
package events

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrReset is returned to subscribers of a generation that has been reset
	ErrReset = errors.New("event channel reset")
	// ErrClosed is returned once the subscription has been closed
	ErrClosed = errors.New("subscription closed")
)

// Channel broadcasts values to the subscribers of the current generation.
// Publish never blocks; each subscriber buffers without bound.
type Channel[T any] struct {
	mu         sync.Mutex
	generation uint64
	subs       map[*Subscription[T]]struct{}

	// most recent value, survives resets
	last    T
	hasLast bool
}

// NewChannel creates an empty channel
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Publish delivers v to every current subscriber in publish order
func (c *Channel[T]) Publish(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last, c.hasLast = v, true
	for s := range c.subs {
		s.push(v)
	}
}

// Subscribe attaches to the current generation. The new subscriber first
// receives the most recent value published, even if that was before a reset.
func (c *Channel[T]) Subscribe() *Subscription[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Subscription[T]{
		channel:    c,
		generation: c.generation,
		notify:     make(chan struct{}, 1),
	}
	if c.hasLast {
		s.queue = append(s.queue, c.last)
	}
	c.subs[s] = struct{}{}
	return s
}

// Reset starts a new generation. Existing subscribers are detached and
// their Next returns ErrReset.
func (c *Channel[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	for s := range c.subs {
		s.detach(ErrReset)
	}
	c.subs = make(map[*Subscription[T]]struct{})
}

// Generation returns the current generation number
func (c *Channel[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Subscription receives the values of one generation
type Subscription[T any] struct {
	channel    *Channel[T]
	generation uint64

	mu     sync.Mutex
	queue  []T
	err    error
	notify chan struct{}
}

// Generation returns the generation the subscription belongs to
func (s *Subscription[T]) Generation() uint64 {
	return s.generation
}

// Next blocks until a value is available. It returns ErrReset after the
// channel was reset, ErrClosed after Close, or the context error.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	for {
		s.mu.Lock()
		if s.err != nil {
			err := s.err
			s.mu.Unlock()
			var zero T
			return zero, err
		}
		if len(s.queue) > 0 {
			v := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Close detaches the subscription from the channel
func (s *Subscription[T]) Close() {
	s.channel.mu.Lock()
	delete(s.channel.subs, s)
	s.channel.mu.Unlock()
	s.detach(ErrClosed)
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	if s.err == nil {
		s.queue = append(s.queue, v)
	}
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) detach(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
		s.queue = nil
	}
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
