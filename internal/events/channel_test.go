package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, s *Subscription[int]) (int, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.Next(ctx)
}

func TestChannel_PublishOrder(t *testing.T) {
	c := NewChannel[int]()
	s := c.Subscribe()
	defer s.Close()

	for i := 1; i <= 100; i++ {
		c.Publish(i)
	}
	for i := 1; i <= 100; i++ {
		v, err := next(t, s)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestChannel_Broadcast(t *testing.T) {
	c := NewChannel[int]()
	a, b := c.Subscribe(), c.Subscribe()

	c.Publish(7)

	for _, s := range []*Subscription[int]{a, b} {
		v, err := next(t, s)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
}

func TestChannel_ResetSemantics(t *testing.T) {
	c := NewChannel[int]()
	before := c.Subscribe()

	c.Publish(1)
	c.Publish(2)
	c.Reset()
	after := c.Subscribe()
	c.Publish(3)
	c.Publish(4)

	t.Run("old subscriber sees nothing after reset", func(t *testing.T) {
		_, err := next(t, before)
		assert.True(t, errors.Is(err, ErrReset))
		_, err = next(t, before)
		assert.True(t, errors.Is(err, ErrReset))
	})

	t.Run("new subscriber replays last value then follows", func(t *testing.T) {
		for _, want := range []int{2, 3, 4} {
			v, err := next(t, after)
			require.NoError(t, err)
			assert.Equal(t, want, v)
		}
	})

	assert.Greater(t, after.Generation(), before.Generation())
	assert.Equal(t, after.Generation(), c.Generation())
}

func TestChannel_NoReplayOnFreshChannel(t *testing.T) {
	c := NewChannel[int]()
	s := c.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestChannel_ResetWakesBlockedReader(t *testing.T) {
	c := NewChannel[int]()
	s := c.Subscribe()

	done := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	c.Reset()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrReset))
	case <-time.After(time.Second):
		t.Fatal("reader not woken by reset")
	}
}

func TestSubscription_Close(t *testing.T) {
	c := NewChannel[int]()
	s := c.Subscribe()
	s.Close()
	c.Publish(1)

	_, err := next(t, s)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestChannel_ConcurrentPublish(t *testing.T) {
	c := NewChannel[int]()
	s := c.Subscribe()
	defer s.Close()

	const writers, each = 4, 250
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				c.Publish(i)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < writers*each; i++ {
		_, err := next(t, s)
		require.NoError(t, err)
	}
}
