package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWaiter struct {
	calls chan struct{}
	err   error
	sleep time.Duration
}

func (s *stubWaiter) WaitForChange(ctx context.Context) error {
	select {
	case s.calls <- struct{}{}:
	default:
	}

	if s.sleep > 0 {
		timer := time.NewTimer(s.sleep)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.err != nil {
		return s.err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return nil
}

func TestNewChangeFeedRequiresWaiter(t *testing.T) {
	feed, err := NewChangeFeed(ChangeFeedOptions{})
	require.ErrorIs(t, err, ErrWaiterRequired)
	assert.Nil(t, feed)
}

func TestChangeFeed_SubscribeReceivesChanges(t *testing.T) {
	waiter := &stubWaiter{calls: make(chan struct{}, 4), sleep: 10 * time.Millisecond}
	feed, err := NewChangeFeed(ChangeFeedOptions{Waiter: waiter})
	require.NoError(t, err)

	unsub, ch := feed.Subscribe()
	defer unsub()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected change to be delivered")
	}
}

func TestChangeFeed_IdleWindowDoesNotSignal(t *testing.T) {
	waiter := &stubWaiter{calls: make(chan struct{}, 8), sleep: time.Hour}
	feed, err := NewChangeFeed(ChangeFeedOptions{Waiter: waiter, WaitWindow: 20 * time.Millisecond})
	require.NoError(t, err)

	unsub, ch := feed.Subscribe()
	defer unsub()

	select {
	case <-ch:
		t.Fatal("idle wait window must not produce a change signal")
	case <-time.After(150 * time.Millisecond):
	}
	assert.GreaterOrEqual(t, len(waiter.calls), 2, "listener should re-arm after each window")
}

type countingWaiter struct {
	n atomic.Int32
}

func (c *countingWaiter) WaitForChange(context.Context) error {
	c.n.Add(1)
	return errors.New("connection lost")
}

func TestChangeFeed_BacksOffOnError(t *testing.T) {
	waiter := &countingWaiter{}
	feed, err := NewChangeFeed(ChangeFeedOptions{Waiter: waiter, Backoff: 50 * time.Millisecond})
	require.NoError(t, err)

	unsub, ch := feed.Subscribe()
	time.Sleep(120 * time.Millisecond)
	unsub()

	assert.LessOrEqual(t, waiter.n.Load(), int32(4))
	_, ok := <-ch
	assert.False(t, ok)
}

func TestChangeFeed_UnsubscribeClosesChannel(t *testing.T) {
	waiter := &stubWaiter{calls: make(chan struct{}, 1), sleep: time.Hour}
	feed, err := NewChangeFeed(ChangeFeedOptions{Waiter: waiter})
	require.NoError(t, err)

	unsub, ch := feed.Subscribe()

	select {
	case <-waiter.calls:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected waiter to be invoked")
	}

	unsub()
	unsub()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after unsubscribe")
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected channel to close after unsubscribe")
	}
}

func TestChangeFeed_StopAllClosesChannels(t *testing.T) {
	waiter := &stubWaiter{calls: make(chan struct{}, 2), err: errors.New("boom")}
	feed, err := NewChangeFeed(ChangeFeedOptions{Waiter: waiter})
	require.NoError(t, err)

	unsubA, chA := feed.Subscribe()
	unsubB, chB := feed.Subscribe()

	select {
	case <-waiter.calls:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected waiter to be invoked")
	}

	feed.StopAll()

	for _, ch := range []<-chan struct{}{chA, chB} {
		select {
		case _, ok := <-ch:
			assert.False(t, ok, "channels should be closed after StopAll")
		case <-time.After(200 * time.Millisecond):
			t.Fatal("expected channel to close after StopAll")
		}
	}

	// Unsubscribes should remain safe post-stop.
	unsubA()
	unsubB()
}

type sessionWaiter struct {
	stubWaiter
	stopped atomic.Int32
}

func (s *sessionWaiter) StopListening() { s.stopped.Add(1) }

func TestChangeFeed_ReleasesWaiterSessionWhenIdle(t *testing.T) {
	waiter := &sessionWaiter{stubWaiter: stubWaiter{calls: make(chan struct{}, 1), sleep: time.Hour}}
	feed, err := NewChangeFeed(ChangeFeedOptions{Waiter: waiter})
	require.NoError(t, err)

	unsub, _ := feed.Subscribe()
	select {
	case <-waiter.calls:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected waiter to be invoked")
	}
	assert.Zero(t, waiter.stopped.Load(), "session stays open while subscribed")

	unsub()
	require.Eventually(t, func() bool { return waiter.stopped.Load() == 1 }, time.Second, 5*time.Millisecond)
}
