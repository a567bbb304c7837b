package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWaiterRequired indicates a change feed cannot be constructed without a waiter.
var ErrWaiterRequired = errors.New("change feed waiter is required")

// Waiter blocks until a committed dispatch is announced.
type Waiter interface {
	WaitForChange(ctx context.Context) error
}

// listenStopper is implemented by waiters that hold a listening session between waits.
type listenStopper interface {
	StopListening()
}

// ChangeFeedOptions configure the behaviour of ChangeFeed.
type ChangeFeedOptions struct {
	Waiter     Waiter
	WaitWindow time.Duration
	Backoff    time.Duration
}

// ChangeFeed fans committed-dispatch announcements out to subscribers. One listener goroutine
// runs while at least one subscriber exists. Slow subscribers coalesce signals.
type ChangeFeed struct {
	waiter     Waiter
	waitWindow time.Duration
	backoff    time.Duration

	mu     sync.Mutex
	subs   map[chan struct{}]struct{}
	cancel context.CancelFunc
}

// NewChangeFeed constructs a ChangeFeed.
func NewChangeFeed(opts ChangeFeedOptions) (*ChangeFeed, error) {
	if opts.Waiter == nil {
		return nil, ErrWaiterRequired
	}

	waitWindow := opts.WaitWindow
	if waitWindow <= 0 {
		waitWindow = time.Minute
	}

	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	return &ChangeFeed{
		waiter:     opts.Waiter,
		waitWindow: waitWindow,
		backoff:    backoff,
		subs:       make(map[chan struct{}]struct{}),
	}, nil
}

// Subscribe returns a channel that receives a signal after each committed dispatch, and a
// function that unsubscribes and closes it.
func (f *ChangeFeed) Subscribe() (func(), <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		f.cancel = cancel
		go f.listenLoop(ctx)
	}

	ch := make(chan struct{}, 1)
	f.subs[ch] = struct{}{}

	unsub := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[ch]; !ok {
			return
		}
		delete(f.subs, ch)
		drainAndClose(ch)
		if len(f.subs) == 0 {
			f.stopListener()
		}
	}
	return unsub, ch
}

// StopAll stops the listener and closes every subscriber channel.
func (f *ChangeFeed) StopAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopListener()
	for ch := range f.subs {
		drainAndClose(ch)
		delete(f.subs, ch)
	}
}

func (f *ChangeFeed) stopListener() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	f.cancel = nil
}

func (f *ChangeFeed) listenLoop(ctx context.Context) {
	defer f.releaseWaiter()
	for ctx.Err() == nil {
		waitCtx, cancel := context.WithTimeout(ctx, f.waitWindow)
		err := f.waiter.WaitForChange(waitCtx)
		windowElapsed := waitCtx.Err() != nil
		cancel()

		switch {
		case err == nil:
			f.broadcast()
		case ctx.Err() != nil, windowElapsed:
			// Idle window or shutdown; loop re-checks ctx.
		default:
			timer := time.NewTimer(f.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}

// releaseWaiter drops the waiter's session unless a newer listener has already started.
func (f *ChangeFeed) releaseWaiter() {
	stopper, ok := f.waiter.(listenStopper)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel == nil {
		stopper.StopListening()
	}
}

func (f *ChangeFeed) broadcast() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// drainAndClose removes any buffered notifications before closing the channel so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
