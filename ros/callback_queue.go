package ros

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// A CallbackQueue holds callbacks until a goroutine services it with CallAvailable.
type CallbackQueue struct {
	clock clock.Clock
	wake  chan struct{}

	mu        sync.Mutex
	callbacks []func()
	disabled  bool
}

// NewCallbackQueue returns an enabled, empty queue.
func NewCallbackQueue() *CallbackQueue {
	return NewCallbackQueueWithClock(clock.New())
}

// NewCallbackQueueWithClock returns a queue that waits on the given clock.
func NewCallbackQueueWithClock(clk clock.Clock) *CallbackQueue {
	return &CallbackQueue{clock: clk, wake: make(chan struct{}, 1)}
}

// AddCallback appends cb to the queue. It reports false, dropping cb, if the queue is disabled.
func (q *CallbackQueue) AddCallback(cb func()) bool {
	q.mu.Lock()
	if q.disabled {
		q.mu.Unlock()
		return false
	}
	q.callbacks = append(q.callbacks, cb)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// CallAvailable runs every callback queued at the time it is called, in order, and returns how
// many ran. If the queue is empty it first waits up to timeout for one to arrive. A disabled queue
// returns immediately.
func (q *CallbackQueue) CallAvailable(timeout time.Duration) int {
	q.mu.Lock()
	if q.disabled {
		q.mu.Unlock()
		return 0
	}
	empty := len(q.callbacks) == 0
	q.mu.Unlock()

	if empty && timeout > 0 {
		timer := q.clock.Timer(timeout)
		select {
		case <-q.wake:
		case <-timer.C:
		}
		timer.Stop()
	}

	q.mu.Lock()
	if q.disabled {
		q.mu.Unlock()
		return 0
	}
	ready := q.callbacks
	q.callbacks = nil
	q.mu.Unlock()

	for _, cb := range ready {
		cb()
	}
	return len(ready)
}

// Clear drops every pending callback.
func (q *CallbackQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.callbacks = nil
}

// Disable stops the queue from accepting or running callbacks.
func (q *CallbackQueue) Disable() {
	q.mu.Lock()
	q.disabled = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Enable undoes Disable.
func (q *CallbackQueue) Enable() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.disabled = false
}

// IsEmpty reports whether no callbacks are pending.
func (q *CallbackQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.callbacks) == 0
}
