package ros

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"go.viam.com/simsensors/utils"
)

// A Subscriber receives the messages published on a topic on its own goroutine.
type Subscriber struct {
	id        string
	topic     string
	queueSize int
	cb        func(Message)
	master    *Master
	wake      chan struct{}
	workers   *utils.StoppableWorkers

	mu      sync.Mutex
	pending []Message

	received atomic.Uint64
	dropped  atomic.Uint64
	closed   atomic.Bool
}

func newSubscriber(master *Master, topicName string, queueSize int, cb func(Message)) *Subscriber {
	sub := &Subscriber{
		id:        uuid.NewString(),
		topic:     topicName,
		queueSize: queueSize,
		cb:        cb,
		master:    master,
		wake:      make(chan struct{}, 1),
	}
	sub.workers = utils.NewStoppableWorkers(sub.run)
	return sub
}

// ID returns the subscriber's unique id.
func (s *Subscriber) ID() string {
	return s.id
}

// Topic returns the resolved topic name.
func (s *Subscriber) Topic() string {
	return s.topic
}

// Received returns how many messages have been handed to the callback.
func (s *Subscriber) Received() uint64 {
	return s.received.Load()
}

// Dropped returns how many messages were discarded because the queue was full.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Shutdown disconnects the subscriber and waits for its goroutine to exit. Pending messages are
// discarded. It must not be called from the subscriber's own callback.
func (s *Subscriber) Shutdown() {
	if s.closed.Swap(true) {
		return
	}
	s.master.removeSubscriber(s)
	s.workers.Stop()
}

func (s *Subscriber) deliver(msg Message) {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	if s.queueSize > 0 && len(s.pending) >= s.queueSize {
		s.pending = s.pending[1:]
		s.dropped.Inc()
	}
	s.pending = append(s.pending, msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscriber) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, msg := range batch {
			if ctx.Err() != nil {
				return
			}
			s.cb(msg)
			s.received.Inc()
		}
	}
}
