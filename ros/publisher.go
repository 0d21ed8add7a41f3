package ros

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// SubscriberLink identifies a subscriber connecting to or disconnecting from a publisher.
type SubscriberLink struct {
	Topic        string
	SubscriberID string
}

// SubscriberStatusCallback is notified when a subscriber connects or disconnects.
type SubscriberStatusCallback func(SubscriberLink)

// AdvertiseOptions configures a publisher. Connect and Disconnect, when set, are added to
// CallbackQueue; without a queue they run on the goroutine that changed the subscription.
type AdvertiseOptions struct {
	Topic         string
	MessageType   string
	QueueSize     int
	Connect       SubscriberStatusCallback
	Disconnect    SubscriberStatusCallback
	CallbackQueue *CallbackQueue
}

// A Publisher sends messages of one type to every subscriber of its topic.
type Publisher struct {
	topic      string
	msgType    string
	queueSize  int
	connect    SubscriberStatusCallback
	disconnect SubscriberStatusCallback
	queue      *CallbackQueue
	master     *Master

	// t is guarded by master.mu.
	t      *topic
	closed atomic.Bool
}

// Topic returns the resolved topic name.
func (p *Publisher) Topic() string {
	return p.topic
}

// QueueSize returns the queue size the publisher was advertised with.
func (p *Publisher) QueueSize() int {
	return p.queueSize
}

// Publish delivers msg to every current subscriber without blocking on any of them.
func (p *Publisher) Publish(msg Message) error {
	if p.closed.Load() {
		return errors.Errorf("publisher on %q is shut down", p.topic)
	}
	if msg == nil {
		return errors.Errorf("cannot publish a nil message on %q", p.topic)
	}
	if msg.Type() != p.msgType {
		return errors.Errorf("cannot publish %s on %q, it carries %s", msg.Type(), p.topic, p.msgType)
	}
	for _, sub := range p.master.subscribersOf(p) {
		sub.deliver(msg)
	}
	return nil
}

// NumSubscribers returns how many subscribers are connected to the topic.
func (p *Publisher) NumSubscribers() int {
	if p.closed.Load() {
		return 0
	}
	return p.master.numSubscribers(p)
}

// Shutdown unadvertises the publisher. Callbacks already queued are not removed. It is safe to
// call more than once.
func (p *Publisher) Shutdown() {
	if p.closed.Swap(true) {
		return
	}
	p.master.removePublisher(p)
}

func (p *Publisher) notify(cb SubscriberStatusCallback, link SubscriberLink) {
	if cb == nil || p.closed.Load() {
		return
	}
	if p.queue == nil {
		cb(link)
		return
	}
	p.queue.AddCallback(func() { cb(link) })
}
