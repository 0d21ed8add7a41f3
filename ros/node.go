package ros

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/simsensors/logging"
)

// A NodeHandle is a view of the master scoped to a namespace. Relative topic and parameter names
// are resolved under that namespace. Shutting a node down shuts down everything it created.
type NodeHandle struct {
	id        string
	namespace string
	master    *Master
	logger    logging.Logger

	mu          sync.Mutex
	shutdown    bool
	publishers  []*Publisher
	subscribers []*Subscriber
}

// NewNodeHandle creates a node in the given namespace. It fails if the master is not initialized.
func NewNodeHandle(master *Master, namespace string) (*NodeHandle, error) {
	nh := &NodeHandle{
		id:        uuid.NewString(),
		namespace: ResolveName("", namespace),
		master:    master,
		logger:    master.logger,
	}
	if err := master.registerNode(nh); err != nil {
		return nil, err
	}
	return nh, nil
}

// Namespace returns the resolved namespace of the node.
func (nh *NodeHandle) Namespace() string {
	return nh.namespace
}

// ResolveName resolves a name relative to the node's namespace.
func (nh *NodeHandle) ResolveName(name string) string {
	return ResolveName(nh.namespace, name)
}

// OK reports whether the node is usable: it has not been shut down and neither has the master.
func (nh *NodeHandle) OK() bool {
	nh.mu.Lock()
	defer nh.mu.Unlock()
	return !nh.shutdown && nh.master.IsInitialized()
}

// Shutdown shuts down every publisher and subscriber created through the node. It is safe to
// call more than once.
func (nh *NodeHandle) Shutdown() {
	nh.mu.Lock()
	if nh.shutdown {
		nh.mu.Unlock()
		return
	}
	nh.shutdown = true
	pubs, subs := nh.publishers, nh.subscribers
	nh.publishers, nh.subscribers = nil, nil
	nh.mu.Unlock()

	for _, pub := range pubs {
		pub.Shutdown()
	}
	for _, sub := range subs {
		sub.Shutdown()
	}
	nh.master.unregisterNode(nh)
}

// GetParam looks a parameter up relative to the node's namespace.
func (nh *NodeHandle) GetParam(name string) (interface{}, bool) {
	return nh.master.GetParam(nh.ResolveName(name))
}

// GetParamString looks a parameter up and converts it to a string. It reports false if the
// parameter is unset or cannot be represented as a string.
func (nh *NodeHandle) GetParamString(name string) (string, bool) {
	v, ok := nh.GetParam(name)
	if !ok {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		nh.logger.Debugw("parameter is not a string", "param", nh.ResolveName(name), "error", err)
		return "", false
	}
	return s, true
}

// SetParam sets a parameter relative to the node's namespace.
func (nh *NodeHandle) SetParam(name string, value interface{}) {
	nh.master.SetParam(nh.ResolveName(name), value)
}

// Advertise creates a publisher on a topic relative to the node's namespace.
func (nh *NodeHandle) Advertise(opts AdvertiseOptions) (*Publisher, error) {
	if opts.Topic == "" {
		return nil, errors.New("cannot advertise an empty topic name")
	}
	if opts.MessageType == "" {
		return nil, errors.Errorf("cannot advertise %q without a message type", opts.Topic)
	}
	if opts.QueueSize < 0 {
		return nil, errors.Errorf("invalid queue size %d", opts.QueueSize)
	}

	nh.mu.Lock()
	defer nh.mu.Unlock()
	if nh.shutdown || !nh.master.IsInitialized() {
		return nil, errors.Errorf("cannot advertise %q on a node that is shut down", opts.Topic)
	}

	pub := &Publisher{
		topic:      nh.ResolveName(opts.Topic),
		msgType:    opts.MessageType,
		queueSize:  opts.QueueSize,
		connect:    opts.Connect,
		disconnect: opts.Disconnect,
		queue:      opts.CallbackQueue,
		master:     nh.master,
	}
	if err := nh.master.addPublisher(pub); err != nil {
		return nil, err
	}
	nh.publishers = append(nh.publishers, pub)
	return pub, nil
}

// Subscribe creates a subscriber on a topic relative to the node's namespace. At most queueSize
// messages are buffered for cb; when full the oldest is dropped. A queueSize of 0 is unbounded.
func (nh *NodeHandle) Subscribe(topicName string, queueSize int, cb func(Message)) (*Subscriber, error) {
	if topicName == "" {
		return nil, errors.New("cannot subscribe to an empty topic name")
	}
	if cb == nil {
		return nil, errors.Errorf("subscriber to %q needs a callback", topicName)
	}
	if queueSize < 0 {
		return nil, errors.Errorf("invalid queue size %d", queueSize)
	}

	nh.mu.Lock()
	defer nh.mu.Unlock()
	if nh.shutdown || !nh.master.IsInitialized() {
		return nil, errors.Errorf("cannot subscribe to %q on a node that is shut down", topicName)
	}

	sub := newSubscriber(nh.master, nh.ResolveName(topicName), queueSize, cb)
	nh.master.addSubscriber(sub)
	nh.subscribers = append(nh.subscribers, sub)
	return sub, nil
}

// SubscribeTyped subscribes with a callback that only receives messages of type T. Messages of
// any other type are counted as received and skipped.
func SubscribeTyped[T Message](nh *NodeHandle, topicName string, queueSize int, cb func(T)) (*Subscriber, error) {
	if cb == nil {
		return nil, errors.Errorf("subscriber to %q needs a callback", topicName)
	}
	return nh.Subscribe(topicName, queueSize, func(msg Message) {
		if typed, ok := msg.(T); ok {
			cb(typed)
		}
	})
}
