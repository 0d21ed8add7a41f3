// Package ros is an in-process ROS graph: a master holding the parameter server and topic
// registry, node handles scoped to a namespace, publishers and subscribers, and the callback
// queues that subscriber-status callbacks are delivered through.
package ros

import (
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"

	"go.viam.com/simsensors/logging"
)

// ErrNotInitialized is returned when creating nodes on a master that has been shut down.
var ErrNotInitialized = errors.New("ros master is not initialized")

// Master is the in-process ROS graph shared by every node of a simulation.
type Master struct {
	logger      logging.Logger
	initialized atomic.Bool

	mu     sync.Mutex
	params map[string]interface{}
	topics map[string]*topic
	nodes  map[string]*NodeHandle
}

type topic struct {
	name        string
	msgType     string
	publishers  []*Publisher
	subscribers []*Subscriber
}

// TopicInfo describes a topic that has at least one publisher or subscriber.
type TopicInfo struct {
	Name           string
	Type           string
	NumPublishers  int
	NumSubscribers int
}

// NewMaster returns an initialized master.
func NewMaster(logger logging.Logger) *Master {
	m := &Master{
		logger: logger,
		params: map[string]interface{}{},
		topics: map[string]*topic{},
		nodes:  map[string]*NodeHandle{},
	}
	m.initialized.Store(true)
	return m
}

// IsInitialized reports whether the master is running.
func (m *Master) IsInitialized() bool {
	return m.initialized.Load()
}

// Shutdown stops the master and every node created on it. It is safe to call more than once.
func (m *Master) Shutdown() {
	if !m.initialized.Swap(false) {
		return
	}
	m.mu.Lock()
	nodes := lo.Values(m.nodes)
	m.mu.Unlock()

	for _, nh := range nodes {
		nh.Shutdown()
	}
	m.logger.Debug("ros master shut down")
}

// SetParam sets a parameter. Relative names are resolved against the root namespace.
func (m *Master) SetParam(name string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params[ResolveName("", name)] = value
}

// GetParam returns a parameter and whether it is set.
func (m *Master) GetParam(name string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.params[ResolveName("", name)]
	return v, ok
}

// HasParam reports whether a parameter is set.
func (m *Master) HasParam(name string) bool {
	_, ok := m.GetParam(name)
	return ok
}

// DeleteParam removes a parameter and reports whether it was set.
func (m *Master) DeleteParam(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved := ResolveName("", name)
	_, ok := m.params[resolved]
	delete(m.params, resolved)
	return ok
}

// Topics lists the active topics sorted by name.
func (m *Master) Topics() []TopicInfo {
	m.mu.Lock()
	infos := lo.MapToSlice(m.topics, func(_ string, t *topic) TopicInfo {
		return TopicInfo{
			Name:           t.name,
			Type:           t.msgType,
			NumPublishers:  len(t.publishers),
			NumSubscribers: len(t.subscribers),
		}
	})
	m.mu.Unlock()

	slices.SortFunc(infos, func(a, b TopicInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

func (m *Master) registerNode(nh *NodeHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.IsInitialized() {
		return ErrNotInitialized
	}
	m.nodes[nh.id] = nh
	return nil
}

func (m *Master) unregisterNode(nh *NodeHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, nh.id)
}

// topicLocked returns the named topic, creating it. Must hold m.mu.
func (m *Master) topicLocked(name string) *topic {
	t, ok := m.topics[name]
	if !ok {
		t = &topic{name: name}
		m.topics[name] = t
	}
	return t
}

// pruneLocked forgets a topic nothing refers to anymore. Must hold m.mu.
func (m *Master) pruneLocked(t *topic) {
	if len(t.publishers) == 0 && len(t.subscribers) == 0 {
		delete(m.topics, t.name)
	}
}

func (m *Master) addPublisher(pub *Publisher) error {
	m.mu.Lock()
	t := m.topicLocked(pub.topic)
	if len(t.publishers) > 0 && t.msgType != pub.msgType {
		m.mu.Unlock()
		return errors.Errorf("topic %q is already advertised as %s, cannot advertise %s", pub.topic, t.msgType, pub.msgType)
	}
	t.msgType = pub.msgType
	t.publishers = append(t.publishers, pub)
	pub.t = t
	links := lo.Map(t.subscribers, func(sub *Subscriber, _ int) SubscriberLink {
		return SubscriberLink{Topic: t.name, SubscriberID: sub.id}
	})
	m.mu.Unlock()

	m.logger.Debugw("advertised topic", "topic", pub.topic, "type", pub.msgType)
	for _, link := range links {
		pub.notify(pub.connect, link)
	}
	return nil
}

func (m *Master) removePublisher(pub *Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[pub.topic]
	if !ok {
		return
	}
	t.publishers = lo.Without(t.publishers, pub)
	if len(t.publishers) == 0 {
		t.msgType = ""
	}
	pub.t = nil
	m.pruneLocked(t)
}

func (m *Master) addSubscriber(sub *Subscriber) {
	m.mu.Lock()
	t := m.topicLocked(sub.topic)
	t.subscribers = append(t.subscribers, sub)
	pubs := slices.Clone(t.publishers)
	m.mu.Unlock()

	m.logger.Debugw("subscribed to topic", "topic", sub.topic, "subscriber", sub.id)
	link := SubscriberLink{Topic: sub.topic, SubscriberID: sub.id}
	for _, pub := range pubs {
		pub.notify(pub.connect, link)
	}
}

func (m *Master) removeSubscriber(sub *Subscriber) {
	m.mu.Lock()
	t, ok := m.topics[sub.topic]
	if !ok {
		m.mu.Unlock()
		return
	}
	t.subscribers = lo.Without(t.subscribers, sub)
	pubs := slices.Clone(t.publishers)
	m.pruneLocked(t)
	m.mu.Unlock()

	link := SubscriberLink{Topic: sub.topic, SubscriberID: sub.id}
	for _, pub := range pubs {
		pub.notify(pub.disconnect, link)
	}
}

// subscribersOf snapshots the subscribers of the publisher's topic.
func (m *Master) subscribersOf(pub *Publisher) []*Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pub.t == nil {
		return nil
	}
	return slices.Clone(pub.t.subscribers)
}

func (m *Master) numSubscribers(pub *Publisher) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pub.t == nil {
		return 0
	}
	return len(pub.t.subscribers)
}
