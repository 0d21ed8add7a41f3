package ros

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/simsensors/logging"
)

type messageRecorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *messageRecorder) record(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *messageRecorder) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

func TestParams(t *testing.T) {
	m := NewMaster(logging.NewTestLogger(t))
	defer m.Shutdown()

	m.SetParam("robot/tf_prefix", "left")
	v, ok := m.GetParam("/robot/tf_prefix")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, "left")
	test.That(t, m.HasParam("/tf_prefix"), test.ShouldBeFalse)

	nh, err := NewNodeHandle(m, "robot/")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nh.Namespace(), test.ShouldEqual, "/robot")

	s, ok := nh.GetParamString("tf_prefix")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, s, test.ShouldEqual, "left")

	nh.SetParam("rate", 12.5)
	test.That(t, m.HasParam("/robot/rate"), test.ShouldBeTrue)
	s, ok = nh.GetParamString("rate")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, s, test.ShouldEqual, "12.5")

	nh.SetParam("bad", []int{1})
	_, ok = nh.GetParamString("bad")
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = nh.GetParamString("missing")
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, m.DeleteParam("/robot/rate"), test.ShouldBeTrue)
	test.That(t, m.DeleteParam("/robot/rate"), test.ShouldBeFalse)
}

func TestPublishSubscribe(t *testing.T) {
	m := NewMaster(logging.NewTestLogger(t))
	defer m.Shutdown()

	pubNode, err := NewNodeHandle(m, "robot")
	test.That(t, err, test.ShouldBeNil)
	subNode, err := NewNodeHandle(m, "")
	test.That(t, err, test.ShouldBeNil)

	pub, err := pubNode.Advertise(AdvertiseOptions{Topic: "ft", MessageType: WrenchStamped{}.Type(), QueueSize: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pub.Topic(), test.ShouldEqual, "/robot/ft")
	test.That(t, pub.QueueSize(), test.ShouldEqual, 1)
	test.That(t, pub.NumSubscribers(), test.ShouldEqual, 0)

	// nobody is listening yet
	test.That(t, pub.Publish(WrenchStamped{}), test.ShouldBeNil)

	var rec messageRecorder
	sub, err := subNode.Subscribe("/robot/ft", 10, rec.record)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sub.Topic(), test.ShouldEqual, "/robot/ft")
	test.That(t, pub.NumSubscribers(), test.ShouldEqual, 1)

	sent := WrenchStamped{
		Header: Header{Seq: 1, Stamp: Time{Sec: 2, Nsec: 3}, FrameID: "hand"},
		Wrench: Wrench{Force: Vector3{X: 1}, Torque: Vector3{Z: -1}},
	}
	test.That(t, pub.Publish(sent), test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, sub.Received(), test.ShouldEqual, uint64(1))
	})
	if diff := cmp.Diff([]Message{sent}, rec.messages()); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}

	t.Run("type mismatch", func(t *testing.T) {
		err := pub.Publish(String{Data: "hi"})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "cannot publish std_msgs/String")

		_, err = subNode.Advertise(AdvertiseOptions{Topic: "/robot/ft", MessageType: String{}.Type()})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "already advertised as geometry_msgs/WrenchStamped")

		test.That(t, pub.Publish(nil), test.ShouldNotBeNil)
	})

	t.Run("topics", func(t *testing.T) {
		_, err := subNode.Subscribe("chatter", 1, func(Message) {})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Topics(), test.ShouldResemble, []TopicInfo{
			{Name: "/chatter", NumSubscribers: 1},
			{Name: "/robot/ft", Type: "geometry_msgs/WrenchStamped", NumPublishers: 1, NumSubscribers: 1},
		})
	})

	sub.Shutdown()
	sub.Shutdown()
	test.That(t, pub.NumSubscribers(), test.ShouldEqual, 0)

	pub.Shutdown()
	test.That(t, pub.Publish(WrenchStamped{}), test.ShouldNotBeNil)
	test.That(t, pub.NumSubscribers(), test.ShouldEqual, 0)
	test.That(t, m.Topics(), test.ShouldResemble, []TopicInfo{{Name: "/chatter", NumSubscribers: 1}})
}

func TestSubscriberDropsOldest(t *testing.T) {
	m := NewMaster(logging.NewTestLogger(t))
	defer m.Shutdown()
	nh, err := NewNodeHandle(m, "")
	test.That(t, err, test.ShouldBeNil)

	pub, err := nh.Advertise(AdvertiseOptions{Topic: "chatter", MessageType: String{}.Type()})
	test.That(t, err, test.ShouldBeNil)

	block := make(chan struct{})
	var rec messageRecorder
	sub, err := SubscribeTyped(nh, "chatter", 2, func(msg String) {
		if msg.Data == "first" {
			<-block
		}
		rec.record(msg)
	})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, pub.Publish(String{Data: "first"}), test.ShouldBeNil)
	// wait until the subscriber goroutine is parked inside the callback
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		sub.mu.Lock()
		defer sub.mu.Unlock()
		test.That(tb, sub.pending, test.ShouldBeEmpty)
	})
	for _, data := range []string{"a", "b", "c", "d"} {
		test.That(t, pub.Publish(String{Data: data}), test.ShouldBeNil)
	}
	test.That(t, sub.Dropped(), test.ShouldEqual, uint64(2))
	close(block)

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, rec.messages(), test.ShouldResemble, []Message{
			String{Data: "first"}, String{Data: "c"}, String{Data: "d"},
		})
	})
}

func TestSubscriberStatusCallbacks(t *testing.T) {
	m := NewMaster(logging.NewTestLogger(t))
	defer m.Shutdown()
	nh, err := NewNodeHandle(m, "")
	test.That(t, err, test.ShouldBeNil)

	// subscriber before the publisher
	early, err := nh.Subscribe("ft", 1, func(Message) {})
	test.That(t, err, test.ShouldBeNil)

	var events []SubscriberLink
	var kinds []string
	queue := NewCallbackQueue()
	pub, err := nh.Advertise(AdvertiseOptions{
		Topic:         "ft",
		MessageType:   WrenchStamped{}.Type(),
		QueueSize:     1,
		Connect:       func(link SubscriberLink) { kinds = append(kinds, "connect"); events = append(events, link) },
		Disconnect:    func(link SubscriberLink) { kinds = append(kinds, "disconnect"); events = append(events, link) },
		CallbackQueue: queue,
	})
	test.That(t, err, test.ShouldBeNil)

	late, err := nh.Subscribe("ft", 1, func(Message) {})
	test.That(t, err, test.ShouldBeNil)
	late.Shutdown()

	// nothing runs until the queue is serviced
	test.That(t, kinds, test.ShouldBeEmpty)
	test.That(t, queue.CallAvailable(0), test.ShouldEqual, 3)
	test.That(t, kinds, test.ShouldResemble, []string{"connect", "connect", "disconnect"})
	test.That(t, events, test.ShouldResemble, []SubscriberLink{
		{Topic: "/ft", SubscriberID: early.ID()},
		{Topic: "/ft", SubscriberID: late.ID()},
		{Topic: "/ft", SubscriberID: late.ID()},
	})

	t.Run("without a queue callbacks run inline", func(t *testing.T) {
		count := 0
		inline, err := nh.Advertise(AdvertiseOptions{
			Topic:       "ft",
			MessageType: WrenchStamped{}.Type(),
			Connect:     func(SubscriberLink) { count++ },
			Disconnect:  func(SubscriberLink) { count-- },
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, count, test.ShouldEqual, 1)
		early.Shutdown()
		test.That(t, count, test.ShouldEqual, 0)
		inline.Shutdown()
	})

	t.Run("shut down publishers are not notified", func(t *testing.T) {
		queue.Clear()
		pub.Shutdown()
		sub, err := nh.Subscribe("ft", 1, func(Message) {})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, queue.IsEmpty(), test.ShouldBeTrue)
		sub.Shutdown()
	})
}

func TestShutdown(t *testing.T) {
	m := NewMaster(logging.NewTestLogger(t))
	test.That(t, m.IsInitialized(), test.ShouldBeTrue)

	nh, err := NewNodeHandle(m, "robot")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, nh.OK(), test.ShouldBeTrue)

	pub, err := nh.Advertise(AdvertiseOptions{Topic: "ft", MessageType: WrenchStamped{}.Type()})
	test.That(t, err, test.ShouldBeNil)
	_, err = nh.Subscribe("ft", 1, func(Message) {})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pub.NumSubscribers(), test.ShouldEqual, 1)

	t.Run("node", func(t *testing.T) {
		other, err := NewNodeHandle(m, "")
		test.That(t, err, test.ShouldBeNil)
		other.Shutdown()
		other.Shutdown()
		test.That(t, other.OK(), test.ShouldBeFalse)
		_, err = other.Advertise(AdvertiseOptions{Topic: "x", MessageType: String{}.Type()})
		test.That(t, err, test.ShouldNotBeNil)
		_, err = other.Subscribe("x", 1, func(Message) {})
		test.That(t, err, test.ShouldNotBeNil)
	})

	m.Shutdown()
	m.Shutdown()
	test.That(t, m.IsInitialized(), test.ShouldBeFalse)
	test.That(t, nh.OK(), test.ShouldBeFalse)
	test.That(t, pub.NumSubscribers(), test.ShouldEqual, 0)
	test.That(t, m.Topics(), test.ShouldBeEmpty)

	_, err = NewNodeHandle(m, "robot")
	test.That(t, err, test.ShouldEqual, ErrNotInitialized)
}

func TestAdvertiseValidation(t *testing.T) {
	m := NewMaster(logging.NewTestLogger(t))
	defer m.Shutdown()
	nh, err := NewNodeHandle(m, "")
	test.That(t, err, test.ShouldBeNil)

	_, err = nh.Advertise(AdvertiseOptions{MessageType: String{}.Type()})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = nh.Advertise(AdvertiseOptions{Topic: "x"})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = nh.Advertise(AdvertiseOptions{Topic: "x", MessageType: String{}.Type(), QueueSize: -1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = nh.Subscribe("", 1, func(Message) {})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = nh.Subscribe("x", 1, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = SubscribeTyped[String](nh, "x", 1, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = nh.Subscribe("x", -1, func(Message) {})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSubscriberIgnoresMessagesAfterShutdown(t *testing.T) {
	m := NewMaster(logging.NewTestLogger(t))
	defer m.Shutdown()
	nh, err := NewNodeHandle(m, "")
	test.That(t, err, test.ShouldBeNil)

	var rec messageRecorder
	sub, err := nh.Subscribe("chatter", 0, rec.record)
	test.That(t, err, test.ShouldBeNil)
	sub.Shutdown()
	sub.deliver(String{Data: "late"})
	time.Sleep(10 * time.Millisecond)
	test.That(t, rec.messages(), test.ShouldBeEmpty)
}
