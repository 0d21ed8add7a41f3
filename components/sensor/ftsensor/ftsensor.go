// Package ftsensor implements a force/torque sensor plugin. Every simulation tick it reads the
// constraint wrench of a joint and, while someone is subscribed, publishes it as a
// geometry_msgs/WrenchStamped on a ROS topic at no more than the configured rate.
//
// The wrench is always reported in the child link frame with a child to parent measure direction.
package ftsensor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/simsensors/components/sensor"
	"go.viam.com/simsensors/logging"
	"go.viam.com/simsensors/physics"
	"go.viam.com/simsensors/physics/event"
	"go.viam.com/simsensors/plugin"
	"go.viam.com/simsensors/resource"
	"go.viam.com/simsensors/ros"
	"go.viam.com/simsensors/ros/tf"
	"go.viam.com/simsensors/utils"
)

// Model is the model name of the force/torque sensor plugin.
var Model = resource.DefaultModelFamily.WithModel("gazebo_ros_ft_sensor")

// queueTimeout bounds how long the queue goroutine waits for a subscriber status callback before
// rechecking the node.
const queueTimeout = 10 * time.Millisecond

func init() {
	plugin.Register(
		sensor.API,
		Model,
		plugin.Registration[sensor.Sensor, *Config]{Constructor: func(
			ctx context.Context,
			host plugin.Host,
			conf resource.Config,
			logger logging.Logger,
		) (sensor.Sensor, error) {
			s, err := NewFTSensor(ctx, host, conf, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}})
}

// Config is used for converting config attributes.
type Config struct {
	RobotNamespace string   `json:"robotNamespace,omitempty"`
	JointName      *string  `json:"jointName"`
	TopicName      string   `json:"topicName"`
	UpdateRate     *float64 `json:"updateRate,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.JointName == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "jointName")
	}
	if cfg.TopicName == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "topicName")
	}
	if cfg.UpdateRate != nil {
		rate := *cfg.UpdateRate
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			return goutils.NewConfigValidationError(path, errors.Errorf("updateRate must be a finite number, got %v", rate))
		}
		if rate < 0 {
			return goutils.NewConfigValidationError(path, errors.Errorf("updateRate must be non-negative, got %v", rate))
		}
	}
	return nil
}

// wrenchPublisher is the part of a ros.Publisher the update loop needs.
type wrenchPublisher interface {
	Publish(msg ros.Message) error
}

// FTSensor publishes the wrench a joint applies to its child link.
type FTSensor struct {
	resource.Named
	logger logging.Logger

	world  physics.World
	joint  physics.Joint
	parent physics.Link
	child  physics.Link

	frameName  string
	topicName  string
	updateRate float64

	events     *event.Events
	updateConn *event.Connection
	node       *ros.NodeHandle
	queue      *ros.CallbackQueue
	pub        wrenchPublisher
	workers    *utils.StoppableWorkers

	connectCount atomic.Int32

	// lastTime is only touched on the simulation goroutine.
	lastTime time.Duration

	mu  sync.Mutex
	msg ros.WrenchStamped

	closeOnce sync.Once
}

// NewFTSensor loads the plugin onto the host's model. Configuration problems are logged and
// returned, in which case nothing has been started.
func NewFTSensor(ctx context.Context, host plugin.Host, conf resource.Config, logger logging.Logger) (*FTSensor, error) {
	newConf, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return nil, err
	}
	if host.Model == nil || host.Events == nil {
		return nil, errors.New("ft_sensor plugin needs a model and world events to attach to")
	}

	namespace := ""
	if newConf.RobotNamespace != "" {
		namespace = newConf.RobotNamespace + "/"
	}

	// a present but empty name falls through to the joint lookup
	if newConf.JointName == nil {
		logger.Error("ft_sensor plugin missing <jointName>, cannot proceed")
		return nil, goutils.NewConfigValidationFieldRequiredError(conf.Name, "jointName")
	}
	joint, ok := host.Model.Joint(*newConf.JointName)
	if !ok {
		msg := fmt.Sprintf("ft_sensor plugin error: jointName: %s does not exist", *newConf.JointName)
		logger.Error(msg)
		return nil, errors.New(msg)
	}

	s := &FTSensor{
		Named:  conf.ResourceName().AsNamed(),
		logger: logger,
		world:  host.Model.World(),
		joint:  joint,
		parent: joint.Parent(),
		child:  joint.Child(),
		events: host.Events,
	}
	s.frameName = s.child.Name()
	logger.Infof("ft_sensor plugin reporting wrench values to the frame [%s]", s.frameName)

	if newConf.TopicName == "" {
		logger.Error("ft_sensor plugin missing <topicName>, cannot proceed")
		return nil, goutils.NewConfigValidationFieldRequiredError(conf.Name, "topicName")
	}
	s.topicName = newConf.TopicName

	if newConf.UpdateRate == nil {
		logger.Debug("ft_sensor plugin missing <updateRate>, defaults to 0.0 (as fast as possible)")
	} else {
		s.updateRate = *newConf.UpdateRate
	}
	if err := newConf.Validate(conf.Name); err != nil {
		logger.Errorw("ft_sensor plugin has an invalid config, cannot proceed", "error", err)
		return nil, err
	}

	if host.ROS == nil || !host.ROS.IsInitialized() {
		logger.Error("a ROS node for the simulator has not been initialized, unable to load plugin")
		return nil, ros.ErrNotInitialized
	}
	s.node, err = ros.NewNodeHandle(host.ROS, namespace)
	if err != nil {
		return nil, err
	}

	prefix, _ := s.node.GetParamString("tf_prefix")
	s.frameName = tf.Resolve(prefix, s.frameName)

	s.queue = ros.NewCallbackQueue()
	pub, err := s.node.Advertise(ros.AdvertiseOptions{
		Topic:         s.topicName,
		MessageType:   ros.WrenchStamped{}.Type(),
		QueueSize:     1,
		Connect:       s.ftConnect,
		Disconnect:    s.ftDisconnect,
		CallbackQueue: s.queue,
	})
	if err != nil {
		s.node.Shutdown()
		return nil, errors.Wrapf(err, "ft_sensor plugin cannot advertise %q", s.topicName)
	}
	s.pub = pub

	s.workers = utils.NewStoppableWorkers(s.queueThread)
	s.updateConn = s.events.ConnectWorldUpdateBegin(s.updateChild)
	return s, nil
}

// FrameName returns the frame id stamped on published messages.
func (s *FTSensor) FrameName() string {
	return s.frameName
}

// Topic returns the resolved topic the wrench is published on.
func (s *FTSensor) Topic() string {
	return s.node.ResolveName(s.topicName)
}

// UpdateRate returns the maximum publish rate in Hz. Zero means every tick.
func (s *FTSensor) UpdateRate() float64 {
	return s.updateRate
}

// NumSubscribers returns the number of connected subscribers the plugin has been told about.
func (s *FTSensor) NumSubscribers() int {
	return int(s.connectCount.Load())
}

func (s *FTSensor) ftConnect(ros.SubscriberLink) {
	s.connectCount.Inc()
}

func (s *FTSensor) ftDisconnect(ros.SubscriberLink) {
	s.connectCount.Dec()
}

// updateChild runs on the simulation goroutine at the start of every tick.
func (s *FTSensor) updateChild(event.UpdateInfo) {
	curTime := s.world.SimTime()

	if s.updateRate > 0 && (curTime-s.lastTime).Seconds() < 1.0/s.updateRate {
		return
	}
	if s.connectCount.Load() == 0 {
		return
	}

	wrench := s.joint.ForceTorque(0)
	force := wrench.Body2Force
	torque := wrench.Body2Torque

	s.mu.Lock()
	s.msg.Header.Seq++
	s.msg.Header.FrameID = s.frameName
	s.msg.Header.Stamp = ros.NewTime(curTime)
	s.msg.Wrench.Force = ros.NewVector3(force)
	s.msg.Wrench.Torque = ros.NewVector3(torque)
	err := s.pub.Publish(s.msg)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warnw("failed to publish wrench", "topic", s.topicName, "error", err)
		return
	}

	s.lastTime = curTime
}

// Reset forgets the last publish time. The host calls it on the simulation goroutine after
// resetting the world clock.
func (s *FTSensor) Reset() {
	s.lastTime = 0
}

func (s *FTSensor) queueThread(ctx context.Context) {
	for ctx.Err() == nil && s.node.OK() {
		s.queue.CallAvailable(queueTimeout)
	}
}

// Readings returns the wrench the joint currently applies to the child link.
func (s *FTSensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	wrench := s.joint.ForceTorque(0)
	return map[string]interface{}{
		"force":  wrench.Body2Force,
		"torque": wrench.Body2Torque,
		"frame":  s.frameName,
	}, nil
}

// Close unloads the plugin: it stops the update callback, clears and disables the callback queue,
// shuts the node down and waits for the queue goroutine.
func (s *FTSensor) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.events.DisconnectWorldUpdateBegin(s.updateConn)
		s.queue.Clear()
		s.queue.Disable()
		s.node.Shutdown()
		s.workers.Stop()
	})
	return nil
}
