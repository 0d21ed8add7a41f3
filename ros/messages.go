package ros

import (
	"time"

	"github.com/golang/geo/r3"
)

// A Message is a value carried on a topic. Type names the message definition, for example
// "geometry_msgs/WrenchStamped".
type Message interface {
	Type() string
}

// Time is a ROS timestamp split into whole seconds and the remaining nanoseconds.
type Time struct {
	Sec  uint32 `json:"secs"`
	Nsec uint32 `json:"nsecs"`
}

// NewTime splits a duration since the epoch of the clock (sim start for sim time) into a Time.
// Negative durations clamp to zero.
func NewTime(d time.Duration) Time {
	if d < 0 {
		return Time{}
	}
	return Time{
		Sec:  uint32(d / time.Second),
		Nsec: uint32(d % time.Second),
	}
}

// Duration is the inverse of NewTime.
func (t Time) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Nsec)
}

// Header is the standard metadata of stamped messages.
type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 is a free vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewVector3 converts from an r3.Vector.
func NewVector3(v r3.Vector) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// R3 converts to an r3.Vector.
func (v Vector3) R3() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// Wrench is a force and torque pair.
type Wrench struct {
	Force  Vector3 `json:"force"`
	Torque Vector3 `json:"torque"`
}

// WrenchStamped is a Wrench with a header naming the frame it is expressed in.
type WrenchStamped struct {
	Header Header `json:"header"`
	Wrench Wrench `json:"wrench"`
}

// Type implements Message.
func (WrenchStamped) Type() string {
	return "geometry_msgs/WrenchStamped"
}

// String carries a single string.
type String struct {
	Data string `json:"data"`
}

// Type implements Message.
func (String) Type() string {
	return "std_msgs/String"
}
