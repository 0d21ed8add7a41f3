// Package physics defines the simulation capabilities a model plugin is loaded against (world,
// model, joint and link accessors plus the simulation clock) and an in-memory world that
// implements them.
package physics

import (
	"time"

	"github.com/golang/geo/r3"
)

// A World is a running simulation.
type World interface {
	Name() string
	// SimTime is the simulated time elapsed since the world started or was last reset.
	SimTime() time.Duration
	Model(name string) (Model, bool)
}

// A Model is a named collection of links connected by joints.
type Model interface {
	Name() string
	World() World
	Joint(name string) (Joint, bool)
	Link(name string) (Link, bool)
}

// A Joint constrains a child link relative to its parent link.
type Joint interface {
	Name() string
	Parent() Link
	Child() Link
	// ForceTorque returns the constraint wrench on the given axis for the current tick.
	ForceTorque(index uint) JointWrench
}

// A Link is a rigid body.
type Link interface {
	Name() string
}

// JointWrench is the force and torque a joint applies to the two bodies it connects. Body1 is
// the parent link and Body2 the child link; each pair is expressed in that body's frame.
type JointWrench struct {
	Body1Force  r3.Vector
	Body1Torque r3.Vector
	Body2Force  r3.Vector
	Body2Torque r3.Vector
}
