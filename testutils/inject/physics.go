package inject

import (
	"time"

	"go.viam.com/simsensors/physics"
)

// World is an injected physics world.
type World struct {
	physics.World
	NameFunc    func() string
	SimTimeFunc func() time.Duration
	ModelFunc   func(name string) (physics.Model, bool)
}

// Name calls the injected Name or the real version.
func (w *World) Name() string {
	if w.NameFunc == nil {
		return w.World.Name()
	}
	return w.NameFunc()
}

// SimTime calls the injected SimTime or the real version.
func (w *World) SimTime() time.Duration {
	if w.SimTimeFunc == nil {
		return w.World.SimTime()
	}
	return w.SimTimeFunc()
}

// Model calls the injected Model or the real version.
func (w *World) Model(name string) (physics.Model, bool) {
	if w.ModelFunc == nil {
		return w.World.Model(name)
	}
	return w.ModelFunc(name)
}

// Model is an injected physics model.
type Model struct {
	physics.Model
	NameFunc  func() string
	WorldFunc func() physics.World
	JointFunc func(name string) (physics.Joint, bool)
	LinkFunc  func(name string) (physics.Link, bool)
}

// Name calls the injected Name or the real version.
func (m *Model) Name() string {
	if m.NameFunc == nil {
		return m.Model.Name()
	}
	return m.NameFunc()
}

// World calls the injected World or the real version.
func (m *Model) World() physics.World {
	if m.WorldFunc == nil {
		return m.Model.World()
	}
	return m.WorldFunc()
}

// Joint calls the injected Joint or the real version.
func (m *Model) Joint(name string) (physics.Joint, bool) {
	if m.JointFunc == nil {
		return m.Model.Joint(name)
	}
	return m.JointFunc(name)
}

// Link calls the injected Link or the real version.
func (m *Model) Link(name string) (physics.Link, bool) {
	if m.LinkFunc == nil {
		return m.Model.Link(name)
	}
	return m.LinkFunc(name)
}

// Joint is an injected physics joint.
type Joint struct {
	physics.Joint
	NameFunc        func() string
	ParentFunc      func() physics.Link
	ChildFunc       func() physics.Link
	ForceTorqueFunc func(index uint) physics.JointWrench
}

// Name calls the injected Name or the real version.
func (j *Joint) Name() string {
	if j.NameFunc == nil {
		return j.Joint.Name()
	}
	return j.NameFunc()
}

// Parent calls the injected Parent or the real version.
func (j *Joint) Parent() physics.Link {
	if j.ParentFunc == nil {
		return j.Joint.Parent()
	}
	return j.ParentFunc()
}

// Child calls the injected Child or the real version.
func (j *Joint) Child() physics.Link {
	if j.ChildFunc == nil {
		return j.Joint.Child()
	}
	return j.ChildFunc()
}

// ForceTorque calls the injected ForceTorque or the real version.
func (j *Joint) ForceTorque(index uint) physics.JointWrench {
	if j.ForceTorqueFunc == nil {
		return j.Joint.ForceTorque(index)
	}
	return j.ForceTorqueFunc(index)
}

// Link is an injected physics link.
type Link struct {
	physics.Link
	NameFunc func() string
}

// Name calls the injected Name or the real version.
func (l *Link) Name() string {
	if l.NameFunc == nil {
		return l.Link.Name()
	}
	return l.NameFunc()
}
