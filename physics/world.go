package physics

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// WorldConfig describes an in-memory world.
type WorldConfig struct {
	Name   string        `json:"name"`
	Models []ModelConfig `json:"models"`
}

// ModelConfig describes a model. Links named by joints are created implicitly.
type ModelConfig struct {
	Name   string        `json:"name"`
	Links  []string      `json:"links,omitempty"`
	Joints []JointConfig `json:"joints,omitempty"`
}

// JointConfig describes a joint between two links and the wrench it reports.
type JointConfig struct {
	Name   string         `json:"name"`
	Parent string         `json:"parent"`
	Child  string         `json:"child"`
	Wrench *WrenchProfile `json:"wrench,omitempty"`
}

// WrenchProfile scripts the wrench a joint applies to its child link as a function of sim time:
// a constant offset plus a sinusoid of the given amplitude and frequency. The parent link sees the
// opposite wrench.
type WrenchProfile struct {
	Force           r3.Vector `json:"force"`
	Torque          r3.Vector `json:"torque"`
	ForceAmplitude  r3.Vector `json:"force_amplitude"`
	TorqueAmplitude r3.Vector `json:"torque_amplitude"`
	FrequencyHz     float64   `json:"frequency_hz"`
}

// At evaluates the profile at sim time t.
func (p WrenchProfile) At(t time.Duration) JointWrench {
	s := math.Sin(2 * math.Pi * p.FrequencyHz * t.Seconds())
	force := p.Force.Add(p.ForceAmplitude.Mul(s))
	torque := p.Torque.Add(p.TorqueAmplitude.Mul(s))
	return JointWrench{
		Body1Force:  force.Mul(-1),
		Body1Torque: torque.Mul(-1),
		Body2Force:  force,
		Body2Torque: torque,
	}
}

// Validate ensures names are present and unique and that joints connect two distinct links.
func (conf *ModelConfig) Validate() error {
	if conf.Name == "" {
		return errors.New("model name is required")
	}
	seen := map[string]struct{}{}
	for idx, joint := range conf.Joints {
		if joint.Name == "" {
			return errors.Errorf("model %q joint %d: name is required", conf.Name, idx)
		}
		if _, ok := seen[joint.Name]; ok {
			return errors.Errorf("model %q: duplicate joint %q", conf.Name, joint.Name)
		}
		seen[joint.Name] = struct{}{}
		if joint.Parent == "" || joint.Child == "" {
			return errors.Errorf("model %q joint %q: parent and child links are required", conf.Name, joint.Name)
		}
		if joint.Parent == joint.Child {
			return errors.Errorf("model %q joint %q: parent and child must differ", conf.Name, joint.Name)
		}
	}
	return nil
}

// SimWorld is an in-memory World whose joints report scripted wrenches. Time only advances
// through Step, which keeps tests deterministic. All accessors are safe for concurrent use.
type SimWorld struct {
	mu      sync.RWMutex
	name    string
	simTime time.Duration
	models  map[string]*SimModel
}

// NewWorld builds a world from its config.
func NewWorld(conf WorldConfig) (*SimWorld, error) {
	w := &SimWorld{name: conf.Name, models: map[string]*SimModel{}}
	for _, modelConf := range conf.Models {
		if _, err := w.AddModel(modelConf); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// AddModel validates and inserts a model into the world.
func (w *SimWorld) AddModel(conf ModelConfig) (*SimModel, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.models[conf.Name]; ok {
		return nil, errors.Errorf("duplicate model %q", conf.Name)
	}

	m := &SimModel{name: conf.Name, world: w, links: map[string]*simLink{}, joints: map[string]*SimJoint{}}
	for _, linkName := range conf.Links {
		m.link(linkName)
	}
	for _, jointConf := range conf.Joints {
		j := &SimJoint{
			name:   jointConf.Name,
			world:  w,
			parent: m.link(jointConf.Parent),
			child:  m.link(jointConf.Child),
		}
		if jointConf.Wrench != nil {
			j.profile = *jointConf.Wrench
		}
		m.joints[j.name] = j
	}
	w.models[m.name] = m
	return m, nil
}

// Name returns the world name.
func (w *SimWorld) Name() string {
	return w.name
}

// SimTime returns the simulated time.
func (w *SimWorld) SimTime() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.simTime
}

// Model looks a model up by name.
func (w *SimWorld) Model(name string) (Model, bool) {
	m, ok := w.SimModel(name)
	if !ok {
		return nil, false
	}
	return m, true
}

// SimModel looks up the concrete model by name.
func (w *SimWorld) SimModel(name string) (*SimModel, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	m, ok := w.models[name]
	return m, ok
}

// Step advances sim time by dt and returns the new sim time.
func (w *SimWorld) Step(dt time.Duration) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.simTime += dt
	return w.simTime
}

// Reset returns sim time to zero.
func (w *SimWorld) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.simTime = 0
}

// SimModel is the in-memory Model.
type SimModel struct {
	name   string
	world  *SimWorld
	links  map[string]*simLink
	joints map[string]*SimJoint
}

// link returns the named link, creating it. Only called while the model is being built.
func (m *SimModel) link(name string) *simLink {
	if l, ok := m.links[name]; ok {
		return l
	}
	l := &simLink{name: name}
	m.links[name] = l
	return l
}

// Name returns the model name.
func (m *SimModel) Name() string {
	return m.name
}

// World returns the world the model lives in.
func (m *SimModel) World() World {
	return m.world
}

// Joint looks a joint up by name.
func (m *SimModel) Joint(name string) (Joint, bool) {
	j, ok := m.joints[name]
	if !ok {
		return nil, false
	}
	return j, true
}

// SimJoint looks up the concrete joint by name.
func (m *SimModel) SimJoint(name string) (*SimJoint, bool) {
	j, ok := m.joints[name]
	return j, ok
}

// Link looks a link up by name.
func (m *SimModel) Link(name string) (Link, bool) {
	l, ok := m.links[name]
	if !ok {
		return nil, false
	}
	return l, true
}

// SimJoint is the in-memory Joint.
type SimJoint struct {
	name   string
	world  *SimWorld
	parent *simLink
	child  *simLink

	mu       sync.Mutex
	profile  WrenchProfile
	override *JointWrench
}

// Name returns the joint name.
func (j *SimJoint) Name() string {
	return j.name
}

// Parent returns the parent link.
func (j *SimJoint) Parent() Link {
	return j.parent
}

// Child returns the child link.
func (j *SimJoint) Child() Link {
	return j.child
}

// ForceTorque returns the wrench set with SetWrench, or the profile evaluated at the current sim
// time. Simulated joints have a single axis so index is ignored.
func (j *SimJoint) ForceTorque(index uint) JointWrench {
	j.mu.Lock()
	override, profile := j.override, j.profile
	j.mu.Unlock()
	if override != nil {
		return *override
	}
	return profile.At(j.world.SimTime())
}

// SetWrench pins the wrench the joint reports until ClearWrench is called.
func (j *SimJoint) SetWrench(wrench JointWrench) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.override = &wrench
}

// ClearWrench returns the joint to its scripted profile.
func (j *SimJoint) ClearWrench() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.override = nil
}

// SetProfile replaces the scripted profile.
func (j *SimJoint) SetProfile(profile WrenchProfile) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.profile = profile
}

type simLink struct {
	name string
}

func (l *simLink) Name() string {
	return l.name
}
