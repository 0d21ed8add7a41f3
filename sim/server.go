package sim

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/simsensors/logging"
	"go.viam.com/simsensors/physics"
	"go.viam.com/simsensors/physics/event"
	"go.viam.com/simsensors/plugin"
	"go.viam.com/simsensors/resource"
	"go.viam.com/simsensors/ros"
)

// ErrClosed is returned when stepping a server that has been closed.
var ErrClosed = errors.New("simulation server is closed")

type loadedPlugin struct {
	model string
	conf  resource.Config
	plugin.ModelPlugin
}

// Server owns a running world and the plugins loaded into it. Step, Reset and Close are
// serialized, so plugin update callbacks always run on one goroutine at a time.
type Server struct {
	logger  logging.Logger
	loggers *logging.Registry
	clock   clock.Clock

	cfg    *Config
	world  *physics.SimWorld
	events *event.Events
	master *ros.Master

	mu         sync.Mutex
	plugins    []loadedPlugin
	iterations uint64
	startTime  time.Time
	closed     bool
}

// New builds the world described by cfg and loads its plugins. A plugin that fails to load is
// logged and left out; the world still runs.
func New(ctx context.Context, cfg *Config, logger logging.Logger) (*Server, error) {
	return NewWithClock(ctx, cfg, clock.New(), logger)
}

// NewWithClock is like New but paces Run against the given clock.
func NewWithClock(ctx context.Context, cfg *Config, clk clock.Clock, logger logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	world, err := physics.NewWorld(cfg.physicsConfig())
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:    logger,
		loggers:   logging.NewRegistry(),
		clock:     clk,
		cfg:       cfg,
		world:     world,
		events:    event.New(),
		startTime: clk.Now(),
	}
	if err := s.loggers.UpdateConfig(cfg.Log, logger); err != nil {
		return nil, err
	}

	if cfg.ROS != nil {
		s.master = ros.NewMaster(s.registerLogger("ros"))
		for name, value := range cfg.ROS.Params {
			s.master.SetParam(name, value)
		}
	}

	for _, modelConf := range cfg.Models {
		model, ok := world.Model(modelConf.Name)
		if !ok {
			return nil, errors.Errorf("model %q missing from world", modelConf.Name)
		}
		host := plugin.Host{Model: model, Events: s.events, ROS: s.master}
		for _, conf := range modelConf.Plugins {
			p, err := plugin.Load(ctx, host, conf, s.registerLogger("plugins."+conf.Name))
			if err != nil {
				logger.Errorw("failed to load plugin", "model", modelConf.Name, "plugin", conf.Name, "error", err)
				continue
			}
			s.plugins = append(s.plugins, loadedPlugin{model: modelConf.Name, conf: conf, ModelPlugin: p})
		}
	}

	logger.Infow("world loaded", "world", world.Name(), "models", len(cfg.Models), "plugins", len(s.plugins))
	return s, nil
}

// registerLogger creates a sublogger and registers it so world file log patterns apply to it.
func (s *Server) registerLogger(name string) logging.Logger {
	sub := s.logger.Sublogger(name)
	return s.loggers.GetOrRegister(sub.Name(), sub)
}

// World returns the simulated world.
func (s *Server) World() *physics.SimWorld {
	return s.world
}

// Events returns the world's event sources.
func (s *Server) Events() *event.Events {
	return s.events
}

// Master returns the ROS master, or nil if the world runs without ROS.
func (s *Server) Master() *ros.Master {
	return s.master
}

// Loggers returns the registry of plugin loggers.
func (s *Server) Loggers() *logging.Registry {
	return s.loggers
}

// Plugins returns the plugins that loaded successfully, in world file order.
func (s *Server) Plugins() []plugin.ModelPlugin {
	s.mu.Lock()
	defer s.mu.Unlock()
	plugins := make([]plugin.ModelPlugin, 0, len(s.plugins))
	for _, p := range s.plugins {
		plugins = append(plugins, p.ModelPlugin)
	}
	return plugins
}

// Plugin looks a loaded plugin up by name.
func (s *Server) Plugin(name resource.Name) (plugin.ModelPlugin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plugins {
		if p.Name() == name {
			return p.ModelPlugin, true
		}
	}
	return nil, false
}

// Iterations returns how many ticks have been simulated.
func (s *Server) Iterations() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

// Step advances the world by one tick and fires the world update event.
func (s *Server) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	simTime := s.world.Step(s.cfg.World.StepSize())
	s.iterations++
	s.events.FireWorldUpdateBegin(event.UpdateInfo{
		WorldName: s.world.Name(),
		SimTime:   simTime,
		RealTime:  s.clock.Since(s.startTime),
	})
	return nil
}

// Reset returns the world clock to zero and resets every plugin that keeps sim time state.
func (s *Server) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.world.Reset()
	s.iterations = 0
	for _, p := range s.plugins {
		if r, ok := p.ModelPlugin.(plugin.Resetter); ok {
			r.Reset()
		}
	}
	return nil
}

// Run steps the world until iterations ticks have run or ctx is done. Zero iterations runs until
// ctx is done. With a positive real time factor each tick is paced to step_size/real_time_factor
// of wall time.
func (s *Server) Run(ctx context.Context, iterations uint64) error {
	var period time.Duration
	if rtf := s.cfg.World.RealTimeFactor; rtf > 0 {
		period = time.Duration(float64(s.cfg.World.StepSize()) / rtf)
	}

	start := s.clock.Now()
	for i := uint64(0); iterations == 0 || i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
		if period == 0 {
			continue
		}
		wait := start.Add(time.Duration(i+1) * period).Sub(s.clock.Now())
		if wait <= 0 {
			continue
		}
		timer := s.clock.Timer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Close unloads every plugin in reverse load order and shuts the ROS master down.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	for i := len(s.plugins) - 1; i >= 0; i-- {
		p := s.plugins[i]
		if closeErr := p.Close(ctx); closeErr != nil {
			err = multierr.Combine(err, errors.Wrapf(closeErr, "error closing plugin %q", p.conf.Name))
		}
	}
	if s.master != nil {
		s.master.Shutdown()
	}
	return err
}
