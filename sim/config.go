// Package sim runs an in-memory world: it steps the physics clock, fires world events, hosts the
// ROS master and loads the model plugins listed in a world file.
package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/simsensors/logging"
	"go.viam.com/simsensors/physics"
	"go.viam.com/simsensors/resource"
)

// DefaultStepSize is the physics step used when a world file does not set one.
const DefaultStepSize = time.Millisecond

// Config describes a world file.
type Config struct {
	World  WorldConfig                   `json:"world"`
	ROS    *ROSConfig                    `json:"ros,omitempty"`
	Models []ModelConfig                 `json:"models"`
	Log    []logging.LoggerPatternConfig `json:"log,omitempty"`
}

// WorldConfig holds the world wide physics settings.
type WorldConfig struct {
	Name string `json:"name"`
	// StepSizeSec is the sim time advanced per tick.
	StepSizeSec float64 `json:"step_size,omitempty"`
	// RealTimeFactor paces Run against the wall clock. Zero runs as fast as possible.
	RealTimeFactor float64 `json:"real_time_factor,omitempty"`
}

// StepSize returns the configured step as a duration.
func (wc WorldConfig) StepSize() time.Duration {
	if wc.StepSizeSec == 0 {
		return DefaultStepSize
	}
	return time.Duration(math.Round(wc.StepSizeSec * float64(time.Second)))
}

// ROSConfig enables the ROS master. Params seed the parameter server.
type ROSConfig struct {
	Params map[string]interface{} `json:"params,omitempty"`
}

// ModelConfig is a physics model plus the plugins attached to it.
type ModelConfig struct {
	physics.ModelConfig
	Plugins []resource.Config `json:"plugins,omitempty"`
}

// ReadConfig reads a world file, expanding ${VAR} environment references, and validates it.
func ReadConfig(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader decodes and validates a world config. The path is only used in error messages.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse world file %q", originalPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the world, model and plugin sections. Plugin attributes are checked by the
// plugins themselves when they load.
func (cfg *Config) Validate() error {
	if cfg.World.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError("world", "name")
	}
	if cfg.World.StepSizeSec < 0 {
		return goutils.NewConfigValidationError("world", errors.Errorf("step_size must be positive, got %v", cfg.World.StepSizeSec))
	}
	if cfg.World.RealTimeFactor < 0 {
		return goutils.NewConfigValidationError("world", errors.Errorf("real_time_factor must be non-negative, got %v", cfg.World.RealTimeFactor))
	}

	models := map[string]struct{}{}
	pluginNames := map[string]struct{}{}
	for idx, model := range cfg.Models {
		path := fmt.Sprintf("models.%d", idx)
		if err := model.ModelConfig.Validate(); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
		if _, ok := models[model.Name]; ok {
			return goutils.NewConfigValidationError(path, errors.Errorf("duplicate model %q", model.Name))
		}
		models[model.Name] = struct{}{}

		for pIdx := range model.Plugins {
			pluginPath := fmt.Sprintf("%s.plugins.%d", path, pIdx)
			conf := &model.Plugins[pIdx]
			if err := conf.Validate(pluginPath); err != nil {
				return err
			}
			if _, ok := pluginNames[conf.Name]; ok {
				return goutils.NewConfigValidationError(pluginPath, errors.Errorf("duplicate plugin name %q", conf.Name))
			}
			pluginNames[conf.Name] = struct{}{}
		}
	}

	for idx, lpc := range cfg.Log {
		path := fmt.Sprintf("log.%d", idx)
		if err := lpc.Validate(); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	return nil
}

func (cfg *Config) physicsConfig() physics.WorldConfig {
	return physics.WorldConfig{
		Name: cfg.World.Name,
		Models: lo.Map(cfg.Models, func(m ModelConfig, _ int) physics.ModelConfig {
			return m.ModelConfig
		}),
	}
}
