// Package plugin defines how model plugins are registered with and loaded by the simulator.
package plugin

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/simsensors/logging"
	"go.viam.com/simsensors/physics"
	"go.viam.com/simsensors/physics/event"
	"go.viam.com/simsensors/resource"
	"go.viam.com/simsensors/ros"
	"go.viam.com/simsensors/utils"
)

// Host is everything the simulator hands a model plugin when loading it.
type Host struct {
	// Model is the model the plugin is attached to. Model.World() is the running world.
	Model physics.Model
	// Events are the world's event sources.
	Events *event.Events
	// ROS is the messaging runtime. It is nil when the world runs without one.
	ROS *ros.Master
}

// A ModelPlugin is a plugin instance attached to a model. Close unloads it.
type ModelPlugin interface {
	resource.Resource
}

// A Resetter is a plugin that keeps sim time state and must forget it when the world is reset.
type Resetter interface {
	Reset()
}

type (
	// A Create loads a plugin instance onto the host's model.
	Create[PluginT ModelPlugin] func(
		ctx context.Context,
		host Host,
		conf resource.Config,
		logger logging.Logger,
	) (PluginT, error)

	// An AttributeMapConverter converts an attribute map into a native config type for a plugin.
	AttributeMapConverter[ConfigT any] func(attributes utils.AttributeMap) (ConfigT, error)
)

// A Registration stores construction info for a plugin model. A constructor is mandatory.
type Registration[PluginT ModelPlugin, ConfigT resource.ConfigValidator] struct {
	Constructor Create[PluginT]

	// AttributeMapConverter is used to convert raw attributes to the plugin's native config.
	AttributeMapConverter AttributeMapConverter[ConfigT]

	api resource.API
}

// API returns the API the model was registered under.
func (r Registration[PluginT, ConfigT]) API() resource.API {
	return r.api
}

var noNativeConfigType = reflect.TypeOf(resource.NoNativeConfig{})

var (
	registryMu sync.RWMutex
	registry   = map[resource.Model]Registration[ModelPlugin, resource.ConfigValidator]{}
)

// Register registers a plugin model and its construction info. Models are unique across APIs.
func Register[PluginT ModelPlugin, ConfigT resource.ConfigValidator](
	api resource.API,
	model resource.Model,
	reg Registration[PluginT, ConfigT],
) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, old := registry[model]; old {
		panic(errors.Errorf("trying to register two plugins with same model: %q", model))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for api: %q, model: %q", api, model))
	}
	if reg.AttributeMapConverter == nil {
		var zero ConfigT
		if zeroT := reflect.TypeOf(zero); zeroT != nil && zeroT != noNativeConfigType {
			// provide one for free
			reg.AttributeMapConverter = resource.TransformAttributeMap[ConfigT]
		}
	}
	reg.api = api
	registry[model] = makeGenericRegistration(reg)
}

func makeGenericRegistration[PluginT ModelPlugin, ConfigT resource.ConfigValidator](
	typed Registration[PluginT, ConfigT],
) Registration[ModelPlugin, resource.ConfigValidator] {
	reg := Registration[ModelPlugin, resource.ConfigValidator]{
		api: typed.api,
		Constructor: func(
			ctx context.Context,
			host Host,
			conf resource.Config,
			logger logging.Logger,
		) (ModelPlugin, error) {
			p, err := typed.Constructor(ctx, host, conf, logger)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
	if typed.AttributeMapConverter != nil {
		reg.AttributeMapConverter = func(attributes utils.AttributeMap) (resource.ConfigValidator, error) {
			conf, err := typed.AttributeMapConverter(attributes)
			if err != nil {
				return nil, err
			}
			return conf, nil
		}
	}
	return reg
}

// Deregister removes a previously registered plugin model.
func Deregister(model resource.Model) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, model)
}

// Lookup finds the registration of a plugin model.
func Lookup(model resource.Model) (Registration[ModelPlugin, resource.ConfigValidator], bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[model]
	return reg, ok
}

// RegisteredModels lists every registered model sorted by name.
func RegisteredModels() []resource.Model {
	registryMu.RLock()
	models := lo.Keys(registry)
	registryMu.RUnlock()

	slices.SortFunc(models, func(a, b resource.Model) int {
		return strings.Compare(a.String(), b.String())
	})
	return models
}

// Load converts the config's attributes and constructs the plugin registered for its model.
func Load(ctx context.Context, host Host, conf resource.Config, logger logging.Logger) (ModelPlugin, error) {
	reg, ok := Lookup(conf.Model)
	if !ok {
		return nil, errors.Errorf("no plugin registered for model %q", conf.Model)
	}
	conf.API = reg.API()
	if reg.AttributeMapConverter != nil && conf.ConvertedAttributes == nil {
		converted, err := reg.AttributeMapConverter(conf.Attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "error converting attributes of %q", conf.Name)
		}
		conf.ConvertedAttributes = converted
	}
	return reg.Constructor(ctx, host, conf, logger)
}
