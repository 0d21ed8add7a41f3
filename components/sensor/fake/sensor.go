// Package fake implements a fake Sensor that reports the state of the world it is attached to.
package fake

import (
	"context"

	"go.viam.com/simsensors/components/sensor"
	"go.viam.com/simsensors/logging"
	"go.viam.com/simsensors/physics"
	"go.viam.com/simsensors/plugin"
	"go.viam.com/simsensors/resource"
)

// Model is the model name of the fake sensor.
var Model = resource.DefaultModelFamily.WithModel("fake")

func init() {
	plugin.Register(
		sensor.API,
		Model,
		plugin.Registration[sensor.Sensor, resource.NoNativeConfig]{Constructor: func(
			ctx context.Context,
			host plugin.Host,
			conf resource.Config,
			logger logging.Logger,
		) (sensor.Sensor, error) {
			return newSensor(conf.ResourceName(), host.Model), nil
		}})
}

func newSensor(name resource.Name, model physics.Model) sensor.Sensor {
	return &Sensor{
		Named: name.AsNamed(),
		model: model,
	}
}

// Sensor is a fake Sensor that reads back the model name, world name and sim time.
type Sensor struct {
	resource.Named
	resource.TriviallyCloseable
	model physics.Model
}

// Readings returns the model and world the sensor is attached to and the current sim time.
func (s *Sensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	world := s.model.World()
	return map[string]interface{}{
		"model":    s.model.Name(),
		"world":    world.Name(),
		"sim_time": world.SimTime().Seconds(),
	}, nil
}
