// Package sensor defines an abstract sensing device that can provide measurement readings.
package sensor

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/simsensors/plugin"
	"go.viam.com/simsensors/resource"
	"go.viam.com/simsensors/utils"
)

// SubtypeName is a constant that identifies the component resource subtype string "sensor".
const SubtypeName = resource.SubtypeName("sensor")

// API is a variable that identifies the component resource API.
var API = resource.APINamespace(
	resource.ResourceNamespaceRDK,
	resource.ResourceTypeComponent,
	SubtypeName,
)

// Named is a helper for getting the named Sensor's typed resource name.
func Named(name string) resource.Name {
	return resource.NewName(API, name)
}

// A Sensor represents a general purpose sensors that can give arbitrary readings
// of some thing that it is sensing.
type Sensor interface {
	plugin.ModelPlugin
	// Readings return data specific to the type of sensor and can be of any type.
	Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error)
}

// A Provider looks up loaded plugins by name.
type Provider interface {
	Plugin(name resource.Name) (plugin.ModelPlugin, bool)
}

// FromProvider is a helper for getting the named Sensor from the given Provider.
func FromProvider(p Provider, name string) (Sensor, error) {
	res, ok := p.Plugin(Named(name))
	if !ok {
		return nil, errors.Errorf("sensor %q not found", name)
	}
	return utils.AssertType[Sensor](res)
}
