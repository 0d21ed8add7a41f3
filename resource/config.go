package resource

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/simsensors/utils"
)

// A Config describes the configuration of a plugin instance.
type Config struct {
	Name  string `json:"name"`
	API   API    `json:"-"`
	Model Model  `json:"model"`

	Attributes          utils.AttributeMap `json:"attributes"`
	ConvertedAttributes ConfigValidator    `json:"-"`
}

// A ConfigValidator validates a native configuration. The path is the location of the config in
// the world file and is used to build error messages.
type ConfigValidator interface {
	Validate(path string) error
}

// NoNativeConfig is used by plugins that take no attributes.
type NoNativeConfig struct{}

// Validate always succeeds.
func (NoNativeConfig) Validate(path string) error {
	return nil
}

// NativeConfig returns the native config from the given config via its
// converted attributes.
func NativeConfig[T any](conf Config) (T, error) {
	return utils.AssertType[T](conf.ConvertedAttributes)
}

// ResourceName returns the ResourceName for the plugin instance.
func (conf *Config) ResourceName() Name {
	return NewName(conf.API, conf.Name)
}

// String returns a verbose representation of the config.
func (conf *Config) String() string {
	return fmt.Sprintf("%#v", conf)
}

// Validate ensures the name and model are present and well formed. The API is only checked when
// set since the plugin registry fills it in at load time. Attribute validation belongs to the
// plugin itself, which reports problems when it is loaded.
func (conf *Config) Validate(path string) error {
	if conf.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := ValidateName(conf.Name); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if conf.API != (API{}) {
		if err := conf.API.Validate(); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	if err := conf.Model.Validate(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
// Values are decoded with weak typing so that string valued attributes ("100.0") convert to
// numeric fields the way simulator description files are read.
func TransformAttributeMap[T any](attributes utils.AttributeMap) (T, error) {
	var out T

	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           forResult,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return out, err
	}
	return out, nil
}
