package resource

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

type (
	// ModelFamilyName is the model family.
	ModelFamilyName string

	// ModelName is the name of a specific model within a family.
	ModelName string
)

// ModelFamilyBuiltinName is the family of models shipped with the simulator.
const ModelFamilyBuiltinName = ModelFamilyName("builtin")

var (
	// DefaultModelFamily is the rdk:builtin model family for built-in plugins.
	DefaultModelFamily = ModelFamily{ResourceNamespaceRDK, ModelFamilyBuiltinName}

	modelRegexValidator      = regexp.MustCompile(`^([\w-]+):([\w-]+):([\w-]+)$`)
	shortModelRegexValidator = regexp.MustCompile(`^([\w-]+)$`)
)

// ModelFamily is a family of related models.
type ModelFamily struct {
	Namespace Namespace
	Name      ModelFamilyName
}

// NewModelFamily creates a new ModelFamily based on parameters passed in.
func NewModelFamily(namespace Namespace, family ModelFamilyName) ModelFamily {
	return ModelFamily{namespace, family}
}

// WithModel returns a new model with the given name.
func (f ModelFamily) WithModel(name ModelName) Model {
	return Model{f, name}
}

// Validate ensures that important fields exist and are valid.
func (f ModelFamily) Validate() error {
	if f.Namespace == "" {
		return errors.New("model namespace field for resource missing")
	}
	if f.Name == "" {
		return errors.New("model family field for resource missing")
	}
	if err := ContainsReservedCharacter(string(f.Namespace)); err != nil {
		return err
	}
	return ContainsReservedCharacter(string(f.Name))
}

// String returns the model family string for the resource.
func (f ModelFamily) String() string {
	return fmt.Sprintf("%s:%s", f.Namespace, f.Name)
}

// Model represents an individual model within a family.
type Model struct {
	Family ModelFamily
	Name   ModelName
}

// NewModel creates a new Model based on parameters passed in.
func NewModel(namespace Namespace, family ModelFamilyName, model ModelName) Model {
	return NewModelFamily(namespace, family).WithModel(model)
}

// NewModelFromString creates a new Model from a fully qualified "namespace:family:name" string,
// or from a bare name which is placed in the builtin family.
func NewModelFromString(modelStr string) (Model, error) {
	if matches := modelRegexValidator.FindStringSubmatch(modelStr); matches != nil {
		return NewModel(Namespace(matches[1]), ModelFamilyName(matches[2]), ModelName(matches[3])), nil
	}
	if shortModelRegexValidator.MatchString(modelStr) {
		return DefaultModelFamily.WithModel(ModelName(modelStr)), nil
	}
	return Model{}, errors.Errorf("string %q is not a valid model name", modelStr)
}

// Validate ensures that important fields exist and are valid.
func (m Model) Validate() error {
	if err := m.Family.Validate(); err != nil {
		return err
	}
	if m.Name == "" {
		return errors.New("model name field for resource missing")
	}
	return ContainsReservedCharacter(string(m.Name))
}

// String returns the resource model string for the component.
func (m Model) String() string {
	return fmt.Sprintf("%s:%s", m.Family, m.Name)
}

// MarshalJSON marshals the model as its string form.
func (m Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON parses either a fully qualified or a short model string.
func (m *Model) UnmarshalJSON(data []byte) error {
	var modelStr string
	if err := json.Unmarshal(data, &modelStr); err != nil {
		return err
	}
	model, err := NewModelFromString(modelStr)
	if err != nil {
		return err
	}
	*m = model
	return nil
}
