package resource

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Namespace identifies the namespaces resources can live in.
	Namespace string

	// TypeName identifies the resource types that resources can be.
	TypeName string

	// SubtypeName identifies the resources subtypes that resources can be.
	SubtypeName string
)

// Placeholder definitions for a few known constants.
const (
	ResourceNamespaceRDK  = Namespace("rdk")
	ResourceTypeComponent = TypeName("component")
)

var reservedChars = [...]string{":", "+"}

// ContainsReservedCharacter returns error if string contains a reserved character.
func ContainsReservedCharacter(val string) error {
	for _, char := range reservedChars {
		if strings.Contains(val, char) {
			return errors.Errorf("reserved character %s used in name:%q", char, val)
		}
	}
	return nil
}

// API represents a known component/service (resource) API, e.g. "rdk:component:sensor".
type API struct {
	Namespace   Namespace
	Type        TypeName
	SubtypeName SubtypeName
}

// APINamespace returns an API in the given namespace and of the given type.
func APINamespace(namespace Namespace, rType TypeName, subtype SubtypeName) API {
	return API{Namespace: namespace, Type: rType, SubtypeName: subtype}
}

// IsComponent returns if this API is for a component.
func (a API) IsComponent() bool {
	return a.Type == ResourceTypeComponent
}

// Validate ensures that important fields exist and are valid.
func (a API) Validate() error {
	if a.Namespace == "" {
		return errors.New("namespace field for resource missing or invalid")
	}
	if a.Type == "" {
		return errors.New("type field for resource missing or invalid")
	}
	if a.SubtypeName == "" {
		return errors.New("subtype field for resource missing or invalid")
	}
	for _, part := range []string{string(a.Namespace), string(a.Type), string(a.SubtypeName)} {
		if err := ContainsReservedCharacter(part); err != nil {
			return err
		}
	}
	return nil
}

// String returns the resource API string.
func (a API) String() string {
	return fmt.Sprintf("%s:%s:%s", a.Namespace, a.Type, a.SubtypeName)
}

// Name represents a known component/service representation of a plugin instance.
type Name struct {
	API  API
	Name string
}

// NewName creates a new resource Name.
func NewName(api API, name string) Name {
	return Name{API: api, Name: name}
}

var validNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][-\w]*$`)

// Validate ensures that important fields exist and are valid.
func (n Name) Validate() error {
	if err := n.API.Validate(); err != nil {
		return err
	}
	return ValidateName(n.Name)
}

// ValidateName checks that a plugin instance name only uses letters, numbers, dashes and
// underscores, and starts with a letter or number.
func ValidateName(name string) error {
	if !validNameRegex.MatchString(name) {
		return errors.Errorf("name %q must start with a letter or number and must only contain letters, numbers, dashes, and underscores", name)
	}
	return nil
}

// String returns the fully qualified name for the resource.
func (n Name) String() string {
	return fmt.Sprintf("%s/%s", n.API, n.Name)
}
