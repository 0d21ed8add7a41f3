// Package utils holds small helpers shared by the plugin, transport and host packages.
package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when a value does not have the type a caller needs.
func NewUnexpectedTypeError[ExpectedT any](actual interface{}) error {
	return errors.Errorf("expected %s but got %T", TypeStr[ExpectedT](), actual)
}

// TypeStr returns the name of T. Interface types print by name rather than as nil.
func TypeStr[T any]() string {
	var zero *T
	return fmt.Sprintf("%T", zero)[1:]
}

// AssertType asserts that from holds a T, returning an unexpected type error otherwise.
func AssertType[T any](from interface{}) (T, error) {
	asserted, ok := from.(T)
	if !ok {
		var zero T
		return zero, NewUnexpectedTypeError[T](from)
	}
	return asserted, nil
}
