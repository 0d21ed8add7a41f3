// Package resource contains the naming and configuration primitives shared by every simulator
// plugin: resource names, models, attribute based configs and their validation errors.
package resource

import (
	"context"
)

// A Resource is a plugin instance that has a name and can be closed when the host unloads it.
type Resource interface {
	Name() Name

	// Close must safely shut down the resource and prevent further use. Close must be idempotent.
	Close(ctx context.Context) error
}

// Named is to be embedded by resources that just need to return their name.
type Named interface {
	Name() Name
}

type selfNamed struct {
	name Name
}

func (n selfNamed) Name() Name {
	return n.name
}

// AsNamed is a helper to let this name return itself as a basic resource that does
// nothing.
func (n Name) AsNamed() Named {
	return selfNamed{n}
}

// TriviallyCloseable is to be embedded by any resource that does not care about handling Closes.
type TriviallyCloseable struct{}

// Close always returns no error.
func (t TriviallyCloseable) Close(ctx context.Context) error {
	return nil
}
