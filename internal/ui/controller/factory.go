package controller

import (
	"errors"
	"fmt"

	"github.com/soniferous/riftgate/client/internal/protocol"
	"github.com/soniferous/riftgate/client/internal/ui/toolkit"
)

// ErrUnknownElement marks a descriptor carrying an element kind this build
// does not implement. It indicates a protocol or version mismatch with the
// server and is fatal: a stack entry cannot be half-rendered.
var ErrUnknownElement = errors.New("unknown ui element kind")

// BuildFunc constructs one controller variant.
type BuildFunc func(deps Deps, parent toolkit.Container, key string, elem protocol.Element) Controller

// Factory maps element tags to controller constructors. Adding a screen kind
// means adding a variant and a Register call; the reconciler never changes.
type Factory struct {
	builders map[string]BuildFunc
}

// NewFactory creates a factory with the built-in variants registered.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[string]BuildFunc)}
	f.Register(protocol.TagMenu, func(deps Deps, parent toolkit.Container, key string, elem protocol.Element) Controller {
		return newMenu(deps, parent, key, *elem.Menu)
	})
	return f
}

// Register adds a constructor for an element tag, replacing any previous
// registration.
func (f *Factory) Register(tag string, fn BuildFunc) {
	f.builders[tag] = fn
}

// Build constructs the controller for a descriptor entry under the given
// parent. An unregistered tag returns an error wrapping ErrUnknownElement.
func (f *Factory) Build(deps Deps, parent toolkit.Container, entry protocol.Entry) (Controller, error) {
	tag := entry.Element.Tag()
	fn, ok := f.builders[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q (key %q)", ErrUnknownElement, tag, entry.Key)
	}
	return fn(deps, parent, entry.Key, entry.Element), nil
}
