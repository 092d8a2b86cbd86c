// Package controller implements the live screen controllers the stack
// reconciler manages: one controller per rendered screen, each owning its
// toolkit widgets and wiring user actions back to the server.
package controller

import (
	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/protocol"
	"github.com/soniferous/riftgate/client/internal/ui/toolkit"
)

// Controller manages one rendered screen. Instances are created by the
// Factory, owned by exactly one stack entry, and only ever touched from the
// rendering goroutine.
type Controller interface {
	// Focus directs input focus to the controller's primary control.
	Focus()

	// Destroy releases every widget the controller owns. Called exactly
	// once, when the controller's key disappears from a snapshot.
	Destroy()

	// SetParentIfChanged reparents the controller's panel, skipping the
	// toolkit call when the parent is already correct.
	SetParentIfChanged(parent toolkit.Container)

	// SetPayload replaces the controller's descriptor state when its key
	// survives into a new snapshot. Current variants store it without
	// re-rendering.
	SetPayload(elem protocol.Element)

	// Container returns the widget the next stack entry parents under.
	Container() toolkit.Container
}

// Actions is the slice of the transport controllers invoke on user input.
type Actions interface {
	// Complete reports a confirmed choice on the screen identified by key.
	Complete(key, value string) error

	// Cancel reports that the screen identified by key was aborted.
	Cancel(key string) error
}

// Deps carries the collaborators every controller variant is built with.
type Deps struct {
	Toolkit toolkit.Toolkit
	Actions Actions
	Logger  *zap.Logger
}
