package controller

import (
	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/protocol"
	"github.com/soniferous/riftgate/client/internal/ui/toolkit"
)

// menu renders a single-selection menu: a list of items, an OK button, and a
// Cancel button only when the payload allows cancellation.
type menu struct {
	deps    Deps
	key     string
	payload protocol.Menu

	parent toolkit.Container
	panel  toolkit.Panel
	list   toolkit.List
}

func newMenu(deps Deps, parent toolkit.Container, key string, payload protocol.Menu) *menu {
	m := &menu{
		deps:    deps,
		key:     key,
		payload: payload,
		parent:  parent,
	}

	m.panel = deps.Toolkit.NewPanel(parent)

	labels := make([]string, len(payload.Items))
	for i, item := range payload.Items {
		labels[i] = item.Label
	}
	m.list = deps.Toolkit.NewList(m.panel, labels)
	m.list.OnActivate(m.confirm)

	ok := deps.Toolkit.NewButton(m.panel, "Ok")
	ok.OnPress(m.confirm)

	// The cancel affordances only exist when the server allows backing out;
	// cancellation is unreachable otherwise.
	if payload.CanCancel {
		cancel := deps.Toolkit.NewButton(m.panel, "Cancel")
		cancel.OnPress(m.cancel)
		m.list.OnEscape(m.cancel)
	}

	if len(payload.Items) > 0 {
		m.list.Select(0)
		m.list.Focus()
	}

	return m
}

// Focus implements Controller.
func (m *menu) Focus() { m.list.Focus() }

// Destroy implements Controller.
func (m *menu) Destroy() { m.panel.Destroy() }

// SetParentIfChanged implements Controller.
func (m *menu) SetParentIfChanged(parent toolkit.Container) {
	if m.parent == parent {
		return
	}
	m.parent = parent
	m.panel.SetParent(parent)
}

// SetPayload implements Controller.
func (m *menu) SetPayload(elem protocol.Element) {
	if elem.Menu == nil {
		return
	}
	m.payload = *elem.Menu
}

// Container implements Controller.
func (m *menu) Container() toolkit.Container { return m.panel }

// confirm reports the selected item to the server. Confirming with nothing
// selected is a no-op.
func (m *menu) confirm() {
	selected := m.list.SelectedIndex()
	if selected < 0 || selected >= len(m.payload.Items) {
		return
	}
	value := m.payload.Items[selected].Value
	if err := m.deps.Actions.Complete(m.key, value); err != nil {
		m.deps.Logger.Error("complete action failed",
			zap.String("key", m.key),
			zap.Error(err),
		)
	}
}

func (m *menu) cancel() {
	if !m.payload.CanCancel {
		// No affordance ever reaches here; getting here is a wiring bug.
		panic("controller: cancel invoked on a menu that cannot cancel")
	}
	if err := m.deps.Actions.Cancel(m.key); err != nil {
		m.deps.Logger.Error("cancel action failed",
			zap.String("key", m.key),
			zap.Error(err),
		)
	}
}
