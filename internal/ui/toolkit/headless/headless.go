// Package headless is an in-memory toolkit implementation. It renders
// nothing and instead records parenting, focus, and destruction, which makes
// it the backing for engine and controller tests as well as for running the
// client without a display.
package headless

import "github.com/soniferous/riftgate/client/internal/ui/toolkit"

// Toolkit tracks widget bookkeeping without any native resources.
type Toolkit struct {
	root    *Window
	focused any
}

// New creates a headless toolkit with a fresh root window.
func New() *Toolkit {
	tk := &Toolkit{}
	tk.root = &Window{tk: tk}
	return tk
}

// Root implements toolkit.Toolkit.
func (tk *Toolkit) Root() toolkit.Container { return tk.root }

// Focused reports the widget holding input focus, or nil.
func (tk *Toolkit) Focused() any { return tk.focused }

// NewPanel implements toolkit.Toolkit.
func (tk *Toolkit) NewPanel(parent toolkit.Container) toolkit.Panel {
	return &Panel{tk: tk, parent: parent}
}

// NewList implements toolkit.Toolkit.
func (tk *Toolkit) NewList(parent toolkit.Panel, labels []string) toolkit.List {
	return &List{tk: tk, panel: parent.(*Panel), labels: labels, selected: -1}
}

// NewButton implements toolkit.Toolkit.
func (tk *Toolkit) NewButton(parent toolkit.Panel, label string) toolkit.Button {
	return &Button{panel: parent.(*Panel), label: label}
}

// Window is the root container.
type Window struct {
	tk *Toolkit
}

// Focus implements toolkit.Container.
func (w *Window) Focus() { w.tk.focused = w }

// Panel records its current parent and destruction state.
type Panel struct {
	tk        *Toolkit
	parent    toolkit.Container
	destroyed bool
}

// Focus implements toolkit.Container.
func (p *Panel) Focus() {
	p.ensureAlive()
	p.tk.focused = p
}

// SetParent implements toolkit.Panel.
func (p *Panel) SetParent(parent toolkit.Container) {
	p.ensureAlive()
	p.parent = parent
}

// Destroy implements toolkit.Panel.
func (p *Panel) Destroy() {
	p.ensureAlive()
	p.destroyed = true
}

// Parent reports the panel's current parent.
func (p *Panel) Parent() toolkit.Container { return p.parent }

// Destroyed reports whether Destroy has been called.
func (p *Panel) Destroyed() bool { return p.destroyed }

func (p *Panel) ensureAlive() {
	if p.destroyed {
		panic("headless: panel used after destroy")
	}
}

// List records selection state and exposes the user-input hooks tests drive.
type List struct {
	tk       *Toolkit
	panel    *Panel
	labels   []string
	selected int

	onActivate func()
	onEscape   func()
}

// Focus implements toolkit.List.
func (l *List) Focus() {
	l.panel.ensureAlive()
	l.tk.focused = l
}

// Select implements toolkit.List.
func (l *List) Select(i int) {
	if i < 0 || i >= len(l.labels) {
		panic("headless: list selection out of range")
	}
	l.selected = i
}

// SelectedIndex implements toolkit.List.
func (l *List) SelectedIndex() int { return l.selected }

// OnActivate implements toolkit.List.
func (l *List) OnActivate(fn func()) { l.onActivate = fn }

// OnEscape implements toolkit.List.
func (l *List) OnEscape(fn func()) { l.onEscape = fn }

// Labels reports the rendered item labels.
func (l *List) Labels() []string { return l.labels }

// Activate simulates the user activating the selected item.
func (l *List) Activate() {
	if l.onActivate != nil {
		l.onActivate()
	}
}

// PressEscape simulates the escape key while the list holds focus. It
// reports whether the list had an escape binding.
func (l *List) PressEscape() bool {
	if l.onEscape == nil {
		return false
	}
	l.onEscape()
	return true
}

// Button records its label and press callback.
type Button struct {
	panel   *Panel
	label   string
	onPress func()
}

// OnPress implements toolkit.Button.
func (b *Button) OnPress(fn func()) { b.onPress = fn }

// Label reports the button label.
func (b *Button) Label() string { return b.label }

// Press simulates a button press.
func (b *Button) Press() {
	if b.onPress != nil {
		b.onPress()
	}
}
