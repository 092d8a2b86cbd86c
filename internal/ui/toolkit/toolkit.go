// Package toolkit abstracts the native widget toolkit the client renders
// with. Controllers only ever touch these interfaces; the concrete toolkit
// (wx, SDL, a test double) is supplied by the application shell.
//
// All widgets are owned by the rendering goroutine. Implementations may
// assume single-threaded access and are free to panic on use after Destroy.
package toolkit

// Container is a widget that other widgets can be parented under: the root
// window, or a controller's panel. Implementations must be comparable so
// reparenting can be skipped when the parent is unchanged.
type Container interface {
	// Focus directs input focus to this container.
	Focus()
}

// Panel groups one screen's controls and is the unit of reparenting.
type Panel interface {
	Container

	// SetParent moves the panel (and every control under it) beneath a new
	// container.
	SetParent(parent Container)

	// Destroy releases the panel and all controls under it. Called exactly
	// once, by the owning controller.
	Destroy()
}

// List is a single-selection list control.
type List interface {
	// Focus directs input focus to the list.
	Focus()

	// Select selects and moves the cursor to the item at index i.
	Select(i int)

	// SelectedIndex reports the selected item, or -1 when nothing is
	// selected.
	SelectedIndex() int

	// OnActivate registers the item-activation callback (enter key or
	// double click).
	OnActivate(fn func())

	// OnEscape registers a callback for the escape key while the list
	// holds focus. Listings that cannot be cancelled never register one.
	OnEscape(fn func())
}

// Button is a push button.
type Button interface {
	// OnPress registers the press callback.
	OnPress(fn func())
}

// Toolkit creates widgets. Constructors never fail: a toolkit that cannot
// allocate a control is broken beyond what callers can handle.
type Toolkit interface {
	// Root returns the root window; the bottom stack entry parents here.
	Root() Container

	NewPanel(parent Container) Panel
	NewList(parent Panel, labels []string) List
	NewButton(parent Panel, label string) Button
}
