package stack

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/infrastructure/monitoring"
	"github.com/soniferous/riftgate/client/internal/protocol"
	"github.com/soniferous/riftgate/client/internal/ui/controller"
	"github.com/soniferous/riftgate/client/internal/ui/toolkit"
)

// Snapshots supplies the latest UI stack. Implementations must be
// bounded-time: Tick runs on the rendering goroutine and a slow fetch stalls
// the whole UI.
type Snapshots interface {
	UIStack(ctx context.Context) (protocol.Stack, error)
}

// entry is one live screen: its key and the controller that owns its widgets.
type entry struct {
	key  string
	ctrl controller.Controller
}

// Options configures an Engine.
type Options struct {
	Snapshots Snapshots
	Factory   *controller.Factory
	Deps      controller.Deps
	Metrics   *monitoring.Metrics // optional
}

// Engine owns the ordered live stack and converges it on every Tick.
// It is not safe for concurrent use; the rendering goroutine owns it.
type Engine struct {
	snapshots Snapshots
	factory   *controller.Factory
	deps      controller.Deps
	root      toolkit.Container
	metrics   *monitoring.Metrics
	log       *zap.Logger

	live []entry

	// lastTopKey remembers which key held focus after the previous tick so
	// focus only ever moves on change. hasTop is false when the stack was
	// empty (or never ticked), in which case lastTopKey is meaningless.
	lastTopKey string
	hasTop     bool
}

// New creates an engine rendering under the toolkit's root window.
func New(opts Options) *Engine {
	log := opts.Deps.Logger
	if log == nil {
		log = zap.NewNop()
		opts.Deps.Logger = log
	}
	return &Engine{
		snapshots: opts.Snapshots,
		factory:   opts.Factory,
		deps:      opts.Deps,
		root:      opts.Deps.Toolkit.Root(),
		metrics:   opts.Metrics,
		log:       log,
	}
}

// Tick fetches the latest snapshot and converges the live stack on it.
// Errors from the snapshot source or the factory are returned as-is; the
// caller decides whether they are retryable (transport) or fatal (unknown
// element kind). A failed tick leaves the live stack as it was.
func (e *Engine) Tick(ctx context.Context) error {
	started := time.Now()

	snapshot, err := e.snapshots.UIStack(ctx)
	if err != nil {
		return fmt.Errorf("fetch ui stack: %w", err)
	}

	e.removeMissing(snapshot)
	if err := e.applySnapshot(snapshot); err != nil {
		return err
	}
	e.fixupParents()
	e.updateFocus()

	e.metrics.ObserveTick(time.Since(started), len(e.live))
	return nil
}

// Keys reports the live keys in stack order, bottom first. Like every other
// method, rendering-goroutine only.
func (e *Engine) Keys() []string {
	keys := make([]string, len(e.live))
	for i, en := range e.live {
		keys[i] = en.key
	}
	return keys
}

// removeMissing destroys and drops every live entry whose key is absent from
// the snapshot, preserving the order of the rest.
func (e *Engine) removeMissing(snapshot protocol.Stack) {
	present := make(map[string]struct{}, len(snapshot.Entries))
	for _, se := range snapshot.Entries {
		present[se.Key] = struct{}{}
	}

	kept := e.live[:0]
	for _, en := range e.live {
		if _, ok := present[en.key]; !ok {
			e.log.Debug("destroying screen", zap.String("key", en.key))
			en.ctrl.Destroy()
			e.metrics.IncControllersDestroyed()
			continue
		}
		kept = append(kept, en)
	}
	e.live = kept
}

// applySnapshot walks the snapshot in order, reusing surviving controllers
// and constructing the rest. Rebuilding the slice from the snapshot makes
// live order converge even when the server reorders surviving keys. A new
// entry at position i parents under the controller at position i-1 of the
// stack being built (the root window at position 0), so multi-insertion
// ticks resolve parents against already-reconciled entries.
func (e *Engine) applySnapshot(snapshot protocol.Stack) error {
	surviving := make(map[string]entry, len(e.live))
	for _, en := range e.live {
		surviving[en.key] = en
	}
	reused := make(map[string]struct{}, len(e.live))

	next := make([]entry, 0, len(snapshot.Entries))
	for _, se := range snapshot.Entries {
		if en, ok := surviving[se.Key]; ok {
			en.ctrl.SetPayload(se.Element)
			reused[en.key] = struct{}{}
			next = append(next, en)
			continue
		}

		parent := e.root
		if len(next) > 0 {
			parent = next[len(next)-1].ctrl.Container()
		}
		ctrl, err := e.factory.Build(e.deps, parent, se)
		if err != nil {
			// Keep everything constructed so far, plus the survivors not
			// yet re-appended, so every controller is still destroyed
			// exactly once by a later snapshot or process teardown.
			for _, en := range e.live {
				if _, ok := reused[en.key]; !ok {
					next = append(next, en)
				}
			}
			e.live = next
			return err
		}
		e.log.Debug("created screen",
			zap.String("key", se.Key),
			zap.String("kind", se.Element.Tag()),
		)
		e.metrics.IncControllersCreated(se.Element.Tag())
		next = append(next, entry{key: se.Key, ctrl: ctrl})
	}

	e.live = next
	return nil
}

// fixupParents recomputes containment from stack position: every entry sits
// under the previous entry's container, the first under the root window.
// SetParentIfChanged is the no-op guard, so the walk is unconditional.
func (e *Engine) fixupParents() {
	parent := e.root
	for _, en := range e.live {
		en.ctrl.SetParentIfChanged(parent)
		parent = en.ctrl.Container()
	}
}

// updateFocus moves focus to the top of the stack, or to the root window
// when the stack is empty, but only when the top key actually changed.
func (e *Engine) updateFocus() {
	newTopKey, hasNewTop := "", false
	if len(e.live) > 0 {
		newTopKey = e.live[len(e.live)-1].key
		hasNewTop = true
	}

	if hasNewTop != e.hasTop || newTopKey != e.lastTopKey {
		if hasNewTop {
			e.live[len(e.live)-1].ctrl.Focus()
		} else {
			e.root.Focus()
		}
		e.metrics.IncFocusChanges()
	}

	e.lastTopKey = newTopKey
	e.hasTop = hasNewTop
}
