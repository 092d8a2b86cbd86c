package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParentBookkeeping(t *testing.T) {
	tk := New()

	outer := tk.NewPanel(tk.Root()).(*Panel)
	inner := tk.NewPanel(outer).(*Panel)

	assert.Equal(t, tk.Root(), outer.Parent())
	assert.Equal(t, outer, inner.Parent())

	inner.SetParent(tk.Root())
	assert.Equal(t, tk.Root(), inner.Parent())
}

func TestFocusTracking(t *testing.T) {
	tk := New()
	panel := tk.NewPanel(tk.Root()).(*Panel)
	list := tk.NewList(panel, []string{"one", "two"}).(*List)

	require.Nil(t, tk.Focused())

	list.Focus()
	assert.Equal(t, list, tk.Focused())

	tk.Root().Focus()
	assert.Equal(t, tk.Root(), tk.Focused())
}

func TestListSelection(t *testing.T) {
	tk := New()
	panel := tk.NewPanel(tk.Root()).(*Panel)
	list := tk.NewList(panel, []string{"one", "two"}).(*List)

	assert.Equal(t, -1, list.SelectedIndex())

	list.Select(1)
	assert.Equal(t, 1, list.SelectedIndex())

	assert.Panics(t, func() { list.Select(2) })
}

func TestEscapeBinding(t *testing.T) {
	tk := New()
	panel := tk.NewPanel(tk.Root()).(*Panel)
	list := tk.NewList(panel, nil).(*List)

	assert.False(t, list.PressEscape(), "unbound escape should be a no-op")

	fired := false
	list.OnEscape(func() { fired = true })
	assert.True(t, list.PressEscape())
	assert.True(t, fired)
}

func TestUseAfterDestroyPanics(t *testing.T) {
	tk := New()
	panel := tk.NewPanel(tk.Root()).(*Panel)

	panel.Destroy()
	assert.True(t, panel.Destroyed())

	assert.Panics(t, func() { panel.SetParent(tk.Root()) })
	assert.Panics(t, func() { panel.Focus() })
	assert.Panics(t, func() { panel.Destroy() })
}
