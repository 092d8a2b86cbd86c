package protocol

// Element tags reported by Element.Tag and ServiceRequest.Tag.
const (
	TagMenu     = "menu"
	TagSpeak    = "speak"
	TagShutdown = "shutdown"
)

// Stack is a full snapshot of the server-driven UI.
// Entry order is significant: the last entry is the topmost screen.
type Stack struct {
	Entries []Entry `json:"entries"`
}

// Keys returns the snapshot's keys in stack order.
func (s Stack) Keys() []string {
	keys := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Entry is one screen in a snapshot. Key is an opaque identifier, unique
// within a snapshot, that correlates the screen across snapshots.
type Entry struct {
	Key     string  `json:"key"`
	Element Element `json:"element"`
}

// Element is the tagged union of screen kinds. Exactly one variant is set.
type Element struct {
	Menu *Menu `json:"menu,omitempty"`
}

// Tag returns the name of the set variant, or "" when none is set.
func (e Element) Tag() string {
	if e.Menu != nil {
		return TagMenu
	}
	return ""
}

// Menu describes a single-selection menu screen.
type Menu struct {
	Items     []MenuItem `json:"items"`
	CanCancel bool       `json:"can_cancel"`
}

// MenuItem is one selectable row. Value is the opaque payload reported back
// to the server on completion; Key identifies the item within the menu.
type MenuItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Key   string `json:"key"`
}

// ServiceRequestBatch carries side-channel requests drained once per tick.
type ServiceRequestBatch struct {
	Requests []ServiceRequest `json:"requests"`
}

// ServiceRequest is the tagged union of side-channel request kinds.
type ServiceRequest struct {
	Speak    *Speak    `json:"speak,omitempty"`
	Shutdown *Shutdown `json:"shutdown,omitempty"`
}

// Tag returns the name of the set variant, or "" when none is set.
func (r ServiceRequest) Tag() string {
	switch {
	case r.Speak != nil:
		return TagSpeak
	case r.Shutdown != nil:
		return TagShutdown
	default:
		return ""
	}
}

// Speak asks the client to route text to the screen reader.
type Speak struct {
	Text      string `json:"text"`
	Interrupt bool   `json:"interrupt"`
}

// Shutdown asks the client process to exit.
type Shutdown struct{}

// Action is a user action reported back to the server, addressed to a
// screen by key. Value is only meaningful for completions.
type Action struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Value  string `json:"value,omitempty"`
}

// Action kinds.
const (
	ActionComplete = "complete"
	ActionCancel   = "cancel"
)
