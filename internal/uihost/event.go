package uihost

// EventKind discriminates the events the client input router (§4.7)
// forwards into the UI's update function.
type EventKind string

const (
	EventKey     EventKind = "key"
	EventMouse   EventKind = "mouse"
	EventFocus   EventKind = "focus"
	EventPaste   EventKind = "paste"
	EventWinsize EventKind = "winsize"
	EventTick    EventKind = "tick" // fired by a set_timeout effect's deadline
	EventError   EventKind = "error"
)

// KeyEvent mirrors the wire KeyDescriptor without depending on
// internal/proto, since the UI boundary is a deliberately separate
// collaborator (§1) from the wire protocol.
type KeyEvent struct {
	Key, Code                  string
	Shift, Ctrl, Alt, Meta     bool
}

// MouseEvent mirrors the wire MouseDescriptor, already translated to
// fractional cell coordinates by the Client Renderer/Input Router.
type MouseEvent struct {
	X, Y                 float64
	Button               int
	EventType             string // "down", "up", "move", "wheel"
	Shift, Ctrl, Alt      bool
}

// Event is a tagged union over the event kinds above.
type Event struct {
	Kind    EventKind
	Key     *KeyEvent
	Mouse   *MouseEvent
	Focused bool
	Paste   []byte
	Rows    int
	Cols    int
	TimerID int
	Message string
}
