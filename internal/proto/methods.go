package proto

// Method names are the source of truth for wire compatibility (§6).
const (
	MethodSpawnPTY   = "spawn_pty"
	MethodAttachPTY  = "attach_pty"
	MethodDetachPTYs = "detach_ptys"
	MethodResizePTY  = "resize_pty"
	MethodClosePTY   = "close_pty"
	MethodKeyInput   = "key_input"
	MethodKeyRelease = "key_release"
	MethodMouseInput = "mouse_input"
	MethodPaste      = "paste"
	MethodRedraw     = "redraw"
	MethodPTYExited  = "pty_exited"
)

// SpawnPTYParams is the params object for a spawn_pty request.
type SpawnPTYParams struct {
	Rows   int    `cbor:"rows"`
	Cols   int    `cbor:"cols"`
	Attach bool   `cbor:"attach"`
	CWD    string `cbor:"cwd,omitempty"`
}

// SpawnPTYResult is the result of a successful spawn_pty request.
type SpawnPTYResult struct {
	PTYID int `cbor:"pty_id"`
}

// AttachPTYParams is `[pty_id]`.
type AttachPTYParams struct {
	PTYID int `cbor:"pty_id"`
}

// DetachPTYsParams is `[pty_ids, client_fd]`.
type DetachPTYsParams struct {
	PTYIDs   []int `cbor:"pty_ids"`
	ClientID uint64 `cbor:"client_fd"`
}

// ResizePTYParams is `[pty_id, rows, cols, width_px, height_px]`.
//
// Resize policy: the server records each attached client's last requested
// rows and cols and resizes the PTY to the smallest common rectangle, the
// minimum rows and minimum cols across those clients.
type ResizePTYParams struct {
	PTYID    int `cbor:"pty_id"`
	Rows     int `cbor:"rows"`
	Cols     int `cbor:"cols"`
	WidthPx  int `cbor:"width_px"`
	HeightPx int `cbor:"height_px"`
}

// ClosePTYParams is `[pty_id]`.
type ClosePTYParams struct {
	PTYID int `cbor:"pty_id"`
}

// KeyDescriptor mirrors a W3C KeyboardEvent: key name, code, and the four
// modifier booleans.
type KeyDescriptor struct {
	Key     string `cbor:"key"`
	Code    string `cbor:"code"`
	Shift   bool   `cbor:"shiftKey"`
	Ctrl    bool   `cbor:"ctrlKey"`
	Alt     bool   `cbor:"altKey"`
	Meta    bool   `cbor:"metaKey"`
}

// KeyInputParams is `[pty_id, key_desc]`.
type KeyInputParams struct {
	PTYID int           `cbor:"pty_id"`
	Key   KeyDescriptor `cbor:"key"`
}

// MouseEventType enumerates the mouse event kinds a client may send.
type MouseEventType string

const (
	MouseDown MouseEventType = "down"
	MouseUp   MouseEventType = "up"
	MouseMove MouseEventType = "move"
	MouseWheel MouseEventType = "wheel"
)

// MouseDescriptor is the wire shape of a mouse event, coordinates in
// fractional terminal cells.
type MouseDescriptor struct {
	X         float64        `cbor:"x"`
	Y         float64        `cbor:"y"`
	Button    int            `cbor:"button"`
	EventType MouseEventType `cbor:"event_type"`
	Shift     bool           `cbor:"shiftKey"`
	Ctrl      bool           `cbor:"ctrlKey"`
	Alt       bool           `cbor:"altKey"`
}

// MouseInputParams is `[pty_id, mouse_desc]`.
type MouseInputParams struct {
	PTYID int             `cbor:"pty_id"`
	Mouse MouseDescriptor `cbor:"mouse"`
}

// PasteParams is `[pty_id, bytes]`.
type PasteParams struct {
	PTYID int    `cbor:"pty_id"`
	Bytes []byte `cbor:"bytes"`
}

// PTYExitedParams is `[pty_id, status]`.
type PTYExitedParams struct {
	PTYID  int `cbor:"pty_id"`
	Status int `cbor:"status"`
}

// OK is the trivial success result many requests return.
type OK struct {
	OK bool `cbor:"ok"`
}
