// Package clipboard gives the UI host a system-clipboard effect. It is not
// named by spec.md's core modules, but §9's effects interface list
// ("spawn, request-frame, detach, save, list-sessions, switch-session,
// set-timeout with cancel, create-text-input, log") is explicitly described
// as non-exhaustive scaffolding for "a small effect interface the UI
// needs" — a terminal multiplexer UI that lets a script copy selected
// pane text out to the host OS is squarely in that spirit, and
// elleryfamilia-thicc's go.mod already pulls in zyedidia/clipper for
// exactly this purpose (the library behind the micro editor's system
// clipboard support). It is not part of uihost.Effects: cmd/prise holds a
// System and reads from it for its paste-from-clipboard key.
//
// Not grounded on an observed call site in the retrieval pack (thicc's
// go.mod requires it but nothing in thicc's source calls it) — the
// register-based Read/Write shape below follows clipper's documented
// public API as used by the micro editor, clipper's primary consumer.
package clipboard

import "github.com/zyedidia/clipper"

// Register selects one of the OS clipboard's independent registers (clipper
// supports more than one on platforms like tmux/X11 primary-selection).
// Register 0 is the default "unnamed" register.
type Register = byte

// DefaultRegister is the clipboard register used when a caller doesn't
// care to select one explicitly.
const DefaultRegister Register = 0

// Clipboard is the copy/paste surface System implements: copy text out to,
// and paste text in from, the system clipboard.
type Clipboard interface {
	Copy(reg Register, text string) error
	Paste(reg Register) (string, error)
}

// System wraps a clipper.Clipboard backend. clipper.GetClipboards tries,
// in order, platform-native clipboards (X11/Wayland/macOS/Windows, tmux)
// and falls back to an in-process register map when none are available,
// so System always has something to write and no caller needs platform
// branching.
type System struct {
	backend clipper.Clipboard
}

// NewSystem probes for an available OS clipboard backend and returns a
// System wrapping the first one found, or an in-process clipboard when none
// is found. registerCount bounds how many distinct registers the backend
// needs to support; prise only uses DefaultRegister.
func NewSystem() (*System, error) {
	backends := clipper.GetClipboards(registerCount)
	if len(backends) == 0 {
		return &System{backend: clipper.NewLocal(registerCount)}, nil
	}
	return &System{backend: backends[0]}, nil
}

const registerCount = 2

// Copy writes text to the given clipboard register.
func (s *System) Copy(reg Register, text string) error {
	return s.backend.Write(reg, []byte(text))
}

// Paste reads the given clipboard register's current contents.
func (s *System) Paste(reg Register) (string, error) {
	b, err := s.backend.Read(reg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
