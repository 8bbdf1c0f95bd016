// Package persistence implements spec §4.8: saving a named session's
// widget tree and PTY ID set to disk on detach, and restoring it on
// reattach. It satisfies internal/input's SessionStore interface.
//
// Grounded on GandalftheGUI-grove's internal/daemon/instance.go
// persistMeta (json.MarshalIndent to a per-ID file in a configurable
// directory) and daemon.go's loadPersistedInstances (os.ReadDir, skip
// non-.json entries and unparseable files rather than fail the whole
// scan). Widget trees here play the role grove's proto.InstanceInfo
// snapshots played there.
package persistence

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rockorager/prise/internal/uihost"
)

// Failure modes named in §4.8 and §7.
var (
	ErrNoSession      = errors.New("no_session")
	ErrCorruptSession = errors.New("corrupt_session")
)

// jsonWidget mirrors uihost.Widget for on-disk encoding. Its Type field
// is "pane" for surface widgets (the name §4.8's walk-for-pty_id logic
// looks for) and the widget's own Kind string otherwise, so the file
// stays self-describing for every other node while matching the one
// type name the spec's reattach path actually depends on.
type jsonWidget struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`

	Children []*jsonWidget `json:"children,omitempty"`

	Text  string     `json:"text,omitempty"`
	Align uihost.Align `json:"align,omitempty"`
	Wrap  uihost.Wrap  `json:"wrap,omitempty"`

	Items    []string `json:"items,omitempty"`
	Selected int      `json:"selected,omitempty"`

	Border    bool `json:"border,omitempty"`
	PadTop    int  `json:"pad_top,omitempty"`
	PadRight  int  `json:"pad_right,omitempty"`
	PadBottom int  `json:"pad_bottom,omitempty"`
	PadLeft   int  `json:"pad_left,omitempty"`

	Ratio      float64      `json:"ratio,omitempty"`
	CrossAlign uihost.Align `json:"cross_align,omitempty"`

	X      int           `json:"x,omitempty"`
	Y      int           `json:"y,omitempty"`
	Anchor uihost.Anchor `json:"anchor,omitempty"`

	PTYID int `json:"pty_id,omitempty"`

	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

func toJSON(w *uihost.Widget) *jsonWidget {
	if w == nil {
		return nil
	}
	typ := string(w.Kind)
	if w.Kind == uihost.KindSurface {
		typ = "pane"
	}
	jw := &jsonWidget{
		Type: typ, ID: w.ID,
		Text: w.Text, Align: w.Align, Wrap: w.Wrap,
		Items: w.Items, Selected: w.Selected,
		Border: w.Border,
		PadTop: w.PadTop, PadRight: w.PadRight, PadBottom: w.PadBottom, PadLeft: w.PadLeft,
		Ratio: w.Ratio, CrossAlign: w.CrossAlign,
		X: w.X, Y: w.Y, Anchor: w.Anchor,
		PTYID: w.PTYID,
		Value: w.Value, Placeholder: w.Placeholder,
	}
	for _, c := range w.Children {
		jw.Children = append(jw.Children, toJSON(c))
	}
	return jw
}

func fromJSON(jw *jsonWidget) *uihost.Widget {
	if jw == nil {
		return nil
	}
	kind := uihost.Kind(jw.Type)
	if jw.Type == "pane" {
		kind = uihost.KindSurface
	}
	w := &uihost.Widget{
		ID: jw.ID, Kind: kind,
		Text: jw.Text, Align: jw.Align, Wrap: jw.Wrap,
		Items: jw.Items, Selected: jw.Selected,
		Border: jw.Border,
		PadTop: jw.PadTop, PadRight: jw.PadRight, PadBottom: jw.PadBottom, PadLeft: jw.PadLeft,
		Ratio: jw.Ratio, CrossAlign: jw.CrossAlign,
		X: jw.X, Y: jw.Y, Anchor: jw.Anchor,
		PTYID: jw.PTYID,
		Value: jw.Value, Placeholder: jw.Placeholder,
	}
	for _, c := range jw.Children {
		w.Children = append(w.Children, fromJSON(c))
	}
	return w
}

// ptyIDs walks jw for every "pane"-typed node and returns its pty_id, the
// §4.8-literal extraction strategy ("walking the JSON for objects with
// type: pane") rather than relying on the Go-side Kind field, so a
// session file produced by a future, non-Go UI would extract identically.
func ptyIDs(jw *jsonWidget) []int {
	if jw == nil {
		return nil
	}
	var ids []int
	if jw.Type == "pane" {
		ids = append(ids, jw.PTYID)
	}
	for _, c := range jw.Children {
		ids = append(ids, ptyIDs(c)...)
	}
	return ids
}

// Store persists session files under <dir>/<name>.json.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir (typically
// <state_dir>/prise/sessions per §6). The directory is created on first
// Save if missing.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes tree to <dir>/<name>.json. The PTY IDs are stored inside the
// tree, as each pane node's pty_id; the ptyIDs argument is not used.
func (s *Store) Save(name string, tree *uihost.Widget, ptyIDs []int) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(toJSON(tree), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(name), data, 0o644)
}

// Load reads <dir>/<name>.json, returning ErrNoSession if it does not
// exist and ErrCorruptSession if it cannot be parsed as JSON. The
// returned PTY ID list is derived from walking for "pane"-typed nodes
// per §4.8; it is the caller's job (ClientEffects.SwitchSession) to skip,
// with a warning, any PTY the daemon no longer has.
func (s *Store) Load(name string) (*uihost.Widget, []int, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNoSession
		}
		return nil, nil, err
	}
	var jw jsonWidget
	if err := json.Unmarshal(data, &jw); err != nil {
		return nil, nil, ErrCorruptSession
	}
	return fromJSON(&jw), ptyIDs(&jw), nil
}

// Rename moves a session file to a new name. It returns ErrNoSession if
// the old name has no file.
func (s *Store) Rename(oldName, newName string) error {
	oldPath, newPath := s.path(oldName), s.path(newName)
	if _, err := os.Stat(oldPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNoSession
		}
		return err
	}
	return os.Rename(oldPath, newPath)
}

// List returns the names of all persisted sessions (the .json basenames
// under dir), skipping directories and names without a .json extension.
// File contents are not read, so an unparseable .json file is still listed.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}
