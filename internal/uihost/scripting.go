package uihost

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"layeh.com/gopher-luar"
)

// Host embeds a Lua VM running the external UI's script, exposing Effects
// as a Lua-callable table and invoking the script's global `update(event)`
// function every time an Event arrives (§1, §9). The UI's own state lives
// entirely inside the Lua closure the script builds; Go only marshals
// events in and widget trees out.
type Host struct {
	L        *lua.LState
	effects  Effects
	updateFn lua.LValue
}

// NewHost loads script (already read from disk by the caller) into a fresh
// Lua state, registers effects as the global `effects` table via
// gopher-luar, and resolves the script's `update` global.
func NewHost(script string, effects Effects) (*Host, error) {
	L := lua.NewState()
	L.SetGlobal("effects", luar.New(L, effects))

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("uihost: loading script: %w", err)
	}

	fn := L.GetGlobal("update")
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("uihost: script does not define a global update(event) function")
	}

	return &Host{L: L, effects: effects, updateFn: fn}, nil
}

// Close releases the Lua state.
func (h *Host) Close() {
	h.L.Close()
}

// ReservedKeys reads the script's optional global `reserved_keys` table (a
// plain array of key strings, matching KeyEvent.Key) declaring which keys
// are UI accelerators rather than pass-through input. §4.7 leaves how the
// router learns this distinction unspecified beyond "the UI update
// function decides"; since update() only returns a widget tree with no
// side channel for "I consumed this event", this table is the boundary
// the Input Router (internal/input) uses instead — absent from the
// script, every key is pass-through.
func (h *Host) ReservedKeys() []string {
	lv := h.L.GetGlobal("reserved_keys")
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return nil
	}
	var keys []string
	tbl.ForEach(func(_, v lua.LValue) {
		keys = append(keys, v.String())
	})
	return keys
}

// Update calls the script's update(event) and decodes its returned table
// into a Widget tree.
func (h *Host) Update(ev Event) (*Widget, error) {
	arg := luar.New(h.L, ev)
	if err := h.L.CallByParam(lua.P{Fn: h.updateFn, NRet: 1, Protect: true}, arg); err != nil {
		return nil, fmt.Errorf("uihost: update(event) failed: %w", err)
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	if ret == lua.LNil {
		return nil, nil
	}
	return decodeWidget(ret)
}

func decodeWidget(v lua.LValue) (*Widget, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("uihost: update(event) must return a table, got %s", v.Type().String())
	}

	w := &Widget{
		ID:          getString(tbl, "id"),
		Kind:        Kind(getString(tbl, "kind")),
		Text:        getString(tbl, "text"),
		Align:       Align(getString(tbl, "align")),
		Wrap:        Wrap(getString(tbl, "wrap")),
		Border:      getBool(tbl, "border"),
		PadTop:      getInt(tbl, "pad_top"),
		PadRight:    getInt(tbl, "pad_right"),
		PadBottom:   getInt(tbl, "pad_bottom"),
		PadLeft:     getInt(tbl, "pad_left"),
		Ratio:       getFloat(tbl, "ratio"),
		CrossAlign:  Align(getString(tbl, "cross_align")),
		X:           getInt(tbl, "x"),
		Y:           getInt(tbl, "y"),
		Anchor:      Anchor(getString(tbl, "anchor")),
		PTYID:       getInt(tbl, "pty_id"),
		Value:       getString(tbl, "value"),
		Placeholder: getString(tbl, "placeholder"),
		Selected:    getInt(tbl, "selected"),
	}
	if w.Kind == "" {
		return nil, fmt.Errorf("uihost: widget table missing required 'kind' field")
	}

	if itemsLV := tbl.RawGetString("items"); itemsLV.Type() == lua.LTTable {
		items := itemsLV.(*lua.LTable)
		items.ForEach(func(_, v lua.LValue) {
			w.Items = append(w.Items, v.String())
		})
	}

	if childrenLV := tbl.RawGetString("children"); childrenLV.Type() == lua.LTTable {
		children := childrenLV.(*lua.LTable)
		var decodeErr error
		children.ForEach(func(_, v lua.LValue) {
			if decodeErr != nil {
				return
			}
			child, err := decodeWidget(v)
			if err != nil {
				decodeErr = err
				return
			}
			w.Children = append(w.Children, child)
		})
		if decodeErr != nil {
			return nil, decodeErr
		}
	}

	return w, nil
}

func getString(tbl *lua.LTable, field string) string {
	v := tbl.RawGetString(field)
	if v == lua.LNil {
		return ""
	}
	return v.String()
}

func getBool(tbl *lua.LTable, field string) bool {
	v := tbl.RawGetString(field)
	return lua.LVAsBool(v)
}

func getInt(tbl *lua.LTable, field string) int {
	v := tbl.RawGetString(field)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func getFloat(tbl *lua.LTable, field string) float64 {
	v := tbl.RawGetString(field)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}
