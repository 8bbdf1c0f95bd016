package main

import (
	"strings"

	"github.com/micro-editor/tcell/v2"

	"github.com/rockorager/prise/internal/input"
	"github.com/rockorager/prise/internal/uihost"
)

// namedKeys maps tcell's special keys to the W3C KeyboardEvent-style
// names §6's key_desc wire shape expects (`key_desc` carries "W3C
// KeyboardEvent-compatible key values").
var namedKeys = map[tcell.Key]string{
	tcell.KeyEnter:     "Enter",
	tcell.KeyTab:       "Tab",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyEsc:       "Escape",
	tcell.KeyUp:        "ArrowUp",
	tcell.KeyDown:      "ArrowDown",
	tcell.KeyLeft:      "ArrowLeft",
	tcell.KeyRight:     "ArrowRight",
	tcell.KeyHome:      "Home",
	tcell.KeyEnd:       "End",
	tcell.KeyPgUp:      "PageUp",
	tcell.KeyPgDn:      "PageDown",
	tcell.KeyDelete:    "Delete",
	tcell.KeyInsert:    "Insert",
	tcell.KeyF1:  "F1", tcell.KeyF2: "F2", tcell.KeyF3: "F3", tcell.KeyF4: "F4",
	tcell.KeyF5:  "F5", tcell.KeyF6: "F6", tcell.KeyF7: "F7", tcell.KeyF8: "F8",
	tcell.KeyF9:  "F9", tcell.KeyF10: "F10", tcell.KeyF11: "F11", tcell.KeyF12: "F12",
}

// decodeKey translates a tcell key event into uihost.KeyEvent. Reserved
// accelerators (ReservedKeys) are matched against Key, so the value here
// must stay stable and lowercase-modifier-prefixed the way the default
// script's reserved_keys table expects (e.g. "ctrl+d").
func decodeKey(ev *tcell.EventKey) uihost.KeyEvent {
	mods := ev.Modifiers()
	k := uihost.KeyEvent{
		Shift: mods&tcell.ModShift != 0,
		Ctrl:  mods&tcell.ModCtrl != 0,
		Alt:   mods&tcell.ModAlt != 0,
		Meta:  mods&tcell.ModMeta != 0,
	}

	var base string
	if name, ok := namedKeys[ev.Key()]; ok {
		base = name
	} else if ev.Key() == tcell.KeyRune {
		base = string(ev.Rune())
	} else {
		base = ev.Name()
	}
	k.Code = base

	var prefix []string
	if k.Ctrl {
		prefix = append(prefix, "ctrl")
	}
	if k.Alt {
		prefix = append(prefix, "alt")
	}
	if k.Shift && len([]rune(base)) > 1 {
		prefix = append(prefix, "shift")
	}
	if len(prefix) == 0 {
		k.Key = base
	} else {
		k.Key = strings.ToLower(strings.Join(prefix, "+")) + "+" + strings.ToLower(base)
	}
	return k
}

// decodeMouse translates a tcell mouse event into the Router's RawMouseEvent,
// fabricating pixel coordinates from the cell position at the app's
// nominal cell pixel size (see app.go's cellPxW/cellPxH comment).
func decodeMouse(ev *tcell.EventMouse, prevButtons tcell.ButtonMask) input.RawMouseEvent {
	x, y := ev.Position()
	mods := ev.Modifiers()
	buttons := ev.Buttons()

	eventType := "move"
	switch {
	case buttons&tcell.WheelUp != 0 || buttons&tcell.WheelDown != 0:
		eventType = "wheel"
	case buttons != 0 && prevButtons == 0:
		eventType = "down"
	case buttons == 0 && prevButtons != 0:
		eventType = "up"
	}

	button := 0
	switch {
	case buttons&tcell.Button1 != 0:
		button = 1
	case buttons&tcell.Button2 != 0:
		button = 2
	case buttons&tcell.Button3 != 0:
		button = 3
	}

	return input.RawMouseEvent{
		PixelX:    float64(x) * cellPxW,
		PixelY:    float64(y) * cellPxH,
		Button:    button,
		EventType: eventType,
		Shift:     mods&tcell.ModShift != 0,
		Ctrl:      mods&tcell.ModCtrl != 0,
		Alt:       mods&tcell.ModAlt != 0,
	}
}
