package session

import (
	"fmt"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/screen"
)

// encodeKey translates a W3C-style key descriptor into the byte sequence
// written to the PTY master (§4.5 key_input), using legacy xterm sequences
// or the kitty keyboard protocol's CSI u encoding depending on the
// interpreter's current kitty flag stack.
func encodeKey(k proto.KeyDescriptor, flags screen.KittyFlags) []byte {
	if flags&screen.KittyDisambiguate != 0 {
		if seq, ok := kittyEncode(k, flags); ok {
			return seq
		}
	}
	return legacyEncode(k)
}

var legacyNamed = map[string]string{
	"ArrowUp":    "\x1b[A",
	"ArrowDown":  "\x1b[B",
	"ArrowRight": "\x1b[C",
	"ArrowLeft":  "\x1b[D",
	"Home":       "\x1b[H",
	"End":        "\x1b[F",
	"PageUp":     "\x1b[5~",
	"PageDown":   "\x1b[6~",
	"Insert":     "\x1b[2~",
	"Delete":     "\x1b[3~",
	"F1":         "\x1bOP",
	"F2":         "\x1bOQ",
	"F3":         "\x1bOR",
	"F4":         "\x1bOS",
	"F5":         "\x1b[15~",
	"F6":         "\x1b[17~",
	"F7":         "\x1b[18~",
	"F8":         "\x1b[19~",
	"F9":         "\x1b[20~",
	"F10":        "\x1b[21~",
	"F11":        "\x1b[23~",
	"F12":        "\x1b[24~",
	"Enter":      "\r",
	"Tab":        "\t",
	"Backspace":  "\x7f",
	"Escape":     "\x1b",
}

func legacyEncode(k proto.KeyDescriptor) []byte {
	if seq, ok := legacyNamed[k.Key]; ok {
		return applyAlt(k, []byte(seq))
	}

	r := []rune(k.Key)
	if len(r) == 1 {
		c := r[0]
		if k.Ctrl && c >= 'a' && c <= 'z' {
			return applyAlt(k, []byte{byte(c - 'a' + 1)})
		}
		if k.Ctrl && c >= 'A' && c <= 'Z' {
			return applyAlt(k, []byte{byte(c - 'A' + 1)})
		}
		return applyAlt(k, []byte(string(c)))
	}
	return nil
}

func applyAlt(k proto.KeyDescriptor, seq []byte) []byte {
	if !k.Alt {
		return seq
	}
	out := make([]byte, 0, len(seq)+1)
	out = append(out, 0x1b)
	return append(out, seq...)
}

// kittyEncode builds a CSI u sequence: CSI unicode-key-code ; modifiers u.
// Modifier encoding follows the kitty protocol: 1 + (shift=1, alt=2,
// ctrl=4, meta=8, bitwise-or'd).
func kittyEncode(k proto.KeyDescriptor, flags screen.KittyFlags) ([]byte, bool) {
	r := []rune(k.Key)
	if len(r) != 1 {
		return nil, false
	}
	mod := 1
	if k.Shift {
		mod += 1
	}
	if k.Alt {
		mod += 2
	}
	if k.Ctrl {
		mod += 4
	}
	if k.Meta {
		mod += 8
	}
	if mod == 1 {
		return []byte(fmt.Sprintf("\x1b[%du", r[0])), true
	}
	return []byte(fmt.Sprintf("\x1b[%d;%du", r[0], mod)), true
}
