package session

import (
	"fmt"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/screen"
)

// encodeMouse translates a mouse descriptor to the wire format the PTY's
// current mouse mode expects (§4.5 mouse_input). Returns nil if the
// current mode suppresses this event (e.g. motion events while only
// MouseReportNormal button tracking is active).
func encodeMouse(d proto.MouseDescriptor, mode screen.MouseReportMode, format screen.MouseReportFormat) []byte {
	if mode == screen.MouseReportNone {
		return nil
	}
	if d.EventType == proto.MouseMove {
		if mode != screen.MouseReportButton && mode != screen.MouseReportAny {
			return nil
		}
	}

	btn := mouseButtonCode(d)
	col := int(d.X) + 1
	row := int(d.Y) + 1

	switch format {
	case screen.MouseFormatSGR, screen.MouseFormatSGRPixels:
		final := byte('M')
		if d.EventType == proto.MouseUp {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", btn, col, row, final))
	case screen.MouseFormatURXVT:
		return []byte(fmt.Sprintf("\x1b[%d;%d;%dM", btn+32, col, row))
	default: // legacy/UTF-8: CSI M Cb Cx Cy, coordinates capped at 223 (255-32)
		if col > 223 {
			col = 223
		}
		if row > 223 {
			row = 223
		}
		return []byte{0x1b, '[', 'M', byte(btn + 32), byte(col + 32), byte(row + 32)}
	}
}

func mouseButtonCode(d proto.MouseDescriptor) int {
	var b int
	switch {
	case d.EventType == proto.MouseMove:
		b = 32 + buttonBits(d.Button)
	case d.EventType == proto.MouseWheel:
		b = 64 + buttonBits(d.Button)
	case d.EventType == proto.MouseUp:
		b = 3
	default:
		b = buttonBits(d.Button)
	}
	if d.Shift {
		b |= 4
	}
	if d.Alt {
		b |= 8
	}
	if d.Ctrl {
		b |= 16
	}
	return b
}

func buttonBits(button int) int {
	switch button {
	case 0:
		return 0
	case 1:
		return 1
	case 2:
		return 2
	default:
		return button
	}
}

// bracketPaste wraps bytes in bracketed-paste markers when the mode is on.
func bracketPaste(data []byte, bracketed bool) []byte {
	if !bracketed {
		return data
	}
	out := make([]byte, 0, len(data)+12)
	out = append(out, "\x1b[200~"...)
	out = append(out, data...)
	out = append(out, "\x1b[201~"...)
	return out
}
