package screen

import (
	"github.com/hinshun/vt10x"

	"github.com/rockorager/prise/internal/proto"
)

// Glyph.Mode attribute bits. vt10x does not export named constants for
// these (confirmed against elleryfamilia-thicc's own glyphToTcellStyle,
// which carries the same comment) so the bit layout below is the
// convention the pack's own vt10x consumer already relies on.
const (
	modeBold = 1 << iota
	modeUnderline
	modeReverse
	modeBlink
	modeDim
)

// sgrKey is a hashable reduction of a Glyph's visual attributes, used to
// dedupe styles within one flush.
type sgrKey struct {
	fg, bg vt10x.Color
	mode   int16
}

func sgrKeyOf(g vt10x.Glyph) sgrKey {
	return sgrKey{fg: g.FG, bg: g.BG, mode: g.Mode}
}

func (k sgrKey) toSGR() proto.SGR {
	fg := int32(-1)
	if k.fg != vt10x.DefaultFG {
		fg = int32(k.fg)
	}
	bg := int32(-1)
	if k.bg != vt10x.DefaultBG {
		bg = int32(k.bg)
	}
	return proto.SGR{
		FG:        fg,
		BG:        bg,
		Bold:      k.mode&modeBold != 0,
		Underline: k.mode&modeUnderline != 0,
		Reverse:   k.mode&modeReverse != 0,
		Dim:       k.mode&modeDim != 0,
	}
}
