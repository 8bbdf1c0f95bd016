package render

// decodeColor unpacks a proto.SGR FG/BG value using the same convention
// screen.sgrKey.toSGR's source (vt10x) and
// elleryfamilia-thicc/internal/terminal's glyphToTcellStyle both rely on:
// -1 is "default", 0-255 is a palette index, anything above 255 is 24-bit
// RGB packed as (r<<16 | g<<8 | b). ok is false for "default" (caller
// should leave the terminal's own default color in place).
func decodeColor(v int32) (c RGB, palette int, isRGB bool, ok bool) {
	if v < 0 {
		return RGB{}, 0, false, false
	}
	if v > 255 {
		return RGB{
			R: uint8((v >> 16) & 0xFF),
			G: uint8((v >> 8) & 0xFF),
			B: uint8(v & 0xFF),
		}, 0, true, true
	}
	return RGB{}, int(v), false, true
}

// palette256 is the standard xterm 256-color table's RGB values for
// palette indices 16-255 (the 6x6x6 cube plus the grayscale ramp), needed
// to compute a palette color's luminance for dim-for-focus. Indices 0-15
// are the 16 ANSI colors, approximated here rather than read from the
// terminal's own (user-configurable, unknowable) palette.
func palette256(idx int) RGB {
	if idx < 16 {
		return ansi16[idx]
	}
	if idx < 232 {
		i := idx - 16
		r := cube6(i / 36 % 6)
		g := cube6(i / 6 % 6)
		b := cube6(i % 6)
		return RGB{R: r, G: g, B: b}
	}
	gray := uint8(8 + (idx-232)*10)
	return RGB{R: gray, G: gray, B: gray}
}

func cube6(i int) uint8 {
	if i == 0 {
		return 0
	}
	return uint8(55 + i*40)
}

var ansi16 = [16]RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// rgbOf resolves an SGR color field (FG or BG) to a concrete RGB, falling
// back to the given default when the field is -1 ("use terminal default").
func rgbOf(v int32, def RGB) RGB {
	c, pal, isRGB, ok := decodeColor(v)
	if !ok {
		return def
	}
	if isRGB {
		return c
	}
	return palette256(pal)
}

// defaultFG/defaultBG are the colors assumed for cells that never set an
// explicit SGR color, used only for dim-for-focus luminance decisions;
// actual painting leaves tcell's own default style in place for these.
var defaultFG = RGB{229, 229, 229}
var defaultBG = RGB{0, 0, 0}
