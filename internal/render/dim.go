package render

// RGB is an 8-bit-per-channel color, decoded from a proto.SGR's packed
// FG/BG (see decodeColor in color.go).
type RGB struct {
	R, G, B uint8
}

// luminance computes perceived brightness via the Rec. 601 coefficients
// named in §9's dim-for-focus note.
func luminance(c RGB) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// dimTarget picks the color an unfocused cell mixes toward. Dimming an
// already-dark palette further toward black would crush it to
// illegibility, and dimming an already-light one toward white would blow
// it out, so the mix direction is chosen by the color's own luminance:
// light colors mix toward black, dark colors mix toward white. This keeps
// the dimmed result moving toward the middle of the range instead of
// compounding whichever extreme the color already leans toward.
func dimTarget(c RGB) RGB {
	if luminance(c) >= 128 {
		return RGB{0, 0, 0}
	}
	return RGB{255, 255, 255}
}

func mix(c, target RGB, factor float64) RGB {
	if factor <= 0 {
		return c
	}
	if factor > 1 {
		factor = 1
	}
	m := func(a, b uint8) uint8 {
		return uint8(float64(a)*(1-factor) + float64(b)*factor)
	}
	return RGB{R: m(c.R, target.R), G: m(c.G, target.G), B: m(c.B, target.B)}
}

// DimColor mixes c toward black or white (per dimTarget) by factor, a
// value in [0, 1] where 0 leaves c unchanged and 1 fully replaces it.
func DimColor(c RGB, factor float64) RGB {
	return mix(c, dimTarget(c), factor)
}
