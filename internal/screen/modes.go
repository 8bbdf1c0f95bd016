package screen

// Mode tracking for the pieces of terminal state the VT interpreter itself
// doesn't surface through vt10x.Terminal: mouse report mode/format,
// bracketed paste, and the kitty keyboard protocol's flag stack (spec §4.4:
// "Screen... modes (... mouse event/format, ... bracketed paste,
// kitty-keyboard flags stack)"). These are scanned out of raw PTY bytes the
// same way shellintegration.go scans OSC sequences, rather than invented
// vt10x API this package doesn't actually expose.

// MouseReportMode selects which events are reported.
type MouseReportMode int

const (
	MouseReportNone MouseReportMode = iota
	MouseReportX10
	MouseReportNormal // 1000: button press/release
	MouseReportButton // 1002: + motion while a button is held
	MouseReportAny    // 1003: + motion unconditionally
)

// MouseReportFormat selects the coordinate encoding.
type MouseReportFormat int

const (
	MouseFormatDefault MouseReportFormat = iota // 7-bit, coordinates capped at 223
	MouseFormatUTF8                             // 1005
	MouseFormatSGR                              // 1006
	MouseFormatURXVT                            // 1015
	MouseFormatSGRPixels                        // 1016
)

// KittyFlags is the bitset pushed/popped by the kitty keyboard protocol.
type KittyFlags int

const (
	KittyDisambiguate KittyFlags = 1 << iota
	KittyReportEvents
	KittyReportAlternates
	KittyReportAllKeys
	KittyReportText
)

type modeState struct {
	mouseMode   MouseReportMode
	mouseFormat MouseReportFormat
	bracketed   bool
	kittyStack  []KittyFlags
}

func (m *modeState) currentKitty() KittyFlags {
	if len(m.kittyStack) == 0 {
		return 0
	}
	return m.kittyStack[len(m.kittyStack)-1]
}

// scanModes walks raw PTY output for the private-mode and kitty-protocol
// CSI sequences that change m's state. It is independent of vt10x's own
// parsing (which consumes these sequences for its own mode handling but
// doesn't expose the result for mouse/kitty state).
func scanModes(data []byte, m *modeState) {
	i := 0
	for i < len(data) {
		if data[i] != 0x1b || i+1 >= len(data) || data[i+1] != '[' {
			i++
			continue
		}
		start := i + 2
		j := start
		for j < len(data) && !isCSIFinal(data[j]) {
			j++
		}
		if j >= len(data) {
			break
		}
		body := data[start:j]
		final := data[j]
		applyCSI(body, final, m)
		i = j + 1
	}
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}

func applyCSI(body []byte, final byte, m *modeState) {
	switch final {
	case 'h', 'l':
		if len(body) == 0 || body[0] != '?' {
			return
		}
		set := final == 'h'
		for _, n := range parseSemicolonInts(body[1:]) {
			applyPrivateMode(n, set, m)
		}
	case 'u':
		applyKitty(body, m)
	}
}

func applyPrivateMode(n int, set bool, m *modeState) {
	switch n {
	case 1000:
		if set {
			m.mouseMode = MouseReportNormal
		} else if m.mouseMode == MouseReportNormal {
			m.mouseMode = MouseReportNone
		}
	case 1002:
		if set {
			m.mouseMode = MouseReportButton
		} else if m.mouseMode == MouseReportButton {
			m.mouseMode = MouseReportNone
		}
	case 1003:
		if set {
			m.mouseMode = MouseReportAny
		} else if m.mouseMode == MouseReportAny {
			m.mouseMode = MouseReportNone
		}
	case 9:
		if set {
			m.mouseMode = MouseReportX10
		} else if m.mouseMode == MouseReportX10 {
			m.mouseMode = MouseReportNone
		}
	case 1005:
		m.mouseFormat = setOrDefault(set, MouseFormatUTF8, m.mouseFormat)
	case 1006:
		m.mouseFormat = setOrDefault(set, MouseFormatSGR, m.mouseFormat)
	case 1015:
		m.mouseFormat = setOrDefault(set, MouseFormatURXVT, m.mouseFormat)
	case 1016:
		m.mouseFormat = setOrDefault(set, MouseFormatSGRPixels, m.mouseFormat)
	case 2004:
		m.bracketed = set
	}
}

func setOrDefault(set bool, format, cur MouseReportFormat) MouseReportFormat {
	if set {
		return format
	}
	if cur == format {
		return MouseFormatDefault
	}
	return cur
}

// applyKitty handles CSI > flags u (push), CSI < [Pn] u (pop Pn, default 1),
// and CSI = flags ; mode u (set/or/and-not top of stack with mode 1/2/3).
func applyKitty(body []byte, m *modeState) {
	if len(body) == 0 {
		return
	}
	switch body[0] {
	case '>':
		n := parseInt(body[1:], 0)
		m.kittyStack = append(m.kittyStack, KittyFlags(n))
	case '<':
		n := parseInt(body[1:], 1)
		for i := 0; i < n && len(m.kittyStack) > 0; i++ {
			m.kittyStack = m.kittyStack[:len(m.kittyStack)-1]
		}
	case '=':
		parts := parseSemicolonInts(body[1:])
		if len(parts) == 0 {
			return
		}
		flags := KittyFlags(parts[0])
		op := 1
		if len(parts) > 1 {
			op = parts[1]
		}
		top := m.currentKitty()
		switch op {
		case 2:
			top |= flags
		case 3:
			top &^= flags
		default:
			top = flags
		}
		if len(m.kittyStack) == 0 {
			m.kittyStack = append(m.kittyStack, top)
		} else {
			m.kittyStack[len(m.kittyStack)-1] = top
		}
	}
}

func parseSemicolonInts(b []byte) []int {
	var out []int
	start := 0
	for i := 0; i <= len(b); i++ {
		if i == len(b) || b[i] == ';' {
			out = append(out, parseInt(b[start:i], 0))
			start = i + 1
		}
	}
	return out
}

func parseInt(b []byte, def int) int {
	if len(b) == 0 {
		return def
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}
