package uihost

import (
	"github.com/mattn/go-runewidth"
)

// LaidOut is one node of a layout pass: a widget, its absolute rectangle,
// and its laid-out children in paint order.
type LaidOut struct {
	Widget   *Widget
	Rect     Rect
	Children []*LaidOut
}

// Layout runs the single top-down layout pass of §4.6 against the given
// outer constraints, rooted at absolute origin (0, 0). It is pure: the same
// tree and constraints always produce the same absolute positions (§8
// "Layout determinism"), since nothing here consults external state.
func Layout(w *Widget, c Constraints) *LaidOut {
	if w == nil {
		return nil
	}
	return layout(w, c, 0, 0)
}

func layout(w *Widget, c Constraints, ox, oy int) *LaidOut {
	switch w.Kind {
	case KindText:
		sz := clampTo(c, textIntrinsicSize(w, c))
		return leaf(w, ox, oy, sz)
	case KindSeparator:
		sz := clampTo(c, Size{W: maxInt(c.MinW, 1), H: maxInt(c.MinH, 1)})
		return leaf(w, ox, oy, sz)
	case KindList:
		sz := clampTo(c, listIntrinsicSize(w, c))
		return leaf(w, ox, oy, sz)
	case KindTextInput:
		sz := clampTo(c, textInputIntrinsicSize(w, c))
		return leaf(w, ox, oy, sz)
	case KindSurface:
		sz := clampTo(c, Size{W: fillW(c), H: fillH(c)})
		return leaf(w, ox, oy, sz)
	case KindBox:
		return layoutBox(w, c, ox, oy)
	case KindPadding:
		return layoutPadding(w, c, ox, oy)
	case KindRow:
		return layoutRowColumn(w, c, ox, oy, true)
	case KindColumn:
		return layoutRowColumn(w, c, ox, oy, false)
	case KindStack:
		return layoutStack(w, c, ox, oy)
	case KindPositioned:
		return layoutPositioned(w, c, ox, oy)
	default:
		sz := clampTo(c, Size{W: fillW(c), H: fillH(c)})
		return leaf(w, ox, oy, sz)
	}
}

func leaf(w *Widget, x, y int, sz Size) *LaidOut {
	return &LaidOut{Widget: w, Rect: Rect{X: x, Y: y, W: sz.W, H: sz.H}}
}

func clampTo(c Constraints, sz Size) Size {
	w, h := c.Clamp(sz.W, sz.H)
	return Size{W: w, H: h}
}

// fillW/fillH resolve "take all available space" when a widget itself has
// no intrinsic size: the max if bounded, else the min.
func fillW(c Constraints) int {
	if c.MaxW > 0 {
		return c.MaxW
	}
	return c.MinW
}

func fillH(c Constraints) int {
	if c.MaxH > 0 {
		return c.MaxH
	}
	return c.MinH
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// isIntrinsic reports whether a widget kind sizes itself from its content
// rather than from available space, per §4.6's row/column rule ("available
// excludes the sum of intrinsic-sized siblings").
func isIntrinsic(k Kind) bool {
	switch k {
	case KindText, KindList, KindSeparator, KindTextInput:
		return true
	default:
		return false
	}
}

// textIntrinsicSize computes a text widget's natural size honoring wrap
// and double-width runes (CJK/emoji) via go-runewidth, as named in §4.6.
func textIntrinsicSize(w *Widget, c Constraints) Size {
	maxW := c.MaxW
	if maxW <= 0 {
		maxW = runewidth.StringWidth(w.Text)
		if maxW == 0 {
			maxW = 1
		}
	}
	switch w.Wrap {
	case WrapWord, WrapChar:
		lines := wrapText(w.Text, maxW, w.Wrap == WrapChar)
		height := len(lines)
		width := 0
		for _, l := range lines {
			width = maxInt(width, runewidth.StringWidth(l))
		}
		if height == 0 {
			height = 1
		}
		return Size{W: minInt(width, maxW), H: height}
	default:
		return Size{W: minInt(runewidth.StringWidth(w.Text), maxW), H: 1}
	}
}

// WrapLines breaks text into display lines no wider than width cells per
// the given wrap mode, for callers (internal/render's text painter) that
// need the same line breaks used during layout to paint glyphs.
func WrapLines(text string, width int, wrap Wrap) []string {
	switch wrap {
	case WrapWord:
		return wrapText(text, width, false)
	case WrapChar:
		return wrapText(text, width, true)
	default:
		return []string{text}
	}
}

// wrapText breaks s into display lines no wider than width cells. byChar
// selects character wrapping instead of word wrapping.
func wrapText(s string, width int, byChar bool) []string {
	if width <= 0 {
		width = 1
	}
	if byChar {
		var lines []string
		var cur []rune
		curW := 0
		for _, r := range s {
			rw := runewidth.RuneWidth(r)
			if curW+rw > width && curW > 0 {
				lines = append(lines, string(cur))
				cur = nil
				curW = 0
			}
			cur = append(cur, r)
			curW += rw
		}
		if len(cur) > 0 || len(lines) == 0 {
			lines = append(lines, string(cur))
		}
		return lines
	}

	words := splitWords(s)
	var lines []string
	var cur string
	curW := 0
	for _, word := range words {
		ww := runewidth.StringWidth(word)
		sep := 0
		if curW > 0 {
			sep = 1
		}
		if curW+sep+ww > width && curW > 0 {
			lines = append(lines, cur)
			cur = word
			curW = ww
			continue
		}
		if curW > 0 {
			cur += " " + word
		} else {
			cur = word
		}
		curW += sep + ww
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

func listIntrinsicSize(w *Widget, c Constraints) Size {
	width := 0
	for _, item := range w.Items {
		width = maxInt(width, runewidth.StringWidth(item))
	}
	if width == 0 {
		width = 1
	}
	height := len(w.Items)
	if height == 0 {
		height = 1
	}
	if c.MaxH > 0 {
		height = minInt(height, c.MaxH)
	}
	if c.MaxW > 0 {
		width = minInt(width, c.MaxW)
	}
	return Size{W: width, H: height}
}

func textInputIntrinsicSize(w *Widget, c Constraints) Size {
	text := w.Value
	if text == "" {
		text = w.Placeholder
	}
	width := runewidth.StringWidth(text) + 1 // trailing cursor cell
	if c.MaxW > 0 {
		width = minInt(width, c.MaxW)
	}
	if width < 1 {
		width = 1
	}
	return Size{W: width, H: 1}
}

// layoutBox implements "box: border steals 2 cells in each dimension".
func layoutBox(w *Widget, c Constraints, ox, oy int) *LaidOut {
	steal := 0
	if w.Border {
		steal = 2
	}
	inner := shrink(c, steal, steal)
	out := &LaidOut{Widget: w}
	innerOX, innerOY := ox+steal/2, oy+steal/2
	maxW, maxH := steal, steal
	for _, child := range w.Children {
		lo := layout(child, inner, innerOX, innerOY)
		out.Children = append(out.Children, lo)
		maxW = maxInt(maxW, lo.Rect.W+steal)
		maxH = maxInt(maxH, lo.Rect.H+steal)
	}
	w2, h2 := c.Clamp(maxW, maxH)
	out.Rect = Rect{X: ox, Y: oy, W: w2, H: h2}
	return out
}

// layoutPadding implements "padding: subtracts fixed cell counts".
func layoutPadding(w *Widget, c Constraints, ox, oy int) *LaidOut {
	horiz := w.PadLeft + w.PadRight
	vert := w.PadTop + w.PadBottom
	inner := shrink(c, horiz, vert)
	out := &LaidOut{Widget: w}
	innerOX, innerOY := ox+w.PadLeft, oy+w.PadTop
	maxW, maxH := horiz, vert
	for _, child := range w.Children {
		lo := layout(child, inner, innerOX, innerOY)
		out.Children = append(out.Children, lo)
		maxW = maxInt(maxW, lo.Rect.W+horiz)
		maxH = maxInt(maxH, lo.Rect.H+vert)
	}
	w2, h2 := c.Clamp(maxW, maxH)
	out.Rect = Rect{X: ox, Y: oy, W: w2, H: h2}
	return out
}

func shrink(c Constraints, dw, dh int) Constraints {
	out := Constraints{
		MinW: maxInt(0, c.MinW-dw),
		MinH: maxInt(0, c.MinH-dh),
	}
	if c.MaxW > 0 {
		out.MaxW = maxInt(0, c.MaxW-dw)
	}
	if c.MaxH > 0 {
		out.MaxH = maxInt(0, c.MaxH-dh)
	}
	return out
}

// layoutStack implements "stack: children overlap at origin, paint order =
// array order, later = on top".
func layoutStack(w *Widget, c Constraints, ox, oy int) *LaidOut {
	out := &LaidOut{Widget: w}
	maxW, maxH := fillW(c), fillH(c)
	for _, child := range w.Children {
		lo := layout(child, c, ox, oy)
		out.Children = append(out.Children, lo)
		maxW = maxInt(maxW, lo.Rect.W)
		maxH = maxInt(maxH, lo.Rect.H)
	}
	w2, h2 := c.Clamp(maxW, maxH)
	out.Rect = Rect{X: ox, Y: oy, W: w2, H: h2}
	return out
}

// layoutPositioned implements "positioned: child placed by explicit (x, y)
// or by anchor ∈ nine-grid".
func layoutPositioned(w *Widget, c Constraints, ox, oy int) *LaidOut {
	out := &LaidOut{Widget: w}
	containerW, containerH := fillW(c), fillH(c)
	childConstraints := Constraints{MaxW: containerW, MaxH: containerH}
	var child *LaidOut
	if len(w.Children) > 0 {
		child = layout(w.Children[0], childConstraints, 0, 0)
	} else {
		child = &LaidOut{Widget: w, Rect: Rect{}}
	}

	x, y := w.X, w.Y
	if w.Anchor != AnchorNone {
		x, y = anchorPosition(w.Anchor, containerW, containerH, child.Rect.W, child.Rect.H)
	}
	dx, dy := ox+x, oy+y
	translated := translate(child, dx-child.Rect.X, dy-child.Rect.Y)
	out.Children = []*LaidOut{translated}
	out.Rect = Rect{X: ox, Y: oy, W: containerW, H: containerH}
	return out
}

func anchorPosition(a Anchor, cw, ch, w, h int) (int, int) {
	x, y := 0, 0
	switch a {
	case AnchorTopLeft, AnchorLeft, AnchorBottomLeft:
		x = 0
	case AnchorTop, AnchorCenter, AnchorBottom:
		x = (cw - w) / 2
	case AnchorTopRight, AnchorRight, AnchorBottomRight:
		x = cw - w
	}
	switch a {
	case AnchorTopLeft, AnchorTop, AnchorTopRight:
		y = 0
	case AnchorLeft, AnchorCenter, AnchorRight:
		y = (ch - h) / 2
	case AnchorBottomLeft, AnchorBottom, AnchorBottomRight:
		y = ch - h
	}
	return x, y
}

func translate(lo *LaidOut, dx, dy int) *LaidOut {
	lo.Rect.X += dx
	lo.Rect.Y += dy
	for _, c := range lo.Children {
		translate(c, dx, dy)
	}
	return lo
}

// layoutRowColumn implements the row/column rule of §4.6: ratio children
// get ratio×available (available excludes intrinsic-sized siblings),
// remaining space splits equally among ratio-less non-intrinsic children,
// cross-axis alignment is start|center|end|stretch.
func layoutRowColumn(w *Widget, c Constraints, ox, oy int, isRow bool) *LaidOut {
	mainAvail := fillW(c)
	crossAvail := fillH(c)
	if !isRow {
		mainAvail = fillH(c)
		crossAvail = fillW(c)
	}

	type measured struct {
		child     *Widget
		intrinsic bool
		main      int
	}
	items := make([]measured, len(w.Children))
	usedIntrinsic := 0
	for i, child := range w.Children {
		intrinsic := isIntrinsic(child.Kind)
		items[i] = measured{child: child, intrinsic: intrinsic}
		if intrinsic {
			var cc Constraints
			if isRow {
				cc = Constraints{MaxH: crossAvail}
			} else {
				cc = Constraints{MaxW: crossAvail}
			}
			lo := layout(child, cc, 0, 0)
			if isRow {
				items[i].main = lo.Rect.W
			} else {
				items[i].main = lo.Rect.H
			}
			usedIntrinsic += items[i].main
		}
	}
	remainder := maxInt(0, mainAvail-usedIntrinsic)

	usedRatio := 0
	ratioCount := 0
	for i, it := range items {
		if it.intrinsic {
			continue
		}
		if it.child.Ratio > 0 {
			size := int(it.child.Ratio * float64(remainder))
			items[i].main = size
			usedRatio += size
		} else {
			ratioCount++
		}
	}

	leftover := maxInt(0, remainder-usedRatio)
	per, extra := 0, 0
	if ratioCount > 0 {
		per = leftover / ratioCount
		extra = leftover % ratioCount
	}
	ratiolessIdx := 0
	for i, it := range items {
		if it.intrinsic || it.child.Ratio > 0 {
			continue
		}
		size := per
		if ratiolessIdx < extra {
			size++
		}
		items[i].main = size
		ratiolessIdx++
	}

	out := &LaidOut{Widget: w}
	cursor := 0
	for _, it := range items {
		var childConstraints Constraints
		cross := it.child.CrossAlign
		if cross == "" {
			cross = AlignStretch
		}
		if isRow {
			childConstraints = Constraints{MinW: it.main, MaxW: it.main}
			if cross == AlignStretch {
				childConstraints.MinH, childConstraints.MaxH = crossAvail, crossAvail
			} else {
				childConstraints.MaxH = crossAvail
			}
		} else {
			childConstraints = Constraints{MinH: it.main, MaxH: it.main}
			if cross == AlignStretch {
				childConstraints.MinW, childConstraints.MaxW = crossAvail, crossAvail
			} else {
				childConstraints.MaxW = crossAvail
			}
		}

		var childOX, childOY int
		if isRow {
			childOX, childOY = ox+cursor, oy
		} else {
			childOX, childOY = ox, oy+cursor
		}
		lo := layout(it.child, childConstraints, childOX, childOY)

		if cross != AlignStretch {
			if isRow {
				offset := crossOffset(cross, crossAvail, lo.Rect.H)
				lo = translate(lo, 0, offset)
			} else {
				offset := crossOffset(cross, crossAvail, lo.Rect.W)
				lo = translate(lo, offset, 0)
			}
		}

		out.Children = append(out.Children, lo)
		cursor += it.main
	}

	var w2, h2 int
	if isRow {
		w2, h2 = c.Clamp(cursor, crossAvail)
	} else {
		w2, h2 = c.Clamp(crossAvail, cursor)
	}
	out.Rect = Rect{X: ox, Y: oy, W: w2, H: h2}
	return out
}

func crossOffset(align Align, avail, size int) int {
	switch align {
	case AlignCenter:
		return (avail - size) / 2
	case AlignEnd:
		return avail - size
	default:
		return 0
	}
}
