// Package uihost hosts the external declarative UI described in spec §1,
// §4.6, §4.7, §9: a pure `update(event) -> view_tree` function (here
// implemented as a Lua script run through gopher-lua, with Go effects
// exposed via layeh.com/gopher-luar) plus the widget tree it returns, the
// layout algorithm that turns that tree into absolute rectangles, and the
// fuzzy session picker behind the `switch_session`/`list_sessions`
// primitives.
//
// Grounded on elleryfamilia-thicc's internal/layout package for the general
// shape of a ratio-driven split layout (its Region struct and per-panel
// ratio math), generalized here into the closed tagged-union widget kind
// §9 names instead of thicc's hardcoded three-panel IDE layout.
package uihost

// Kind is the closed tag set of §9's widget variant.
type Kind string

const (
	KindText      Kind = "text"
	KindList      Kind = "list"
	KindBox       Kind = "box"
	KindPadding   Kind = "padding"
	KindRow       Kind = "row"
	KindColumn    Kind = "column"
	KindStack     Kind = "stack"
	KindPositioned Kind = "positioned"
	KindSeparator Kind = "separator"
	KindSurface   Kind = "surface"
	KindTextInput Kind = "text_input"
)

// Align is cross-axis alignment for row/column children, and text alignment
// for text widgets.
type Align string

const (
	AlignStart  Align = "start"
	AlignCenter Align = "center"
	AlignEnd    Align = "end"
	AlignStretch Align = "stretch"
)

// Wrap controls text wrapping.
type Wrap string

const (
	WrapNone Wrap = "none"
	WrapWord Wrap = "word"
	WrapChar Wrap = "char"
)

// Anchor is the nine-grid anchor a Positioned widget may use instead of
// explicit (x, y).
type Anchor string

const (
	AnchorNone        Anchor = ""
	AnchorTopLeft     Anchor = "top_left"
	AnchorTop         Anchor = "top"
	AnchorTopRight    Anchor = "top_right"
	AnchorLeft        Anchor = "left"
	AnchorCenter      Anchor = "center"
	AnchorRight       Anchor = "right"
	AnchorBottomLeft  Anchor = "bottom_left"
	AnchorBottom      Anchor = "bottom"
	AnchorBottomRight Anchor = "bottom_right"
)

// Widget is the tagged union over §9's closed widget kind set. Exactly the
// fields relevant to Kind are populated; the rest are zero. It is rebuilt
// fresh every frame by the UI's update function and never mutated in
// place, so it is safe to arena-allocate (see DESIGN.md's Open Question
// note on the widget tree).
type Widget struct {
	ID   string
	Kind Kind

	Children []*Widget

	// text
	Text  string
	Align Align
	Wrap  Wrap

	// list
	Items    []string
	Selected int

	// box / padding
	Border  bool
	PadTop, PadRight, PadBottom, PadLeft int

	// row / column
	Ratio        float64 // 0 means "no explicit ratio"
	CrossAlign   Align

	// stack: children paint in order, last = on top; no extra fields needed

	// positioned
	X, Y   int
	Anchor Anchor

	// surface
	PTYID int

	// text_input
	Value       string
	Placeholder string
}

// Constraints bounds a widget's allowed size during layout (§4.6).
type Constraints struct {
	MinW, MaxW int
	MinH, MaxH int
}

// Clamp fits w,h within the constraints.
func (c Constraints) Clamp(w, h int) (int, int) {
	if w < c.MinW {
		w = c.MinW
	}
	if c.MaxW > 0 && w > c.MaxW {
		w = c.MaxW
	}
	if h < c.MinH {
		h = c.MinH
	}
	if c.MaxH > 0 && h > c.MaxH {
		h = c.MaxH
	}
	return w, h
}

// Size is a widget's resolved dimensions.
type Size struct{ W, H int }

// Rect is an absolute screen rectangle.
type Rect struct{ X, Y, W, H int }

// Contains reports whether the integer cell (x, y) falls inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
