package render

import (
	"github.com/micro-editor/tcell/v2"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/uihost"
)

// InTmux mirrors elleryfamilia-thicc's config.InTmux switch: true-color
// escapes get eaten by tmux unless it's configured for it, so true-color
// requests there are downsampled to the 256-color cube instead.
var InTmux bool

// styleOf converts a resolved SGR into a tcell.Style the way
// elleryfamilia-thicc's glyphToTcellStyle does: default colors are left as
// the screen's base style, explicit colors decode per decodeColor's
// palette/RGB split (with the RGB branch downsampled under tmux), and
// attribute bits map onto tcell's Bold/Underline/Reverse/Dim.
func styleOf(base tcell.Style, sgr proto.SGR) tcell.Style {
	style := base
	if c, pal, isRGB, ok := decodeColor(sgr.FG); ok {
		if isRGB {
			if InTmux {
				style = style.Foreground(rgbTo256(c))
			} else {
				style = style.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
			}
		} else {
			style = style.Foreground(tcell.PaletteColor(pal))
		}
	}
	if c, pal, isRGB, ok := decodeColor(sgr.BG); ok {
		if isRGB {
			if InTmux {
				style = style.Background(rgbTo256(c))
			} else {
				style = style.Background(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
			}
		} else {
			style = style.Background(tcell.PaletteColor(pal))
		}
	}
	style = style.Bold(sgr.Bold).Underline(sgr.Underline).Reverse(sgr.Reverse).Dim(sgr.Dim).Italic(sgr.Italic).StrikeThrough(sgr.Strike)
	return style
}

// rgbTo256 approximates a 24-bit color in the 216-color cube, for
// terminals (tmux passthrough) that eat true-color escapes.
func rgbTo256(c RGB) tcell.Color {
	ri := int(c.R) * 5 / 255
	gi := int(c.G) * 5 / 255
	bi := int(c.B) * 5 / 255
	return tcell.PaletteColor(16 + 36*ri + 6*gi + bi)
}

// dimStyle applies DimColor to both channels of a style's resolved colors,
// for the unfocused-surface dim-for-focus effect (§9). factor 0 is a
// no-op; dimmed cells always resolve to an explicit RGB color, since
// "leave the terminal's own default in place" stops making sense once
// it's being mixed toward something.
func dimStyle(sgr proto.SGR, factor float64) proto.SGR {
	if factor <= 0 {
		return sgr
	}
	fg := rgbOf(sgr.FG, defaultFG)
	bg := rgbOf(sgr.BG, defaultBG)
	fg = DimColor(fg, factor)
	bg = DimColor(bg, factor)
	out := sgr
	out.FG = packRGB(fg)
	out.BG = packRGB(bg)
	return out
}

func packRGB(c RGB) int32 {
	return int32(c.R)<<16 | int32(c.G)<<8 | int32(c.B)
}

// Painter draws a laid-out widget tree into a tcell.Screen, reading
// terminal content from the Surfaces registered for each PTY.
type Painter struct {
	// Surfaces maps a widget's PTYID to the Surface holding its content.
	Surfaces map[int]*Surface
	// FocusedPTY is the PTY whose surface paints at full brightness; every
	// other surface dims by DimFactor.
	FocusedPTY int
	// DimFactor in [0, 1] is how strongly unfocused surfaces mix toward
	// dimTarget's black/white (0 disables dimming).
	DimFactor float64
	// BaseStyle is the screen's default style, used for unstyled cells and
	// as the default-color fallback in styleOf.
	BaseStyle tcell.Style
}

// Paint draws lo (and its subtree) into screen. It does not call
// screen.Show; callers batch a full tree paint and Show once.
func (p *Painter) Paint(screen tcell.Screen, lo *uihost.LaidOut) {
	if lo == nil || lo.Widget == nil || lo.Rect.W <= 0 || lo.Rect.H <= 0 {
		return
	}
	switch lo.Widget.Kind {
	case uihost.KindSurface:
		p.paintSurface(screen, lo)
		return
	case uihost.KindText:
		p.paintText(screen, lo)
	case uihost.KindList:
		p.paintList(screen, lo)
	case uihost.KindSeparator:
		p.paintSeparator(screen, lo)
	case uihost.KindTextInput:
		p.paintTextInput(screen, lo)
	case uihost.KindBox:
		if lo.Widget.Border {
			p.paintBorder(screen, lo.Rect)
		}
	}
	for _, child := range lo.Children {
		p.Paint(screen, child)
	}
}

func (p *Painter) paintSurface(screen tcell.Screen, lo *uihost.LaidOut) {
	surf := p.Surfaces[lo.Widget.PTYID]
	rect := lo.Rect
	factor := 0.0
	if lo.Widget.PTYID != p.FocusedPTY {
		factor = p.DimFactor
	}
	for y := 0; y < rect.H; y++ {
		for x := 0; x < rect.W; x++ {
			var cell Cell
			if surf != nil {
				cell = surf.Cell(x, y)
			} else {
				cell = blankCell
			}
			sgr := cell.Style
			if factor > 0 {
				sgr = dimStyle(sgr, factor)
			}
			ch := cell.Ch
			if ch == 0 {
				ch = ' '
			}
			screen.SetContent(rect.X+x, rect.Y+y, ch, nil, styleOf(p.BaseStyle, sgr))
		}
	}
	if surf == nil {
		return
	}
	if cur, ok := surf.Cursor(); ok && cur.Visible && lo.Widget.PTYID == p.FocusedPTY {
		if cur.Col >= 0 && cur.Col < rect.W && cur.Row >= 0 && cur.Row < rect.H {
			screen.ShowCursor(rect.X+cur.Col, rect.Y+cur.Row)
		}
	}
}

func (p *Painter) paintText(screen tcell.Screen, lo *uihost.LaidOut) {
	w := lo.Widget
	lines := uihost.WrapLines(w.Text, lo.Rect.W, w.Wrap)
	style := p.BaseStyle
	for i, line := range lines {
		if i >= lo.Rect.H {
			break
		}
		p.drawLine(screen, lo.Rect.X, lo.Rect.Y+i, lo.Rect.W, line, style)
	}
}

func (p *Painter) paintList(screen tcell.Screen, lo *uihost.LaidOut) {
	w := lo.Widget
	style := p.BaseStyle
	for i, item := range w.Items {
		if i >= lo.Rect.H {
			break
		}
		s := style
		if i == w.Selected {
			s = s.Reverse(true)
		}
		p.drawLine(screen, lo.Rect.X, lo.Rect.Y+i, lo.Rect.W, item, s)
	}
}

func (p *Painter) paintTextInput(screen tcell.Screen, lo *uihost.LaidOut) {
	w := lo.Widget
	text := w.Value
	style := p.BaseStyle
	if text == "" {
		text = w.Placeholder
		style = style.Dim(true)
	}
	p.drawLine(screen, lo.Rect.X, lo.Rect.Y, lo.Rect.W, text, style)
	screen.ShowCursor(lo.Rect.X+runeLen(w.Value), lo.Rect.Y)
}

func (p *Painter) paintSeparator(screen tcell.Screen, lo *uihost.LaidOut) {
	style := p.BaseStyle
	for x := 0; x < lo.Rect.W; x++ {
		for y := 0; y < lo.Rect.H; y++ {
			ch := rune('─')
			if lo.Rect.W <= 1 {
				ch = '│'
			}
			screen.SetContent(lo.Rect.X+x, lo.Rect.Y+y, ch, nil, style)
		}
	}
}

// paintBorder draws a single-line box border, the way
// elleryfamilia-thicc's drawBorder clears/paints a panel's edge before its
// content renders.
func (p *Painter) paintBorder(screen tcell.Screen, rect uihost.Rect) {
	style := p.BaseStyle
	if rect.W < 2 || rect.H < 2 {
		return
	}
	corners := [4]rune{'┌', '┐', '└', '┘'}
	screen.SetContent(rect.X, rect.Y, corners[0], nil, style)
	screen.SetContent(rect.X+rect.W-1, rect.Y, corners[1], nil, style)
	screen.SetContent(rect.X, rect.Y+rect.H-1, corners[2], nil, style)
	screen.SetContent(rect.X+rect.W-1, rect.Y+rect.H-1, corners[3], nil, style)
	for x := rect.X + 1; x < rect.X+rect.W-1; x++ {
		screen.SetContent(x, rect.Y, '─', nil, style)
		screen.SetContent(x, rect.Y+rect.H-1, '─', nil, style)
	}
	for y := rect.Y + 1; y < rect.Y+rect.H-1; y++ {
		screen.SetContent(rect.X, y, '│', nil, style)
		screen.SetContent(rect.X+rect.W-1, y, '│', nil, style)
	}
}

func (p *Painter) drawLine(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	i := 0
	for _, r := range text {
		if i >= width {
			return
		}
		screen.SetContent(x+i, y, r, nil, style)
		i++
	}
	for ; i < width; i++ {
		screen.SetContent(x+i, y, ' ', nil, style)
	}
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
