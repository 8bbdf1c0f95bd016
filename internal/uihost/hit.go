package uihost

// Axis is the direction a split handle's drag adjusts.
type Axis string

const (
	AxisVertical   Axis = "vertical"   // boundary between row children; drag moves x
	AxisHorizontal Axis = "horizontal" // boundary between column children; drag moves y
)

// HitRegion is one absolute rectangle collected during the layout walk,
// tagged with the widget that produced it (or the PTY ID, for surface
// widgets) per §4.6.
type HitRegion struct {
	Rect     Rect
	WidgetID string
	PTYID    int
	Surface  bool
}

// SplitHandle is the one-cell-wide/tall boundary between two adjacent
// row/column children, used to start a ratio-adjusting drag (§4.7).
type SplitHandle struct {
	Segment    Rect
	ParentID   string
	Axis       Axis
	ChildIndex int // boundary sits between children ChildIndex and ChildIndex+1
}

// Collect walks a laid-out tree in paint order and returns every hit
// region and split handle in it. Hit testing is last-wins (§4.6): a caller
// resolving a point should scan the returned slice from the end and take
// the first match.
func Collect(lo *LaidOut) ([]HitRegion, []SplitHandle) {
	var regions []HitRegion
	var handles []SplitHandle
	collect(lo, &regions, &handles)
	return regions, handles
}

func collect(lo *LaidOut, regions *[]HitRegion, handles *[]SplitHandle) {
	if lo == nil || lo.Widget == nil {
		return
	}
	if lo.Rect.W > 0 && lo.Rect.H > 0 {
		*regions = append(*regions, HitRegion{
			Rect:     lo.Rect,
			WidgetID: lo.Widget.ID,
			PTYID:    lo.Widget.PTYID,
			Surface:  lo.Widget.Kind == KindSurface,
		})
	}

	if lo.Widget.Kind == KindRow || lo.Widget.Kind == KindColumn {
		axis := AxisVertical
		if lo.Widget.Kind == KindColumn {
			axis = AxisHorizontal
		}
		for i := 0; i+1 < len(lo.Children); i++ {
			a, b := lo.Children[i].Rect, lo.Children[i+1].Rect
			var seg Rect
			if axis == AxisVertical {
				seg = Rect{X: a.X + a.W, Y: a.Y, W: b.X - (a.X + a.W), H: maxInt(a.H, b.H)}
				if seg.W <= 0 {
					seg.W = 1
				}
			} else {
				seg = Rect{X: a.X, Y: a.Y + a.H, W: maxInt(a.W, b.W), H: b.Y - (a.Y + a.H)}
				if seg.H <= 0 {
					seg.H = 1
				}
			}
			*handles = append(*handles, SplitHandle{Segment: seg, ParentID: lo.Widget.ID, Axis: axis, ChildIndex: i})
		}
	}

	for _, child := range lo.Children {
		collect(child, regions, handles)
	}
}

// HitTest resolves (x, y) against regions using last-wins precedence,
// reporting the winning region's PTY ID when it is a surface.
func HitTest(regions []HitRegion, x, y int) (HitRegion, bool) {
	for i := len(regions) - 1; i >= 0; i-- {
		if regions[i].Rect.Contains(x, y) {
			return regions[i], true
		}
	}
	return HitRegion{}, false
}

// HandleTest resolves (x, y) against split handles, last-wins.
func HandleTest(handles []SplitHandle, x, y int) (SplitHandle, bool) {
	for i := len(handles) - 1; i >= 0; i-- {
		if handles[i].Segment.Contains(x, y) {
			return handles[i], true
		}
	}
	return SplitHandle{}, false
}
