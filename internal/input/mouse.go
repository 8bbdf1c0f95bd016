package input

import (
	"context"

	"github.com/rockorager/prise/internal/proto"
	"github.com/rockorager/prise/internal/uihost"
)

// HandleMouse implements §4.7's mouse path: pixel coordinates convert to
// fractional cell coordinates, mouse.down hit-tests split handles first
// (starting a drag) and surfaces second (emitting mouse_input), drag
// updates adjust the handle's row/column ratio locally until mouse.up,
// and move/wheel events with no active drag forward to whatever surface
// they land on.
func (r *Router) HandleMouse(ctx context.Context, raw RawMouseEvent) error {
	cellX := cellOf(raw.PixelX, r.cellPxW)
	cellY := cellOf(raw.PixelY, r.cellPxH)
	x, y := floorInt(cellX), floorInt(cellY)

	switch raw.EventType {
	case "down":
		if h, ok := uihost.HandleTest(r.handles, x, y); ok {
			r.startDrag(h)
			return nil
		}
	case "up":
		if r.drag != nil {
			r.drag = nil
			return nil
		}
	case "move":
		if r.drag != nil {
			pos := x
			if r.drag.handle.Axis == uihost.AxisHorizontal {
				pos = y
			}
			r.updateDrag(pos)
			return nil
		}
	}

	region, ok := uihost.HitTest(r.regions, x, y)
	if !ok || !region.Surface {
		return nil
	}

	localX := cellX - float64(region.Rect.X)
	localY := cellY - float64(region.Rect.Y)
	desc := proto.MouseDescriptor{
		X: localX, Y: localY,
		Button:    raw.Button,
		EventType: proto.MouseEventType(raw.EventType),
		Shift:     raw.Shift, Ctrl: raw.Ctrl, Alt: raw.Alt,
	}
	return r.client.MouseInput(ctx, region.PTYID, desc)
}

// startDrag begins adjusting the ratio between the two children
// straddling h, locating the row/column container by widget ID within the
// current tree.
func (r *Router) startDrag(h uihost.SplitHandle) {
	container := findWidget(r.tree, h.ParentID)
	if container == nil || h.ChildIndex+1 >= len(container.Children) {
		return
	}

	var mainExtent int
	if lo := findLaidOut(r.laidOut, h.ParentID); lo != nil {
		if h.Axis == uihost.AxisVertical {
			mainExtent = lo.Rect.W
		} else {
			mainExtent = lo.Rect.H
		}
	}
	if mainExtent <= 0 {
		mainExtent = 1
	}

	left, right := container.Children[h.ChildIndex], container.Children[h.ChildIndex+1]
	r.drag = &dragState{
		handle:     h,
		container:  container,
		leftIdx:    h.ChildIndex,
		rightIdx:   h.ChildIndex + 1,
		mainExtent: mainExtent,
		startPos:   segmentStart(h),
		leftStart:  left.Ratio,
		rightStart: right.Ratio,
	}
}

// updateDrag moves the handle to the new cell position pos (measured
// along the drag's axis), computing the ratio shift as the fraction of
// the container's main extent the pointer has moved since the drag
// began — relative to the drag's start, not the previous event, so
// repeated move events don't compound rounding error — then re-lays-out
// and hands the result to the Applier.
func (r *Router) updateDrag(pos int) {
	d := r.drag
	left, right := d.container.Children[d.leftIdx], d.container.Children[d.rightIdx]

	deltaRatio := float64(pos-d.startPos) / float64(d.mainExtent)
	newLeft := d.leftStart + deltaRatio
	newRight := d.rightStart - deltaRatio
	if newLeft < 0.05 || newRight < 0.05 {
		return
	}
	left.Ratio = newLeft
	right.Ratio = newRight

	r.apply.Apply(r.tree)
}

func segmentStart(h uihost.SplitHandle) int {
	if h.Axis == uihost.AxisVertical {
		return h.Segment.X
	}
	return h.Segment.Y
}

func findWidget(w *uihost.Widget, id string) *uihost.Widget {
	if w == nil {
		return nil
	}
	if w.ID == id {
		return w
	}
	for _, c := range w.Children {
		if found := findWidget(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findLaidOut(lo *uihost.LaidOut, id string) *uihost.LaidOut {
	if lo == nil {
		return nil
	}
	if lo.Widget != nil && lo.Widget.ID == id {
		return lo
	}
	for _, c := range lo.Children {
		if found := findLaidOut(c, id); found != nil {
			return found
		}
	}
	return nil
}
