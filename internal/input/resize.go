package input

import (
	"context"

	"github.com/rockorager/prise/internal/uihost"
)

// Relayouter recomputes a fresh uihost.LaidOut for the given outer
// dimensions (rows, cols), supplied by the client's main loop, which owns
// the current tree and terminal screen Router has no reference to.
type Relayouter func(rows, cols int) *uihost.LaidOut

// HandleWinsize implements §4.7's resize path: recompute cell pixel
// metrics, resubmit layout, and resize every visible surface whose
// allocated cell dimensions changed since the last layout — keyed by PTY
// ID, so a PTY mounted in two surfaces at once (not a configuration the
// core UI primitives produce, but not forbidden by the widget tree
// either) is resized to whichever surface's dimensions were collected
// last in the walk.
func (r *Router) HandleWinsize(ctx context.Context, rows, cols int, cellPxW, cellPxH float64, relayout Relayouter) error {
	r.SetCellPixelSize(cellPxW, cellPxH)

	lo := relayout(rows, cols)
	r.SetLayout(r.tree, lo)

	for _, region := range r.regions {
		if !region.Surface {
			continue
		}
		size := uihost.Size{W: region.Rect.W, H: region.Rect.H}
		if prev, ok := r.lastSize[region.PTYID]; ok && prev == size {
			continue
		}
		r.lastSize[region.PTYID] = size
		if err := r.client.ResizePTY(ctx, region.PTYID, size.H, size.W); err != nil {
			return err
		}
	}
	return nil
}
