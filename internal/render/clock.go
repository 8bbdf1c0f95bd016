package render

import (
	"sync"
	"time"
)

// FrameClock enforces §4.6's minimum frame interval: "every incoming flush
// schedules a render attempt; if the interval since the last paint hasn't
// elapsed, a single timer is armed for the remainder, and additional flush
// events within that window are coalesced into it" rather than each
// spawning its own timer.
type FrameClock struct {
	minInterval time.Duration

	mu        sync.Mutex
	lastPaint time.Time
	pending   bool

	now func() time.Time // overridable for tests
}

// NewFrameClock builds a clock enforcing minInterval between paints.
func NewFrameClock(minInterval time.Duration) *FrameClock {
	return &FrameClock{minInterval: minInterval, now: time.Now}
}

// RequestFrame asks for a repaint. paint runs synchronously if the minimum
// interval has already elapsed; otherwise it is deferred to a coalescing
// timer that fires once, at the end of the remaining window, regardless of
// how many more RequestFrame calls arrive before then.
func (f *FrameClock) RequestFrame(paint func()) {
	f.mu.Lock()
	now := f.now()
	elapsed := now.Sub(f.lastPaint)
	if elapsed >= f.minInterval {
		f.lastPaint = now
		f.mu.Unlock()
		paint()
		return
	}
	if f.pending {
		f.mu.Unlock()
		return
	}
	f.pending = true
	remaining := f.minInterval - elapsed
	f.mu.Unlock()

	time.AfterFunc(remaining, func() {
		f.mu.Lock()
		f.lastPaint = f.now()
		f.pending = false
		f.mu.Unlock()
		paint()
	})
}
