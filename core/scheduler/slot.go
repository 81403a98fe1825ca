package scheduler

import (
	"math"

	"github.com/kilianp07/fleetcharge/core/model"
)

const eps = 1e-9

// Slot is a free interval on one station.
type Slot struct {
	StartH float64
	EndH   float64
}

// Duration returns the slot length in hours.
func (s Slot) Duration() float64 { return s.EndH - s.StartH }

// FindSlot returns the longest free interval of bookings inside
// [reqStart, reqEnd]. Each gap between bookings is shrunk by gap on both
// sides; the space before the first and after the last booking is open on
// the outer side. Equal durations resolve to the earliest interval. The
// result is rejected when shorter than minDur. bookings must be ordered by
// start time.
func FindSlot(bookings []model.Session, reqStart, reqEnd, minDur, gap float64) (Slot, bool) {
	var best Slot
	found := false
	consider := func(lo, hi float64) {
		lo = math.Max(lo, reqStart)
		hi = math.Min(hi, reqEnd)
		d := hi - lo
		if d <= eps || d < minDur-eps {
			return
		}
		if !found || d > best.Duration()+eps {
			best = Slot{StartH: lo, EndH: hi}
			found = true
		}
	}
	prevEnd := math.Inf(-1)
	for _, b := range bookings {
		consider(prevEnd+gap, b.StartH-gap)
		prevEnd = b.EndH
	}
	consider(prevEnd+gap, math.Inf(1))
	return best, found
}
