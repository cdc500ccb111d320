package game

import "time"

// pausedFPS caps the frame rate while paused so an idle window does not
// spin.
const pausedFPS = 30

// FPSLimiter provides high-precision frame rate limiting.
type FPSLimiter struct {
	limit int
	next  time.Time
}

// NewFPSLimiter returns a limiter for limit frames per second; 0 or less
// disables it.
func NewFPSLimiter(limit int) *FPSLimiter {
	return &FPSLimiter{limit: limit}
}

func (f *FPSLimiter) SetLimit(limit int) {
	f.limit = limit
	f.next = time.Time{}
}

// Interval returns the frame period for the current state, or 0 when
// unlimited.
func (f *FPSLimiter) Interval(paused bool) time.Duration {
	limit := f.limit
	if paused && (limit <= 0 || limit > pausedFPS) {
		limit = pausedFPS
	}
	if limit <= 0 {
		return 0
	}
	return time.Second / time.Duration(limit)
}

// Wait blocks until the next frame is due. It sleeps most of the interval
// and spins for the last 200µs.
func (f *FPSLimiter) Wait(paused bool) {
	target := f.Interval(paused)
	if target == 0 {
		f.next = time.Time{}
		return
	}

	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// resync after a hitch instead of rushing to catch up
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}
