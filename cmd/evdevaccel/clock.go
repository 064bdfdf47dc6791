package main

import "time"

// frameClock measures the time between consecutive flushed frames.
//
// This is intended to be called only by the accelerator loop (single-owner).
type frameClock struct {
	now  func() time.Time
	last time.Time
}

// newFrameClock starts the clock. The first frame is measured from this call,
// which the accelerator makes right after the device grab.
func newFrameClock(now func() time.Time) *frameClock {
	if now == nil {
		now = time.Now
	}
	return &frameClock{now: now, last: now()}
}

// tick returns the milliseconds elapsed since the previous tick, clamped to
// [minFrameMS, maxFrameMS], and starts the next interval.
func (c *frameClock) tick() float32 {
	t := c.now()
	elapsed := t.Sub(c.last)
	c.last = t
	return clampFrameMS(float32(float64(elapsed) / float64(time.Millisecond)))
}

func clampFrameMS(ms float32) float32 {
	if ms < minFrameMS {
		return minFrameMS
	}
	if ms > maxFrameMS {
		return maxFrameMS
	}
	return ms
}
