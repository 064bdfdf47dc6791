package main

// frame accumulates one synchronization frame of raw input.
//
// REL_X and REL_Y motion is summed and consumed; SYN_REPORT completes the
// frame and is consumed too. Every other event, including other EV_SYN codes
// and other relative axes such as the wheel, is kept for passthrough in
// arrival order.
type frame struct {
	dx, dy      int32
	passthrough []inputEvent
}

// add routes one raw event into the frame and reports whether it completed
// the frame.
func (f *frame) add(ev inputEvent) bool {
	switch {
	case ev.isRel(REL_X):
		f.dx += ev.Value
	case ev.isRel(REL_Y):
		f.dy += ev.Value
	case ev.isSynReport():
		return true
	default:
		f.passthrough = append(f.passthrough, ev)
	}
	return false
}

// batch assembles the output for a completed frame: passthrough events in
// arrival order, then X and Y motion. Zero motion is never emitted.
// The returned slice is appended to dst.
func (f *frame) batch(dst []inputEvent, outX, outY int32) []inputEvent {
	dst = append(dst, f.passthrough...)
	if outX != 0 {
		dst = append(dst, relEvent(REL_X, outX))
	}
	if outY != 0 {
		dst = append(dst, relEvent(REL_Y, outY))
	}
	return dst
}

// reset empties the frame, keeping the passthrough buffer's capacity.
func (f *frame) reset() {
	f.dx, f.dy = 0, 0
	f.passthrough = f.passthrough[:0]
}
