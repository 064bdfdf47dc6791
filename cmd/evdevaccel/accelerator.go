package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Accelerator loop
// ============================================================================
//
// One goroutine owns all per-frame state (frame, carry, clock):
//
//   Accumulating: block on the next raw batch, route each event into the frame
//   Flushing:     on SYN_REPORT compute dt, accelerate, emit exactly one batch
//                 (passthrough events, then non-zero X, then non-zero Y)
//
// Nothing reaches the sink outside Flushing. Motion accumulated after the last
// SYN_REPORT is dropped at shutdown.
// ============================================================================

// eventSource is the grabbed physical device as seen by the loop.
// ReadBatch blocks until at least one event is available and returns events
// in the order the kernel delivered them.
type eventSource interface {
	ReadBatch() ([]inputEvent, error)
}

// eventSink injects one frame of events. The batch must be written atomically
// and terminated with a SYN_REPORT. Implementations must not retain events
// after Emit returns.
type eventSink interface {
	Emit(events []inputEvent) error
}

// virtualSink is an eventSink owning an OS resource.
type virtualSink interface {
	eventSink
	Close() error
}

// inputDevice is an opened evdev device.
type inputDevice interface {
	eventSource
	Path() string
	Name() string
	Capabilities() deviceCaps
	Grab() error
	Close() error
}

// sinkFactory creates the virtual device mirroring the source capabilities.
type sinkFactory func(caps deviceCaps) (virtualSink, error)

type accelerator struct {
	curve  Curve
	sink   eventSink
	clock  *frameClock
	logger *slog.Logger

	carry carryState
	frame frame
	out   []inputEvent

	frames uint64
}

func newAccelerator(curve Curve, sink eventSink, clock *frameClock, logger *slog.Logger) *accelerator {
	return &accelerator{
		curve:  curve,
		sink:   sink,
		clock:  clock,
		logger: logger,
		out:    make([]inputEvent, 0, 16),
	}
}

// process routes one raw batch. A batch may hold several frames; each
// SYN_REPORT flushes its own frame.
func (a *accelerator) process(batch []inputEvent) error {
	for _, ev := range batch {
		if !a.frame.add(ev) {
			continue
		}
		if err := a.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (a *accelerator) flush() error {
	dt := a.clock.tick()
	x, y := accelerate(a.frame.dx, a.frame.dy, &a.carry, a.curve, dt)

	a.out = a.frame.batch(a.out[:0], x, y)
	a.frame.reset()
	a.frames++

	if err := a.sink.Emit(a.out); err != nil {
		return classify(ErrEmission, "write virtual device", err)
	}
	return nil
}

// run pulls batches until the source fails. It never returns nil.
func (a *accelerator) run(src eventSource) error {
	for {
		batch, err := src.ReadBatch()
		if err != nil {
			return classify(ErrCapture, "read input device", err)
		}
		if err := a.process(batch); err != nil {
			return err
		}
	}
}

// runOptions controls how runAccelerator acquires the device.
type runOptions struct {
	Curve   Curve
	Grab    bool // Exclusive grab; false only for dry runs
	NewSink sinkFactory
	Now     func() time.Time
}

// runAccelerator grabs dev, builds the virtual device and runs the loop until
// ctx is canceled (clean exit, nil) or a fatal error occurs.
//
// Shutdown closes dev, which unblocks the pending read and releases the grab.
func runAccelerator(ctx context.Context, dev inputDevice, opts runOptions, logger *slog.Logger) error {
	if opts.Grab {
		if err := dev.Grab(); err != nil {
			return classify(ErrAcquisition, "grab "+dev.Path(), err)
		}
		logger.Debug("device grabbed", "device", dev.Path())
	}

	sink, err := opts.NewSink(dev.Capabilities())
	if err != nil {
		return classify(ErrEmission, "create virtual device", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to destroy virtual device", "error", err)
		}
	}()

	acc := newAccelerator(opts.Curve, sink, newFrameClock(opts.Now), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return acc.run(dev)
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = dev.Close()
		return nil
	})

	logger.Info("accelerating", "device", dev.Path(), "name", dev.Name())
	err = g.Wait()

	logger.Debug("accelerator stopped", "frames", acc.frames)
	if ctx.Err() != nil && errors.Is(err, ErrCapture) {
		// The read failed because we closed the device for shutdown.
		return nil
	}
	return err
}

// logSink is the dry-run sink: it reports each emission instead of injecting it.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Emit(events []inputEvent) error {
	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return nil
	}
	var dx, dy int32
	passthrough := 0
	for _, ev := range events {
		switch {
		case ev.isRel(REL_X):
			dx = ev.Value
		case ev.isRel(REL_Y):
			dy = ev.Value
		default:
			passthrough++
		}
	}
	s.logger.Debug("frame", "dx", dx, "dy", dy, "passthrough", passthrough)
	return nil
}

func (logSink) Close() error { return nil }
