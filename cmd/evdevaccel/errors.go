package main

import (
	"errors"
	"fmt"
)

// Fatal error classes. Every error that stops the process wraps exactly one
// of these so main can report what went wrong; none of them is retried.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrDeviceSelection = errors.New("device selection error")
	ErrAcquisition     = errors.New("device acquisition error")
	ErrCapture         = errors.New("capture error")
	ErrEmission        = errors.New("emission error")
)

// classify wraps err with a taxonomy sentinel and a short context message.
// A nil err stays nil.
func classify(kind error, msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}

// errorKind returns the taxonomy sentinel wrapped by err, or nil.
func errorKind(err error) error {
	for _, kind := range []error{ErrConfiguration, ErrDeviceSelection, ErrAcquisition, ErrCapture, ErrEmission} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
