//go:build !linux

package main

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("evdev/uinput requires linux (running on " + runtime.GOOS + ")")

type evdevDevice struct {
	inputDevice
}

func openEvdevDevice(path string) (*evdevDevice, error) {
	return nil, errUnsupported
}

func listInputDevices(skipped func(path string, err error)) ([]deviceInfo, error) {
	return nil, errUnsupported
}

func newVirtualSink(caps deviceCaps) (virtualSink, error) {
	return nil, errUnsupported
}
