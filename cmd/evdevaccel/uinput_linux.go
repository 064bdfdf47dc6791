//go:build linux

package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// uinput ioctls (from <linux/uinput.h>)
var (
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
	uiDevSetup   = ioc(iocWrite, 'U', 3, uint32(binary.Size(uinputSetup{})))
	uiSetEvBit   = ioc(iocWrite, 'U', 100, 4)
	uiSetKeyBit  = ioc(iocWrite, 'U', 101, 4)
	uiSetRelBit  = ioc(iocWrite, 'U', 102, 4)
	uiSetMscBit  = ioc(iocWrite, 'U', 104, 4)
)

const (
	uinputMaxNameSize = 80
	absCnt            = 64
)

// translated to go from input.h
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// translated to go from uinput.h (kernel 4.5+)
type uinputSetup struct {
	ID           inputID
	Name         [uinputMaxNameSize]byte
	FFEffectsMax uint32
}

// translated to go from uinput.h (legacy write interface)
type uinputUserDev struct {
	Name         [uinputMaxNameSize]byte
	ID           inputID
	FFEffectsMax uint32
	Absmax       [absCnt]int32
	Absmin       [absCnt]int32
	Absfuzz      [absCnt]int32
	Absflat      [absCnt]int32
}

// uinputDevice is the virtual pointer the accelerated motion is injected into.
type uinputDevice struct {
	f     *os.File
	codec eventCodec
	buf   []byte
}

// newUinputDevice creates a virtual device with the relative axes, keys and
// MSC codes of caps.
func newUinputDevice(name string, caps deviceCaps) (*uinputDevice, error) {
	f, err := os.OpenFile(uinputPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uinputPath, err)
	}
	d := &uinputDevice{f: f, codec: nativeCodec}

	if err := d.setup(name, caps); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func (d *uinputDevice) setup(name string, caps deviceCaps) error {
	err := withFd(d.f, func(fd uintptr) error {
		for _, c := range []struct {
			evType int
			req    uint
			bits   bitset
		}{
			{EV_REL, uiSetRelBit, caps.Rel},
			{EV_KEY, uiSetKeyBit, caps.Key},
			{EV_MSC, uiSetMscBit, caps.Msc},
		} {
			codes := c.bits.codes()
			if len(codes) == 0 {
				continue
			}
			if err := unix.IoctlSetInt(int(fd), uiSetEvBit, c.evType); err != nil {
				return fmt.Errorf("UI_SET_EVBIT(0x%02x): %w", c.evType, err)
			}
			for _, code := range codes {
				if err := unix.IoctlSetInt(int(fd), c.req, code); err != nil {
					return fmt.Errorf("set bit 0x%03x for type 0x%02x: %w", code, c.evType, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := d.writeIdentity(name); err != nil {
		return err
	}

	return withFd(d.f, func(fd uintptr) error {
		if err := unix.IoctlSetInt(int(fd), uiDevCreate, 0); err != nil {
			return fmt.Errorf("UI_DEV_CREATE: %w", err)
		}
		return nil
	})
}

// writeIdentity sets the device name and IDs with UI_DEV_SETUP, falling back
// to writing a uinput_user_dev on kernels that predate it.
func (d *uinputDevice) writeIdentity(name string) error {
	id := inputID{
		Bustype: BUS_USB,
		Vendor:  virtualVendorID,
		Product: virtualProductID,
	}

	setup := uinputSetup{ID: id}
	copy(setup.Name[:uinputMaxNameSize-1], name)
	b, err := encodeNative(&setup)
	if err != nil {
		return fmt.Errorf("encode uinput_setup: %w", err)
	}
	err = withFd(d.f, func(fd uintptr) error {
		return ioctlBuf(fd, uiDevSetup, b)
	})
	if err == nil {
		return nil
	}
	if !legacySetupFallback(err) {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}

	dev := uinputUserDev{ID: id}
	copy(dev.Name[:uinputMaxNameSize-1], name)
	if b, err = encodeNative(&dev); err != nil {
		return fmt.Errorf("encode uinput_user_dev: %w", err)
	}
	if _, err := d.f.Write(b); err != nil {
		return fmt.Errorf("write uinput_user_dev: %w", err)
	}
	return nil
}

// legacySetupFallback reports whether a UI_DEV_SETUP failure means the kernel
// does not know the ioctl.
func legacySetupFallback(err error) bool {
	return errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL)
}

func encodeNative(v any) ([]byte, error) {
	var b bytes.Buffer
	if err := binary.Write(&b, binary.NativeEndian, v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Emit writes events followed by a SYN_REPORT in a single write, so readers
// of the virtual device see the whole frame at once.
func (d *uinputDevice) Emit(events []inputEvent) error {
	d.buf = d.buf[:0]
	for _, ev := range events {
		d.buf = d.codec.encode(d.buf, ev)
	}
	d.buf = d.codec.encode(d.buf, inputEvent{Type: EV_SYN, Code: SYN_REPORT})

	n, err := d.f.Write(d.buf)
	if err != nil {
		return err
	}
	if n != len(d.buf) {
		return io.ErrShortWrite
	}
	return nil
}

// Close destroys the virtual device.
func (d *uinputDevice) Close() error {
	destroyErr := withFd(d.f, func(fd uintptr) error {
		return unix.IoctlSetInt(int(fd), uiDevDestroy, 0)
	})
	if err := d.f.Close(); err != nil {
		return err
	}
	return destroyErr
}

// newVirtualSink is the sinkFactory used outside dry runs.
func newVirtualSink(caps deviceCaps) (virtualSink, error) {
	d, err := newUinputDevice(virtualDeviceName, caps)
	if err != nil {
		return nil, err
	}
	return d, nil
}
