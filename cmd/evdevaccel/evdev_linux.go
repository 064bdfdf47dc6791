//go:build linux

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uint {
	return uint((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
func eviocgname(size int) uint {
	return ioc(iocRead, 'E', 0x06, uint32(size))
}

// EVIOCGBIT(ev, len) = _IOC(_IOC_READ, 'E', 0x20 + ev, len)
func eviocgbit(evType, size int) uint {
	return ioc(iocRead, 'E', uint32(0x20+evType), uint32(size))
}

// EVIOCGRAB = _IOW('E', 0x90, int)
var eviocgrab = ioc(iocWrite, 'E', 0x90, uint32(unsafe.Sizeof(int32(0))))

// ioctlBuf issues an ioctl whose argument points at buf, either to fill it
// or to pass a struct to the kernel.
func ioctlBuf(fd uintptr, req uint, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}

// withFd runs fn on the raw descriptor without switching the file to
// blocking mode (os.File.Fd would), so Close can still interrupt a Read.
func withFd(f *os.File, fn func(fd uintptr) error) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := rc.Control(func(fd uintptr) { opErr = fn(fd) }); err != nil {
		return err
	}
	return opErr
}

// evdevDevice is a physical input device opened from /dev/input.
type evdevDevice struct {
	f    *os.File
	info deviceInfo

	parser eventParser
	buf    []byte
}

// openEvdevDevice opens path read-only and reads its name and capabilities.
func openEvdevDevice(path string) (*evdevDevice, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	info, err := queryDevice(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &evdevDevice{
		f:      f,
		info:   info,
		parser: eventParser{codec: nativeCodec},
		buf:    make([]byte, readBatchEvents*nativeCodec.size()),
	}, nil
}

func queryDevice(f *os.File, path string) (deviceInfo, error) {
	info := deviceInfo{
		Path: path,
		Caps: deviceCaps{
			Rel: newBitset(REL_MAX),
			Key: newBitset(KEY_MAX),
			Msc: newBitset(MSC_MAX),
		},
	}
	err := withFd(f, func(fd uintptr) error {
		name := make([]byte, 256)
		if err := ioctlBuf(fd, eviocgname(len(name)), name); err != nil {
			return fmt.Errorf("EVIOCGNAME: %w", err)
		}
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		info.Name = string(name)

		evBits := newBitset(EV_MAX)
		if err := ioctlBuf(fd, eviocgbit(0, len(evBits)), evBits); err != nil {
			return fmt.Errorf("EVIOCGBIT(0): %w", err)
		}
		for _, c := range []struct {
			evType int
			bits   bitset
		}{
			{EV_REL, info.Caps.Rel},
			{EV_KEY, info.Caps.Key},
			{EV_MSC, info.Caps.Msc},
		} {
			if !evBits.has(c.evType) {
				continue
			}
			if err := ioctlBuf(fd, eviocgbit(c.evType, len(c.bits)), c.bits); err != nil {
				return fmt.Errorf("EVIOCGBIT(0x%02x): %w", c.evType, err)
			}
		}
		return nil
	})
	return info, err
}

// listInputDevices probes every /dev/input/event* node. Nodes that cannot be
// opened (usually permissions) are skipped and reported through skipped.
func listInputDevices(skipped func(path string, err error)) ([]deviceInfo, error) {
	paths, err := filepath.Glob(inputDeviceGlob)
	if err != nil {
		return nil, err
	}
	var out []deviceInfo
	for _, p := range paths {
		d, err := openEvdevDevice(p)
		if err != nil {
			if skipped != nil {
				skipped(p, err)
			}
			continue
		}
		out = append(out, d.info)
		d.Close()
	}
	return out, nil
}

func (d *evdevDevice) Path() string             { return d.info.Path }
func (d *evdevDevice) Name() string             { return d.info.Name }
func (d *evdevDevice) Capabilities() deviceCaps { return d.info.Caps }

// Grab takes exclusive delivery of the device's events. The grab is released
// when the descriptor is closed.
func (d *evdevDevice) Grab() error {
	return withFd(d.f, func(fd uintptr) error {
		return unix.IoctlSetInt(int(fd), eviocgrab, 1)
	})
}

// ReadBatch blocks until the kernel delivers at least one complete event and
// returns everything that one read produced.
func (d *evdevDevice) ReadBatch() ([]inputEvent, error) {
	for {
		n, err := d.f.Read(d.buf)
		if err != nil {
			return nil, err
		}
		if events := d.parser.feed(d.buf[:n]); len(events) > 0 {
			return events, nil
		}
	}
}

func (d *evdevDevice) Close() error {
	return d.f.Close()
}
