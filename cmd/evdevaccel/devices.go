package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// deviceInfo describes an input device found during enumeration.
type deviceInfo struct {
	Path string
	Name string
	Caps deviceCaps
}

// displayName is the name shown in listings.
func (d deviceInfo) displayName() string {
	if d.Name == "" {
		return "Unnamed device"
	}
	return d.Name
}

// eligibleDevices keeps the devices that report both REL_X and REL_Y,
// ordered by event node number (event2 before event10).
func eligibleDevices(all []deviceInfo) []deviceInfo {
	var out []deviceInfo
	for _, d := range all {
		if d.Caps.pointerCapable() {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b deviceInfo) int {
		return eventNumber(a.Path) - eventNumber(b.Path)
	})
	return out
}

// eventNumber extracts N from /dev/input/eventN, or -1.
func eventNumber(path string) int {
	base := filepath.Base(path)
	n, err := strconv.Atoi(strings.TrimPrefix(base, "event"))
	if err != nil || !strings.HasPrefix(base, "event") {
		return -1
	}
	return n
}

// selectDevice picks the device to accelerate.
//
// With a name, the first eligible device with exactly that name wins. Without
// one, the eligible devices are listed on out and an index is read from in.
// Every failure is an ErrDeviceSelection.
func selectDevice(devices []deviceInfo, name string, in io.Reader, out io.Writer) (deviceInfo, error) {
	if len(devices) == 0 {
		return deviceInfo{}, fmt.Errorf("%w: no valid devices found (are you in the 'input' user group?)", ErrDeviceSelection)
	}

	if name != "" {
		for _, d := range devices {
			if d.Name == name {
				return d, nil
			}
		}
		fmt.Fprintf(out, "Couldn't find a valid device named %s\n", name)
		fmt.Fprintln(out, "Valid devices:")
		printDevices(out, devices, false)
		return deviceInfo{}, fmt.Errorf("%w: no valid device named %q", ErrDeviceSelection, name)
	}

	printDevices(out, devices, true)
	fmt.Fprintf(out, "Select the device [0-%d]: ", len(devices)-1)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return deviceInfo{}, classify(ErrDeviceSelection, "read selection", err)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return deviceInfo{}, fmt.Errorf("%w: invalid selection %q", ErrDeviceSelection, strings.TrimSpace(line))
	}
	if idx < 0 || idx >= len(devices) {
		return deviceInfo{}, fmt.Errorf("%w: selection %d out of range [0-%d]", ErrDeviceSelection, idx, len(devices)-1)
	}
	return devices[idx], nil
}

// deviceLister enumerates input devices, reporting the ones it skips.
type deviceLister func(skipped func(path string, err error)) ([]deviceInfo, error)

// pickDevice enumerates, filters and selects in one step. The prompt goes to
// out and skipped devices go to logger, so debug records never land inside
// the numbered list.
func pickDevice(list deviceLister, name string, in io.Reader, out io.Writer, logger *slog.Logger) (deviceInfo, error) {
	all, err := list(func(path string, err error) {
		logger.Debug("skipping input device", "device", path, "error", err)
	})
	if err != nil {
		return deviceInfo{}, classify(ErrDeviceSelection, "enumerate input devices", err)
	}
	return selectDevice(eligibleDevices(all), name, in, out)
}

// printDevices writes one device per line, numbered when indexed is set.
func printDevices(out io.Writer, devices []deviceInfo, indexed bool) {
	for i, d := range devices {
		if indexed {
			fmt.Fprintf(out, "%d: %s\n", i, d.displayName())
			continue
		}
		fmt.Fprintln(out, d.displayName())
	}
}
