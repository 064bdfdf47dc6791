package main

// Linux input event types and codes (from <linux/input-event-codes.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03
	EV_MSC = 0x04

	SYN_REPORT  = 0x00
	SYN_DROPPED = 0x03

	REL_X     = 0x00
	REL_Y     = 0x01
	REL_WHEEL = 0x08

	BTN_LEFT  = 0x110
	BTN_RIGHT = 0x111

	MSC_SCAN = 0x04

	// Highest code per type; capability bitmaps are sized from these.
	EV_MAX  = 0x1f
	KEY_MAX = 0x2ff
	REL_MAX = 0x0f
	MSC_MAX = 0x07

	BUS_USB     = 0x03
	BUS_VIRTUAL = 0x06
)

// Frame timing
const (
	minFrameMS = 1.0   // Lower clamp for the time between SYN_REPORTs (ms)
	maxFrameMS = 100.0 // Upper clamp, keeps idle gaps from decelerating the next motion (ms)
)

// Device plumbing
const (
	inputDeviceGlob   = "/dev/input/event*"
	uinputPath        = "/dev/uinput"
	virtualDeviceName = "evdev-accel virtual device"
	virtualVendorID   = 0x1234
	virtualProductID  = 0x5678

	// Events requested per read(2); the kernel returns whole events only.
	readBatchEvents = 64
)

// Configuration defaults
const (
	defaultConfigPath = "~/.config/evdev-accel/config.toml"
	defaultLogLevel   = "info"
)
