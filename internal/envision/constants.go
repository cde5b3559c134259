// Package envision holds the hardware constants and translation tables for
// the SCUF Envision Pro V2.
//
// The controller reports wildly non-standard evdev button and axis codes.
// The tables here map the physical device's codes to the standard Xbox
// gamepad codes the rest of the system expects. Derived from Scufpad (C#),
// the cacique-envision-pro-linux project and hardware testing.
package envision

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// USB identifiers. Corsair is SCUF's parent company.
const (
	VendorID          = 0x1B1C
	ProductIDWired    = 0x3A05 // SCUF Envision Pro Controller V2 (wired)
	ProductIDReceiver = 0x3A09 // SCUF Envision Pro Wireless USB Receiver V2
)

// Identity advertised by the virtual device so games recognize it as an
// Xbox-class controller (matches the Xbox Elite 2).
const (
	VirtualDeviceName = "SCUF Envision Pro V2 (Xbox Mode)"
	VirtualVendor     = 0x045E
	VirtualProduct    = 0x0B13
	VirtualVersion    = 0x0001
)

// ButtonMap translates the controller's physical button codes to canonical
// Xbox codes. The face buttons use the Xbox ABXY layout: Y top, X left,
// B right, A bottom.
var ButtonMap = map[uint16]uint16{
	evdev.BTN_SOUTH: evdev.BTN_SOUTH,  // A (correct)
	evdev.BTN_EAST:  evdev.BTN_EAST,   // B (correct)
	evdev.BTN_C:     evdev.BTN_NORTH,  // X arrives as BTN_C
	evdev.BTN_NORTH: evdev.BTN_WEST,   // Y arrives as BTN_NORTH
	evdev.BTN_WEST:  evdev.BTN_TL,     // LB arrives as BTN_WEST
	evdev.BTN_Z:     evdev.BTN_TR,     // RB arrives as BTN_Z
	evdev.BTN_TL:    evdev.BTN_SELECT, // Select/Back arrives as BTN_TL
	evdev.BTN_TR:    evdev.BTN_START,  // Start/Menu arrives as BTN_TR
	evdev.BTN_TL2:   evdev.BTN_THUMBL, // L3 arrives as BTN_TL2
	evdev.BTN_TR2:   evdev.BTN_THUMBR, // R3 arrives as BTN_TR2
	evdev.BTN_MODE:  evdev.BTN_MODE,   // Guide/Xbox button (correct)
}

// PaddleMap covers the three rear paddles. They already arrive on the Xbox
// Elite paddle slots.
var PaddleMap = map[uint16]uint16{
	evdev.BTN_TRIGGER_HAPPY1: evdev.BTN_TRIGGER_HAPPY1,
	evdev.BTN_TRIGGER_HAPPY2: evdev.BTN_TRIGGER_HAPPY2,
	evdev.BTN_TRIGGER_HAPPY3: evdev.BTN_TRIGGER_HAPPY3,
}

// AxisMap translates physical axis codes to canonical Xbox axis codes.
// Right stick and triggers are scrambled on the wire.
var AxisMap = map[uint16]uint16{
	evdev.ABS_X:     evdev.ABS_X,     // Left stick X (correct)
	evdev.ABS_Y:     evdev.ABS_Y,     // Left stick Y (correct)
	evdev.ABS_Z:     evdev.ABS_RX,    // Right stick X arrives as ABS_Z
	evdev.ABS_RX:    evdev.ABS_Z,     // Left trigger arrives as ABS_RX
	evdev.ABS_RY:    evdev.ABS_RZ,    // Right trigger arrives as ABS_RY
	evdev.ABS_RZ:    evdev.ABS_RY,    // Right stick Y arrives as ABS_RZ
	evdev.ABS_HAT0X: evdev.ABS_HAT0X, // D-pad X (correct)
	evdev.ABS_HAT0Y: evdev.ABS_HAT0Y, // D-pad Y (correct)
}

// Canonical axis ranges.
const (
	StickMin   = -32768
	StickMax   = 32767
	TriggerMin = 0
	TriggerMax = 1023
)

// AbsInfo describes the range metadata for one canonical axis on the
// virtual device, mirroring struct input_absinfo.
type AbsInfo struct {
	Min  int32
	Max  int32
	Fuzz int32
	Flat int32
}

// AxisInfo declares the range metadata for every canonical axis the virtual
// device advertises.
var AxisInfo = map[uint16]AbsInfo{
	evdev.ABS_X:     {Min: StickMin, Max: StickMax, Fuzz: 16, Flat: 128},
	evdev.ABS_Y:     {Min: StickMin, Max: StickMax, Fuzz: 16, Flat: 128},
	evdev.ABS_RX:    {Min: StickMin, Max: StickMax, Fuzz: 16, Flat: 128},
	evdev.ABS_RY:    {Min: StickMin, Max: StickMax, Fuzz: 16, Flat: 128},
	evdev.ABS_Z:     {Min: TriggerMin, Max: TriggerMax},
	evdev.ABS_RZ:    {Min: TriggerMin, Max: TriggerMax},
	evdev.ABS_HAT0X: {Min: -1, Max: 1},
	evdev.ABS_HAT0Y: {Min: -1, Max: 1},
}

// Filter defaults, tuned against this hardware's noise floor on a wired
// connection. Not derived from anything; measured.
const (
	DefaultStickDeadzone   = 3500 // ~10.7% radial deadzone
	DefaultTriggerDeadzone = 10
	DefaultJitterThreshold = 64
)

// DefaultPollTimeoutMs bounds the event-loop wait, ~250 Hz.
const DefaultPollTimeoutMs = 4
