package envision

import (
	evdev "github.com/gvalkov/golang-evdev"
)

// PhysicalButtonName returns a human-readable label for a raw button code as
// this hardware actually uses it. Used by the diagnostic tool.
func PhysicalButtonName(code uint16) string {
	if n, ok := physicalButtonNames[code]; ok {
		return n
	}
	return "unknown"
}

// PhysicalAxisName returns a human-readable label for a raw axis code as
// this hardware actually uses it.
func PhysicalAxisName(code uint16) string {
	if n, ok := physicalAxisNames[code]; ok {
		return n
	}
	return "unknown"
}

// CanonicalButtonName returns the standard evdev name of a translated
// button code.
func CanonicalButtonName(code uint16) string {
	if n, ok := canonicalButtonNames[code]; ok {
		return n
	}
	return "unknown"
}

// CanonicalAxisName returns the standard evdev name of a translated axis
// code.
func CanonicalAxisName(code uint16) string {
	if n, ok := canonicalAxisNames[code]; ok {
		return n
	}
	return "unknown"
}

var physicalButtonNames = map[uint16]string{
	evdev.BTN_SOUTH:          "A (BTN_SOUTH)",
	evdev.BTN_EAST:           "B (BTN_EAST)",
	evdev.BTN_C:              "X (BTN_C)",
	evdev.BTN_NORTH:          "Y (BTN_NORTH)",
	evdev.BTN_WEST:           "LB (BTN_WEST)",
	evdev.BTN_Z:              "RB (BTN_Z)",
	evdev.BTN_TL:             "Select/Back (BTN_TL)",
	evdev.BTN_TR:             "Start/Menu (BTN_TR)",
	evdev.BTN_TL2:            "L3 (BTN_TL2)",
	evdev.BTN_TR2:            "R3 (BTN_TR2)",
	evdev.BTN_MODE:           "Guide/Xbox (BTN_MODE)",
	evdev.BTN_TRIGGER_HAPPY1: "Paddle 1",
	evdev.BTN_TRIGGER_HAPPY2: "Paddle 2",
	evdev.BTN_TRIGGER_HAPPY3: "Paddle 3",
	evdev.BTN_TRIGGER_HAPPY4: "Paddle 4",
}

var physicalAxisNames = map[uint16]string{
	evdev.ABS_X:     "Left Stick X",
	evdev.ABS_Y:     "Left Stick Y",
	evdev.ABS_Z:     "Right Stick X (ABS_Z)",
	evdev.ABS_RX:    "Left Trigger (ABS_RX)",
	evdev.ABS_RY:    "Right Trigger (ABS_RY)",
	evdev.ABS_RZ:    "Right Stick Y (ABS_RZ)",
	evdev.ABS_HAT0X: "D-pad X",
	evdev.ABS_HAT0Y: "D-pad Y",
}

var canonicalButtonNames = map[uint16]string{
	evdev.BTN_SOUTH:          "BTN_SOUTH",
	evdev.BTN_EAST:           "BTN_EAST",
	evdev.BTN_NORTH:          "BTN_NORTH",
	evdev.BTN_WEST:           "BTN_WEST",
	evdev.BTN_TL:             "BTN_TL",
	evdev.BTN_TR:             "BTN_TR",
	evdev.BTN_SELECT:         "BTN_SELECT",
	evdev.BTN_START:          "BTN_START",
	evdev.BTN_THUMBL:         "BTN_THUMBL",
	evdev.BTN_THUMBR:         "BTN_THUMBR",
	evdev.BTN_MODE:           "BTN_MODE",
	evdev.BTN_TRIGGER_HAPPY1: "BTN_TRIGGER_HAPPY1",
	evdev.BTN_TRIGGER_HAPPY2: "BTN_TRIGGER_HAPPY2",
	evdev.BTN_TRIGGER_HAPPY3: "BTN_TRIGGER_HAPPY3",
}

var canonicalAxisNames = map[uint16]string{
	evdev.ABS_X:     "ABS_X",
	evdev.ABS_Y:     "ABS_Y",
	evdev.ABS_RX:    "ABS_RX",
	evdev.ABS_RY:    "ABS_RY",
	evdev.ABS_Z:     "ABS_Z",
	evdev.ABS_RZ:    "ABS_RZ",
	evdev.ABS_HAT0X: "ABS_HAT0X",
	evdev.ABS_HAT0Y: "ABS_HAT0Y",
}
