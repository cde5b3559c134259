// Package discovery locates the SCUF Envision Pro V2 among the input nodes
// the kernel exposes.
//
// The controller surfaces several sub-interfaces behind the same VID:PID:
// the primary analog gamepad, plus companion interfaces (consumer-control
// keys, mouse/kbd emulation) that leak uncoordinated input and must be
// grabbed and silenced. Selection prefers the node the kernel gave a
// joystick-class handler, falls back to a capability probe, and as a last
// resort takes the numerically-first match.
package discovery

import (
	"errors"
	"log/slog"
	"sort"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
)

// ErrNotFound is returned when no matching hardware is present. Callers
// treat it as retryable: the device may be unplugged, not yet enumerated,
// or waiting on permissions.
var ErrNotFound = errors.New("no SCUF Envision Pro V2 controller found")

// ConnectionType records which product identifier matched the primary node.
type ConnectionType int

const (
	Wired ConnectionType = iota
	Wireless
)

func (c ConnectionType) String() string {
	if c == Wireless {
		return "wireless"
	}
	return "wired"
}

// Candidate is one enumerated input node with the metadata the selection
// algorithm needs. Produced by an Enumerator from sysfs (or synthetic data
// in tests).
type Candidate struct {
	EventPath   string
	EventNumber int
	Name        string
	Vendor      uint16
	Product     uint16

	// HasJoystickHandler reports a js* handler sibling. Only the analog
	// gamepad interface ever gets one.
	HasJoystickHandler bool

	// Declared capability codes by event type.
	AbsCodes []uint16
	KeyCodes []uint16
}

// Discovered is the immutable result of one discovery pass. Node
// identifiers are not stable across replug, so a fresh instance is
// produced on every pass.
type Discovered struct {
	Primary    Candidate
	Secondary  []Candidate
	HidrawPath string
	Connection ConnectionType
}

// Enumerator abstracts the kernel's device enumeration so selection is
// testable without hardware.
type Enumerator interface {
	// InputNodes lists every evdev input node with its metadata.
	InputNodes() ([]Candidate, error)
	// HidrawNodes lists raw-HID nodes with their USB identifiers.
	HidrawNodes() ([]HidrawNode, error)
}

// HidrawNode is one /dev/hidrawN device with the IDs parsed from its
// uevent.
type HidrawNode struct {
	Path    string
	Vendor  uint16
	Product uint16
}

// Discover runs one discovery pass. It never fails on I/O problems; any
// outcome other than a usable match is reported as ErrNotFound.
func Discover(enum Enumerator, logger *slog.Logger) (*Discovered, error) {
	nodes, err := enum.InputNodes()
	if err != nil {
		logger.Debug("input node enumeration failed", "error", err)
		return nil, ErrNotFound
	}

	var matches []Candidate
	for _, n := range nodes {
		if n.Vendor != envision.VendorID {
			continue
		}
		if n.Product != envision.ProductIDWired && n.Product != envision.ProductIDReceiver {
			continue
		}
		logger.Debug("found SCUF input node",
			"path", n.EventPath, "name", n.Name, "joystick", n.HasJoystickHandler)
		matches = append(matches, n)
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	// Stable numeric ordering so the fallback path is deterministic.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EventNumber < matches[j].EventNumber
	})

	primary, ok := selectPrimary(matches)
	if !ok {
		logger.Warn("no joystick handler or gamepad capabilities found, using first matching node",
			"path", matches[primary].EventPath)
	}

	d := &Discovered{Primary: matches[primary]}
	for i, m := range matches {
		if i != primary {
			d.Secondary = append(d.Secondary, m)
		}
	}
	if d.Primary.Product == envision.ProductIDReceiver {
		d.Connection = Wireless
	}
	d.HidrawPath = resolveHidraw(enum, d.Primary, logger)

	logger.Info("selected primary gamepad",
		"path", d.Primary.EventPath, "name", d.Primary.Name, "connection", d.Connection.String())
	for _, s := range d.Secondary {
		logger.Info("secondary input node", "path", s.EventPath, "name", s.Name)
	}
	return d, nil
}

// selectPrimary returns the index of the primary gamepad interface. A
// joystick handler sibling is decisive; otherwise a node must declare both
// principal stick axes and at least one button drawn from this hardware's
// raw gamepad codes (the raw codes, not the canonical ones — the hardware
// reports non-standard codes and the two sets must not be conflated).
func selectPrimary(matches []Candidate) (int, bool) {
	for i, m := range matches {
		if m.HasJoystickHandler {
			return i, true
		}
	}
	for i, m := range matches {
		if hasGamepadCapabilities(m) {
			return i, true
		}
	}
	return 0, false
}

func hasGamepadCapabilities(c Candidate) bool {
	var hasX, hasY bool
	for _, code := range c.AbsCodes {
		switch code {
		case evdev.ABS_X:
			hasX = true
		case evdev.ABS_Y:
			hasY = true
		}
	}
	if !hasX || !hasY {
		return false
	}
	for _, code := range c.KeyCodes {
		if _, ok := envision.ButtonMap[code]; ok {
			return true
		}
		if _, ok := envision.PaddleMap[code]; ok {
			return true
		}
	}
	return false
}

// resolveHidraw finds the raw-HID sibling sharing the primary's VID:PID.
// With several HID interfaces on one device the relation to the evdev node
// cannot be derived precisely, so the first match is a deliberate
// best-effort approximation; the hidraw path is diagnostic-only.
func resolveHidraw(enum Enumerator, primary Candidate, logger *slog.Logger) string {
	nodes, err := enum.HidrawNodes()
	if err != nil {
		logger.Debug("hidraw enumeration failed", "error", err)
		return ""
	}
	for _, n := range nodes {
		if n.Vendor == primary.Vendor && n.Product == primary.Product {
			return n.Path
		}
	}
	return ""
}
