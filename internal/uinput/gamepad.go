package uinput

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"syscall"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
)

const defaultDevicePath = "/dev/uinput"

// Gamepad owns the emulated input device. Between Create and Close it is
// the only channel through which translated events reach the system.
//
// EmitButton and EmitAxis buffer; nothing is visible downstream until Sync
// flushes the pending events plus a SYN_REPORT in one write, so consumers
// always observe coherent frames.
type Gamepad struct {
	path    string
	file    *os.File
	pending []inputEvent
	logger  *slog.Logger
}

// NewGamepad returns an unpublished gamepad. Create must be called before
// any emission.
func NewGamepad(logger *slog.Logger) *Gamepad {
	return &Gamepad{path: defaultDevicePath, logger: logger}
}

// Create declares the canonical capability set (all mapped buttons and
// paddles, all canonical axes with their ranges) and instantiates the
// device. Call exactly once per bridge session.
func (g *Gamepad) Create() error {
	if g.file != nil {
		return fmt.Errorf("virtual gamepad already created")
	}

	f, err := os.OpenFile(g.path, os.O_WRONLY|syscall.O_NONBLOCK, 0o660)
	if err != nil {
		return fmt.Errorf("open %s: %w", g.path, err)
	}

	if err := g.declareCapabilities(f); err != nil {
		_ = f.Close()
		return err
	}

	dev := userDev{
		ID: inputID{
			Bustype: busUSB,
			Vendor:  envision.VirtualVendor,
			Product: envision.VirtualProduct,
			Version: envision.VirtualVersion,
		},
	}
	copy(dev.Name[:], envision.VirtualDeviceName)
	for code, info := range envision.AxisInfo {
		dev.Absmin[code] = info.Min
		dev.Absmax[code] = info.Max
		dev.Absfuzz[code] = info.Fuzz
		dev.Absflat[code] = info.Flat
	}

	if err := writeUserDev(f, dev); err != nil {
		_ = f.Close()
		return err
	}
	if err := ioctl(f, uiDevCreate, 0); err != nil {
		_ = f.Close()
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}

	g.file = f
	g.logger.Info("created virtual gamepad", "name", envision.VirtualDeviceName)
	return nil
}

func (g *Gamepad) declareCapabilities(f *os.File) error {
	if err := ioctl(f, uiSetEvBit, evdev.EV_KEY); err != nil {
		return fmt.Errorf("UI_SET_EVBIT EV_KEY: %w", err)
	}
	for _, code := range canonicalButtons() {
		if err := ioctl(f, uiSetKeyBit, code); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %#x: %w", code, err)
		}
	}
	if err := ioctl(f, uiSetEvBit, evdev.EV_ABS); err != nil {
		return fmt.Errorf("UI_SET_EVBIT EV_ABS: %w", err)
	}
	for code := range envision.AxisInfo {
		if err := ioctl(f, uiSetAbsBit, int(code)); err != nil {
			return fmt.Errorf("UI_SET_ABSBIT %#x: %w", code, err)
		}
	}
	return nil
}

// EmitButton buffers one button event. Values are 0 or 1.
func (g *Gamepad) EmitButton(code uint16, value int32) {
	g.pending = append(g.pending, inputEvent{Type: evdev.EV_KEY, Code: code, Value: value})
}

// EmitAxis buffers one axis event.
func (g *Gamepad) EmitAxis(code uint16, value int32) {
	g.pending = append(g.pending, inputEvent{Type: evdev.EV_ABS, Code: code, Value: value})
}

// Sync flushes all buffered events followed by SYN_REPORT as a single
// write, which the kernel treats as one reportable frame.
func (g *Gamepad) Sync() error {
	if g.file == nil {
		return fmt.Errorf("virtual gamepad not created")
	}
	events := append(g.pending, inputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT})
	g.pending = g.pending[:0]

	data, err := encodeEvents(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if _, err := g.file.Write(data); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	return nil
}

// Close destroys the emulated device. Idempotent; safe when never created.
func (g *Gamepad) Close() error {
	if g.file == nil {
		return nil
	}
	err := ioctl(g.file, uiDevDestroy, 0)
	closeErr := g.file.Close()
	g.file = nil
	g.pending = nil
	if err != nil {
		return fmt.Errorf("UI_DEV_DESTROY: %w", err)
	}
	g.logger.Info("destroyed virtual gamepad")
	return closeErr
}

// canonicalButtons returns the union of all canonical button and paddle
// codes in stable order.
func canonicalButtons() []int {
	set := make(map[int]struct{}, len(envision.ButtonMap)+len(envision.PaddleMap))
	for _, code := range envision.ButtonMap {
		set[int(code)] = struct{}{}
	}
	for _, code := range envision.PaddleMap {
		set[int(code)] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Ints(out)
	return out
}
