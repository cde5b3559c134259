package bridge

import (
	"fmt"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"
)

// Event is one raw input event from the physical controller.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Device is an acquired physical input node. Implemented by evdevDevice
// for real hardware and by scripted fakes in tests.
type Device interface {
	Path() string
	// Grab takes exclusive ownership so no other consumer observes the
	// raw events.
	Grab() error
	// Wait blocks until the device is readable or the timeout elapses.
	Wait(timeout time.Duration) (bool, error)
	// ReadEvents drains all currently available events. An error means
	// the link is gone, not an empty read.
	ReadEvents() ([]Event, error)
	// Close releases the grab and the file handle.
	Close() error
}

// Opener opens a physical device by path. Injected so the event loop is
// testable without hardware.
type Opener func(path string) (Device, error)

type evdevDevice struct {
	dev     *evdev.InputDevice
	grabbed bool
}

// OpenPhysical opens an evdev node.
func OpenPhysical(path string) (Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &evdevDevice{dev: dev}, nil
}

func (d *evdevDevice) Path() string { return d.dev.Fn }

func (d *evdevDevice) Grab() error {
	if d.grabbed {
		return nil
	}
	if err := d.dev.Grab(); err != nil {
		return fmt.Errorf("grab %s: %w", d.dev.Fn, err)
	}
	d.grabbed = true
	return nil
}

func (d *evdevDevice) Wait(timeout time.Duration) (bool, error) {
	// Poll takes whole milliseconds; 0 would return immediately and turn
	// the event loop into a busy spin.
	ms := int(timeout.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	fds := []unix.PollFd{{Fd: int32(d.dev.File.Fd()), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("poll %s: %w", d.dev.Fn, err)
	}
	if n == 0 {
		return false, nil
	}
	return fds[0].Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0, nil
}

func (d *evdevDevice) ReadEvents() ([]Event, error) {
	raw, err := d.dev.Read()
	if err != nil {
		return nil, err
	}
	events := make([]Event, len(raw))
	for i, ev := range raw {
		events[i] = Event{Type: ev.Type, Code: ev.Code, Value: ev.Value}
	}
	return events, nil
}

func (d *evdevDevice) Close() error {
	if d.grabbed {
		_ = d.dev.Release()
		d.grabbed = false
	}
	return d.dev.File.Close()
}
