// Package testing holds shared fakes for exercising discovery and the
// bridge loop without hardware.
package testing

import (
	"time"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/bridge"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/discovery"
)

// FakeEnumerator serves canned enumeration results.
type FakeEnumerator struct {
	Inputs    []discovery.Candidate
	Hidraws   []discovery.HidrawNode
	InputErr  error
	HidrawErr error
}

func (f *FakeEnumerator) InputNodes() ([]discovery.Candidate, error) {
	return f.Inputs, f.InputErr
}

func (f *FakeEnumerator) HidrawNodes() ([]discovery.HidrawNode, error) {
	return f.Hidraws, f.HidrawErr
}

// Emission is one button or axis write recorded by FakePublisher.
type Emission struct {
	Code  uint16
	Value int32
	Axis  bool
}

// FakePublisher records everything emitted to the virtual gamepad, split
// into frames at each Sync.
type FakePublisher struct {
	Created   bool
	Closed    bool
	CreateErr error
	SyncErr   error

	pending []Emission
	Frames  [][]Emission
}

func (f *FakePublisher) Create() error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.Created = true
	return nil
}

func (f *FakePublisher) EmitButton(code uint16, value int32) {
	f.pending = append(f.pending, Emission{Code: code, Value: value})
}

func (f *FakePublisher) EmitAxis(code uint16, value int32) {
	f.pending = append(f.pending, Emission{Code: code, Value: value, Axis: true})
}

func (f *FakePublisher) Sync() error {
	if f.SyncErr != nil {
		return f.SyncErr
	}
	f.Frames = append(f.Frames, f.pending)
	f.pending = nil
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// AllEmissions flattens every synced frame.
func (f *FakePublisher) AllEmissions() []Emission {
	var out []Emission
	for _, frame := range f.Frames {
		out = append(out, frame...)
	}
	return out
}

// ScriptedDevice replays batches of events, then fails like an unplugged
// device. Wait reports readable while batches remain.
type ScriptedDevice struct {
	NodePath string
	Batches  [][]bridge.Event
	FinalErr error

	GrabErr  error
	Grabbed  bool
	Released bool

	// BlockAfterScript keeps Wait returning not-readable once the script
	// is exhausted instead of failing the read.
	BlockAfterScript bool
}

func (d *ScriptedDevice) Path() string {
	if d.NodePath != "" {
		return d.NodePath
	}
	return "/dev/input/event-fake"
}

func (d *ScriptedDevice) Grab() error {
	if d.GrabErr != nil {
		return d.GrabErr
	}
	d.Grabbed = true
	return nil
}

func (d *ScriptedDevice) Wait(timeout time.Duration) (bool, error) {
	if len(d.Batches) == 0 && d.BlockAfterScript {
		time.Sleep(timeout)
		return false, nil
	}
	return true, nil
}

func (d *ScriptedDevice) ReadEvents() ([]bridge.Event, error) {
	if len(d.Batches) == 0 {
		if d.FinalErr != nil {
			return nil, d.FinalErr
		}
		return nil, nil
	}
	batch := d.Batches[0]
	d.Batches = d.Batches[1:]
	return batch, nil
}

func (d *ScriptedDevice) Close() error {
	d.Released = true
	return nil
}
