package discovery_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/stretchr/testify/assert"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/discovery"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
	itesting "github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scufNode(num int, name string, product uint16) discovery.Candidate {
	return discovery.Candidate{
		EventPath:   "/dev/input/event" + string(rune('0'+num)),
		EventNumber: num,
		Name:        name,
		Vendor:      envision.VendorID,
		Product:     product,
	}
}

func TestDiscoverPrefersJoystickHandler(t *testing.T) {
	gamepad := scufNode(7, "SCUF Envision Pro Controller V2", envision.ProductIDWired)
	gamepad.HasJoystickHandler = true
	consumer := scufNode(5, "SCUF Envision Pro Controller V2 Consumer Control", envision.ProductIDWired)

	// The joystick handler must win even when a companion interface has a
	// lower event number.
	enum := &itesting.FakeEnumerator{Inputs: []discovery.Candidate{consumer, gamepad}}
	d, err := discovery.Discover(enum, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, 7, d.Primary.EventNumber)
	assert.Len(t, d.Secondary, 1)
	assert.Equal(t, 5, d.Secondary[0].EventNumber)
}

func TestDiscoverCapabilityFallback(t *testing.T) {
	gamepad := scufNode(3, "SCUF Envision Pro Controller V2", envision.ProductIDWired)
	gamepad.AbsCodes = []uint16{evdev.ABS_X, evdev.ABS_Y, evdev.ABS_Z}
	gamepad.KeyCodes = []uint16{evdev.BTN_SOUTH, evdev.BTN_C}
	keys := scufNode(2, "SCUF Envision Pro Controller V2 Keyboard", envision.ProductIDWired)
	keys.KeyCodes = []uint16{evdev.KEY_VOLUMEUP}

	enum := &itesting.FakeEnumerator{Inputs: []discovery.Candidate{gamepad, keys}}
	d, err := discovery.Discover(enum, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, 3, d.Primary.EventNumber)
}

func TestDiscoverFirstNodeFallback(t *testing.T) {
	a := scufNode(9, "SCUF Envision Pro Controller V2", envision.ProductIDWired)
	b := scufNode(4, "SCUF Envision Pro Controller V2", envision.ProductIDWired)

	// No handler, no capability data: the numerically first node wins so
	// the choice is at least deterministic.
	enum := &itesting.FakeEnumerator{Inputs: []discovery.Candidate{a, b}}
	d, err := discovery.Discover(enum, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, 4, d.Primary.EventNumber)
}

func TestDiscoverIgnoresForeignHardware(t *testing.T) {
	foreign := discovery.Candidate{
		EventPath:   "/dev/input/event0",
		EventNumber: 0,
		Name:        "Some Other Gamepad",
		Vendor:      0x045E,
		Product:     0x02EA,
	}
	enum := &itesting.FakeEnumerator{Inputs: []discovery.Candidate{foreign}}
	_, err := discovery.Discover(enum, testLogger())
	assert.ErrorIs(t, err, discovery.ErrNotFound)
}

func TestDiscoverEnumerationFailureIsNotFound(t *testing.T) {
	enum := &itesting.FakeEnumerator{InputErr: errors.New("permission denied")}
	_, err := discovery.Discover(enum, testLogger())
	assert.ErrorIs(t, err, discovery.ErrNotFound)
}

func TestDiscoverNoHardwareIsNotFound(t *testing.T) {
	enum := &itesting.FakeEnumerator{}
	_, err := discovery.Discover(enum, testLogger())
	assert.ErrorIs(t, err, discovery.ErrNotFound)
}

func TestDiscoverConnectionType(t *testing.T) {
	type testCase struct {
		name    string
		product uint16
		want    discovery.ConnectionType
	}
	tests := []testCase{
		{name: "wired controller", product: envision.ProductIDWired, want: discovery.Wired},
		{name: "wireless receiver", product: envision.ProductIDReceiver, want: discovery.Wireless},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			node := scufNode(1, "SCUF Envision Pro", tc.product)
			node.HasJoystickHandler = true
			enum := &itesting.FakeEnumerator{Inputs: []discovery.Candidate{node}}
			d, err := discovery.Discover(enum, testLogger())
			assert.NoError(t, err)
			assert.Equal(t, tc.want, d.Connection)
		})
	}
}

func TestDiscoverResolvesHidraw(t *testing.T) {
	node := scufNode(1, "SCUF Envision Pro", envision.ProductIDWired)
	node.HasJoystickHandler = true
	enum := &itesting.FakeEnumerator{
		Inputs: []discovery.Candidate{node},
		Hidraws: []discovery.HidrawNode{
			{Path: "/dev/hidraw2", Vendor: 0x046D, Product: 0xC52B},
			{Path: "/dev/hidraw3", Vendor: envision.VendorID, Product: envision.ProductIDWired},
		},
	}
	d, err := discovery.Discover(enum, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, "/dev/hidraw3", d.HidrawPath)
}

func TestDiscoverHidrawFailureIsNonFatal(t *testing.T) {
	node := scufNode(1, "SCUF Envision Pro", envision.ProductIDWired)
	node.HasJoystickHandler = true
	enum := &itesting.FakeEnumerator{
		Inputs:    []discovery.Candidate{node},
		HidrawErr: errors.New("no hidraw class"),
	}
	d, err := discovery.Discover(enum, testLogger())
	assert.NoError(t, err)
	assert.Equal(t, "", d.HidrawPath)
}
