package bridge_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/bridge"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/discovery"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/filter"
	itesting "github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() bridge.Config {
	return bridge.Config{
		PollTimeout:       time.Millisecond,
		Reconnect:         "auto",
		ReconnectInterval: 5 * time.Millisecond,
		ReconnectWindow:   30 * time.Millisecond,
	}
}

func wiredDiscovery(path string) *discovery.Discovered {
	return &discovery.Discovered{
		Primary:    discovery.Candidate{EventPath: path, Name: "SCUF Envision Pro Controller V2"},
		Connection: discovery.Wired,
	}
}

func wirelessDiscovery(path string) *discovery.Discovered {
	d := wiredDiscovery(path)
	d.Connection = discovery.Wireless
	return d
}

func openerFor(devs map[string]*itesting.ScriptedDevice) bridge.Opener {
	return func(path string) (bridge.Device, error) {
		dev, ok := devs[path]
		if !ok {
			return nil, errors.New("no such device: " + path)
		}
		return dev, nil
	}
}

func key(code uint16, value int32) bridge.Event {
	return bridge.Event{Type: evdev.EV_KEY, Code: code, Value: value}
}

func abs(code uint16, value int32) bridge.Event {
	return bridge.Event{Type: evdev.EV_ABS, Code: code, Value: value}
}

func neutralFrame(frame []itesting.Emission) bool {
	if len(frame) != 6 {
		return false
	}
	for _, e := range frame {
		if !e.Axis || e.Value != 0 {
			return false
		}
	}
	return true
}

func TestButtonTranslation(t *testing.T) {
	dev := &itesting.ScriptedDevice{
		NodePath: "/dev/input/event3",
		Batches: [][]bridge.Event{{
			key(evdev.BTN_C, 1),
			key(evdev.BTN_C, 0),
			key(evdev.BTN_TRIGGER_HAPPY1, 1),
		}},
		FinalErr: io.EOF,
	}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{"/dev/input/event3": dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery("/dev/input/event3"))
	assert.ErrorIs(t, err, bridge.ErrLinkLost)

	require.GreaterOrEqual(t, len(pub.Frames), 3)
	// X arrives on the wire as BTN_C and must leave as BTN_NORTH.
	assert.Equal(t, []itesting.Emission{{Code: evdev.BTN_NORTH, Value: 1}}, pub.Frames[0])
	assert.Equal(t, []itesting.Emission{{Code: evdev.BTN_NORTH, Value: 0}}, pub.Frames[1])
	// Paddles pass through on the Elite paddle slots.
	assert.Equal(t, []itesting.Emission{{Code: evdev.BTN_TRIGGER_HAPPY1, Value: 1}}, pub.Frames[2])
}

func TestUnmappedControlsAreDropped(t *testing.T) {
	dev := &itesting.ScriptedDevice{
		Batches: [][]bridge.Event{{
			key(evdev.KEY_VOLUMEUP, 1),
			key(evdev.BTN_TRIGGER_HAPPY4, 1),
			abs(evdev.ABS_WHEEL, 5),
		}},
		FinalErr: io.EOF,
	}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrLinkLost)

	// Nothing but the disconnect neutral frame may reach the virtual pad.
	require.Len(t, pub.Frames, 1)
	assert.True(t, neutralFrame(pub.Frames[0]))
}

func TestStickTranslationAndDeadzone(t *testing.T) {
	dev := &itesting.ScriptedDevice{
		Batches: [][]bridge.Event{
			// Deflection, a jitter-suppressed repeat, right stick X
			// (which arrives on ABS_Z), then back inside the deadzone.
			{abs(evdev.ABS_X, 20000)},
			{abs(evdev.ABS_X, 20000)},
			{abs(evdev.ABS_Z, -15000)},
			{abs(evdev.ABS_X, 100)},
		},
		FinalErr: io.EOF,
	}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrLinkLost)

	require.GreaterOrEqual(t, len(pub.Frames), 3)

	// Deflection past the deadzone: emitted on ABS_X, rescaled below the
	// raw value. The undisturbed Y component stays silent at zero.
	require.Len(t, pub.Frames[0], 1)
	assert.Equal(t, uint16(evdev.ABS_X), pub.Frames[0][0].Code)
	assert.Greater(t, pub.Frames[0][0].Value, int32(0))
	assert.Less(t, pub.Frames[0][0].Value, int32(20000))

	// Right stick X arrives on ABS_Z and must leave on ABS_RX.
	require.Len(t, pub.Frames[1], 1)
	assert.Equal(t, uint16(evdev.ABS_RX), pub.Frames[1][0].Code)
	assert.Less(t, pub.Frames[1][0].Value, int32(0))

	// Returning inside the deadzone snaps the channel back to zero.
	require.Len(t, pub.Frames[2], 1)
	assert.Equal(t, uint16(evdev.ABS_X), pub.Frames[2][0].Code)
	assert.Equal(t, int32(0), pub.Frames[2][0].Value)
}

func TestRestInputEmitsNothing(t *testing.T) {
	dev := &itesting.ScriptedDevice{
		Batches: [][]bridge.Event{{
			abs(evdev.ABS_X, 0),
			abs(evdev.ABS_Y, 0),
			abs(evdev.ABS_RX, 0),
		}},
		FinalErr: io.EOF,
	}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrLinkLost)

	// Zero readings from an untouched controller are unchanged from rest
	// and must not produce frames; only the disconnect neutral frame
	// appears.
	require.Len(t, pub.Frames, 1)
	assert.True(t, neutralFrame(pub.Frames[0]))
}

func TestTriggerTranslation(t *testing.T) {
	dev := &itesting.ScriptedDevice{
		Batches: [][]bridge.Event{
			// Left trigger (arrives on ABS_RX), right trigger rest noise
			// below the floor (arrives on ABS_RY), then a D-pad press.
			{abs(evdev.ABS_RX, 500)},
			{abs(evdev.ABS_RY, 5)},
			{abs(evdev.ABS_HAT0X, -1)},
		},
		FinalErr: io.EOF,
	}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrLinkLost)

	require.GreaterOrEqual(t, len(pub.Frames), 2)

	// Left trigger arrives on ABS_RX and must leave on ABS_Z, unscaled.
	require.Len(t, pub.Frames[0], 1)
	assert.Equal(t, uint16(evdev.ABS_Z), pub.Frames[0][0].Code)
	assert.Equal(t, int32(500), pub.Frames[0][0].Value)

	// The below-floor right trigger value collapses to zero, which is
	// unchanged from rest, so nothing is emitted; the next frame is the
	// untouched D-pad passthrough.
	require.Len(t, pub.Frames[1], 1)
	assert.Equal(t, uint16(evdev.ABS_HAT0X), pub.Frames[1][0].Code)
	assert.Equal(t, int32(-1), pub.Frames[1][0].Value)
}

func TestWiredDisconnectIsTerminal(t *testing.T) {
	dev := &itesting.ScriptedDevice{FinalErr: io.EOF}
	pub := &itesting.FakePublisher{}
	discoverCalls := 0
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
		Discover: func() (*discovery.Discovered, error) {
			discoverCalls++
			return nil, discovery.ErrNotFound
		},
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrLinkLost)

	// Policy auto: a wired drop means physical removal, no reconnection.
	assert.Equal(t, 0, discoverCalls)
	assert.True(t, dev.Released)
	assert.True(t, pub.Closed)
	assert.Equal(t, bridge.StateStopped, b.State())
}

func TestWirelessDisconnectReconnectTimeout(t *testing.T) {
	dev := &itesting.ScriptedDevice{FinalErr: io.EOF}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
		Discover: func() (*discovery.Discovered, error) {
			return nil, discovery.ErrNotFound
		},
	}, testLogger(), nil)

	err := b.Run(context.Background(), wirelessDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrReconnectTimeout)

	// Exactly one neutral frame so no control stays latched, and the
	// virtual device stays alive for the whole reconnect window.
	require.Len(t, pub.Frames, 1)
	assert.True(t, neutralFrame(pub.Frames[0]))
	assert.True(t, dev.Released)
	assert.True(t, pub.Closed) // closed by shutdown, after the window expired
}

func TestWirelessReconnectResumesTranslation(t *testing.T) {
	dev1 := &itesting.ScriptedDevice{NodePath: "/dev/input/event3", FinalErr: io.EOF}
	dev2 := &itesting.ScriptedDevice{
		NodePath: "/dev/input/event9",
		Batches:  [][]bridge.Event{{key(evdev.BTN_SOUTH, 1)}},
		FinalErr: io.EOF,
	}
	pub := &itesting.FakePublisher{}

	reconnected := 0
	served := false
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{
			dev1.Path(): dev1,
			dev2.Path(): dev2,
		}),
		Discover: func() (*discovery.Discovered, error) {
			if served {
				return nil, discovery.ErrNotFound
			}
			served = true
			return wirelessDiscovery(dev2.Path()), nil
		},
		OnReconnect: func(*slog.Logger) { reconnected++ },
	}, testLogger(), nil)

	err := b.Run(context.Background(), wirelessDiscovery(dev1.Path()))
	// The replacement device also dies and rediscovery then stays empty.
	assert.ErrorIs(t, err, bridge.ErrReconnectTimeout)

	assert.Equal(t, 1, reconnected)
	assert.True(t, dev1.Released)
	assert.True(t, dev2.Grabbed)
	assert.True(t, dev2.Released)

	// Two neutral frames (one per drop) with the translated press between.
	var presses, neutrals int
	for _, frame := range pub.Frames {
		if neutralFrame(frame) {
			neutrals++
			continue
		}
		for _, e := range frame {
			if !e.Axis && e.Code == evdev.BTN_SOUTH && e.Value == 1 {
				presses++
			}
		}
	}
	assert.Equal(t, 1, presses)
	assert.Equal(t, 2, neutrals)
}

func TestReconnectPolicyNever(t *testing.T) {
	cfg := testConfig()
	cfg.Reconnect = "never"
	dev := &itesting.ScriptedDevice{FinalErr: io.EOF}
	pub := &itesting.FakePublisher{}
	b := bridge.New(cfg, filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wirelessDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrLinkLost)
}

func TestReconnectPolicyAlwaysCoversWired(t *testing.T) {
	cfg := testConfig()
	cfg.Reconnect = "always"
	dev := &itesting.ScriptedDevice{FinalErr: io.EOF}
	pub := &itesting.FakePublisher{}
	b := bridge.New(cfg, filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
		Discover: func() (*discovery.Discovered, error) {
			return nil, discovery.ErrNotFound
		},
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrReconnectTimeout)
}

func TestAcquisitionFailureIsFatal(t *testing.T) {
	dev := &itesting.ScriptedDevice{GrabErr: errors.New("device is busy")}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrAcquisition)
	assert.False(t, pub.Created)
}

func TestSecondaryGrabFailureIsNotFatal(t *testing.T) {
	primary := &itesting.ScriptedDevice{NodePath: "/dev/input/event3", FinalErr: io.EOF}
	secondary := &itesting.ScriptedDevice{NodePath: "/dev/input/event4", GrabErr: errors.New("busy")}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{
			primary.Path():   primary,
			secondary.Path(): secondary,
		}),
	}, testLogger(), nil)

	disc := wiredDiscovery(primary.Path())
	disc.Secondary = []discovery.Candidate{{EventPath: secondary.Path()}}

	err := b.Run(context.Background(), disc)
	assert.ErrorIs(t, err, bridge.ErrLinkLost)
	assert.True(t, pub.Created)
	assert.True(t, secondary.Released)
}

func TestContextCancellationStopsCleanly(t *testing.T) {
	dev := &itesting.ScriptedDevice{BlockAfterScript: true}
	pub := &itesting.FakePublisher{}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, wiredDiscovery(dev.Path())) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop after cancellation")
	}
	assert.True(t, dev.Released)
	assert.True(t, pub.Closed)
	assert.Equal(t, bridge.StateStopped, b.State())
}

func TestPublisherCreateFailure(t *testing.T) {
	dev := &itesting.ScriptedDevice{}
	pub := &itesting.FakePublisher{CreateErr: errors.New("uinput missing")}
	b := bridge.New(testConfig(), filter.DefaultConfig(), pub, bridge.Options{
		Open: openerFor(map[string]*itesting.ScriptedDevice{dev.Path(): dev}),
	}, testLogger(), nil)

	err := b.Run(context.Background(), wiredDiscovery(dev.Path()))
	assert.ErrorIs(t, err, bridge.ErrPublisher)
	// The grab must not outlive the failed session.
	assert.True(t, dev.Released)
}
