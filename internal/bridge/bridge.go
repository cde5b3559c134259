// Package bridge runs the translation session: it exclusively acquires the
// physical controller, drains its events, routes them through the mapping
// tables and the input filter, and republishes them on the virtual gamepad.
// It also owns the disconnect/reconnect state machine.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/discovery"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/filter"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/log"
)

// Publisher is the emulated device channel. Implemented by uinput.Gamepad.
type Publisher interface {
	Create() error
	EmitButton(code uint16, value int32)
	EmitAxis(code uint16, value int32)
	Sync() error
	Close() error
}

// Config carries the event-loop and reconnection tunables.
type Config struct {
	PollTimeout       time.Duration `help:"Bounded wait for input readability" default:"4ms" env:"SCUFBRIDGE_POLL_TIMEOUT"`
	Reconnect         string        `help:"Reconnect policy: auto reconnects wireless links only" enum:"auto,always,never" default:"auto" env:"SCUFBRIDGE_RECONNECT"`
	ReconnectInterval time.Duration `help:"Delay between rediscovery attempts" default:"2s" env:"SCUFBRIDGE_RECONNECT_INTERVAL"`
	ReconnectWindow   time.Duration `help:"Total time to wait for the controller to return" default:"1m" env:"SCUFBRIDGE_RECONNECT_WINDOW"`
}

// Options are the injectable collaborators. Zero values get production
// defaults, tests supply fakes.
type Options struct {
	// Open opens a physical device node. Defaults to OpenPhysical.
	Open Opener
	// Discover runs one rediscovery pass during reconnection.
	Discover func() (*discovery.Discovered, error)
	// NewHotplug optionally supplies a wake channel that fires when an
	// input node appears, plus its stop function.
	NewHotplug func() (<-chan struct{}, func())
	// OnReconnect is the external configuration hook re-applied after a
	// successful reconnection. Its failures must be handled internally;
	// the bridge never treats them as fatal.
	OnReconnect func(logger *slog.Logger)
}

// Bridge is a single-session orchestrator. All mutable state is touched
// only from the event-loop goroutine; no locking.
type Bridge struct {
	cfg    Config
	opts   Options
	pub    Publisher
	filter *filter.Filter
	logger *slog.Logger
	events log.EventLogger

	state       State
	primary     Device
	secondaries []Device
	connection  discovery.ConnectionType

	// Latched raw stick readings. Deadzone is computed jointly over both
	// axes of a stick, but the hardware reports X and Y separately.
	rawLX, rawLY int32
	rawRX, rawRY int32
}

func New(cfg Config, fcfg filter.Config, pub Publisher, opts Options, logger *slog.Logger, events log.EventLogger) *Bridge {
	if opts.Open == nil {
		opts.Open = OpenPhysical
	}
	if events == nil {
		events = log.NewEventLogger(nil)
	}
	return &Bridge{
		cfg:    cfg,
		opts:   opts,
		pub:    pub,
		filter: filter.New(fcfg),
		logger: logger,
		events: events,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (b *Bridge) State() State { return b.state }

// Run executes one full bridge session and blocks until the context is
// cancelled or a terminal failure occurs. The release order on every exit
// path is physical devices first, virtual device last.
func (b *Bridge) Run(ctx context.Context, disc *discovery.Discovered) error {
	defer b.shutdown()

	if err := b.acquire(disc); err != nil {
		return err
	}
	if err := b.pub.Create(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublisher, err)
	}

	b.setState(StateRunning)
	b.logger.Info("bridge running, translation active", "device", disc.Primary.EventPath)

	for {
		if ctx.Err() != nil {
			return nil
		}
		readable, err := b.primary.Wait(b.cfg.PollTimeout)
		if err != nil {
			if err := b.onLinkLost(ctx, err); err != nil {
				return err
			}
			continue
		}
		if !readable {
			continue
		}
		events, err := b.primary.ReadEvents()
		if err != nil {
			if err := b.onLinkLost(ctx, err); err != nil {
				return err
			}
			continue
		}
		// A drain batch is bounded by the kernel buffer; it is always
		// fully processed before the cancellation flag is rechecked.
		for _, ev := range events {
			if err := b.handleEvent(ev); err != nil {
				return err
			}
		}
	}
}

// acquire opens and exclusively grabs the primary, then every secondary.
// Primary failure is fatal; a secondary that cannot be silenced is logged
// and skipped.
func (b *Bridge) acquire(disc *discovery.Discovered) error {
	b.setState(StateAcquiring)

	primary, err := b.opts.Open(disc.Primary.EventPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	if err := primary.Grab(); err != nil {
		_ = primary.Close()
		return fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	b.primary = primary
	b.connection = disc.Connection
	b.logger.Info("exclusively grabbed primary", "path", primary.Path())

	for _, sec := range disc.Secondary {
		dev, err := b.opts.Open(sec.EventPath)
		if err != nil {
			b.logger.Warn("could not open secondary device", "path", sec.EventPath, "error", err)
			continue
		}
		if err := dev.Grab(); err != nil {
			b.logger.Warn("could not grab secondary device", "path", sec.EventPath, "error", err)
			_ = dev.Close()
			continue
		}
		b.secondaries = append(b.secondaries, dev)
		b.logger.Debug("grabbed secondary", "path", dev.Path())
	}
	return nil
}

// onLinkLost handles a read failure on the primary: release the hardware,
// neutralize the analog channels, and either reconnect or report a
// terminal error. The virtual device stays alive so bound applications do
// not see the controller vanish.
func (b *Bridge) onLinkLost(ctx context.Context, cause error) error {
	b.setState(StateDisconnected)
	b.logger.Error("device read error, controller disconnected", "error", cause)

	b.releasePhysical()
	if err := b.emitNeutralFrame(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublisher, err)
	}
	b.filter.Reset()
	b.rawLX, b.rawLY, b.rawRX, b.rawRY = 0, 0, 0, 0

	if !b.reconnectEnabled() {
		return fmt.Errorf("%w (connection %s, reconnect %s)", ErrLinkLost, b.connection, b.cfg.Reconnect)
	}
	return b.reconnect(ctx)
}

func (b *Bridge) reconnectEnabled() bool {
	switch b.cfg.Reconnect {
	case "always":
		return true
	case "never":
		return false
	default:
		// Wireless links are expected to drop and resume. A wired link
		// dropping means physical removal; replugging is the user's
		// explicit signal to restart.
		return b.connection == discovery.Wireless
	}
}

// reconnect polls discovery on a fixed interval, bounded by the reconnect
// window, waking early on hotplug events when a watcher is available.
func (b *Bridge) reconnect(ctx context.Context) error {
	if b.opts.Discover == nil {
		return fmt.Errorf("%w (no discovery configured)", ErrLinkLost)
	}
	b.setState(StateReconnecting)
	b.logger.Info("waiting for controller to return",
		"interval", b.cfg.ReconnectInterval, "window", b.cfg.ReconnectWindow)

	var wake <-chan struct{}
	if b.opts.NewHotplug != nil {
		if ch, stop := b.opts.NewHotplug(); ch != nil {
			wake = ch
			defer stop()
		}
	}

	deadline := time.NewTimer(b.cfg.ReconnectWindow)
	defer deadline.Stop()
	ticker := time.NewTicker(b.cfg.ReconnectInterval)
	defer ticker.Stop()

	for {
		disc, err := b.opts.Discover()
		if err == nil {
			// Re-acquisition can still lose the race against node
			// removal; keep waiting rather than aborting.
			if err := b.acquire(disc); err != nil {
				b.logger.Warn("reacquisition failed, still waiting", "error", err)
			} else {
				if b.opts.OnReconnect != nil {
					b.opts.OnReconnect(b.logger)
				}
				b.setState(StateRunning)
				b.logger.Info("controller reconnected", "path", disc.Primary.EventPath)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			return ErrReconnectTimeout
		case <-ticker.C:
		case <-wake:
		}
	}
}

// emitNeutralFrame zeroes all six analog channels in a single frame so a
// removed device can never leave a stuck, non-neutral control latched.
func (b *Bridge) emitNeutralFrame() error {
	for _, code := range [...]uint16{
		evdev.ABS_X, evdev.ABS_Y, evdev.ABS_RX, evdev.ABS_RY, evdev.ABS_Z, evdev.ABS_RZ,
	} {
		b.pub.EmitAxis(code, 0)
	}
	return b.pub.Sync()
}

func (b *Bridge) handleEvent(ev Event) error {
	b.events.Event("scuf", ev.Type, ev.Code, ev.Value)
	switch ev.Type {
	case evdev.EV_KEY:
		return b.handleButton(ev)
	case evdev.EV_ABS:
		return b.handleAxis(ev)
	case evdev.EV_SYN:
		return b.syncOrFail()
	}
	return nil
}

func (b *Bridge) handleButton(ev Event) error {
	if mapped, ok := envision.ButtonMap[ev.Code]; ok {
		b.pub.EmitButton(mapped, ev.Value)
		return b.syncOrFail()
	}
	if mapped, ok := envision.PaddleMap[ev.Code]; ok {
		b.pub.EmitButton(mapped, ev.Value)
		return b.syncOrFail()
	}
	// Intentionally unmapped control. Note presses only; never forward.
	if ev.Value == 1 {
		b.logger.Log(context.Background(), log.LevelTrace,
			"unmapped button", "code", fmt.Sprintf("%#04x", ev.Code))
	}
	return nil
}

func (b *Bridge) handleAxis(ev Event) error {
	mapped, ok := envision.AxisMap[ev.Code]
	if !ok {
		return nil
	}

	switch ev.Code {
	case evdev.ABS_X:
		b.rawLX = ev.Value
		return b.emitStick(b.rawLX, b.rawLY, filter.ChannelLeftX, filter.ChannelLeftY, evdev.ABS_X, evdev.ABS_Y)
	case evdev.ABS_Y:
		b.rawLY = ev.Value
		return b.emitStick(b.rawLX, b.rawLY, filter.ChannelLeftX, filter.ChannelLeftY, evdev.ABS_X, evdev.ABS_Y)
	case evdev.ABS_Z: // right stick X on this hardware
		b.rawRX = ev.Value
		return b.emitStick(b.rawRX, b.rawRY, filter.ChannelRightX, filter.ChannelRightY, evdev.ABS_RX, evdev.ABS_RY)
	case evdev.ABS_RZ: // right stick Y on this hardware
		b.rawRY = ev.Value
		return b.emitStick(b.rawRX, b.rawRY, filter.ChannelRightX, filter.ChannelRightY, evdev.ABS_RX, evdev.ABS_RY)
	case evdev.ABS_RX: // left trigger on this hardware
		return b.emitTrigger(ev.Value, filter.ChannelLeftTrigger, evdev.ABS_Z)
	case evdev.ABS_RY: // right trigger on this hardware
		return b.emitTrigger(ev.Value, filter.ChannelRightTrigger, evdev.ABS_RZ)
	}

	// D-pad: digital-like values need no deadzone or jitter treatment.
	b.pub.EmitAxis(mapped, ev.Value)
	return b.syncOrFail()
}

// emitStick re-runs the joint radial deadzone over both components of the
// stick, emitting only the components whose suppressed value changed.
func (b *Bridge) emitStick(rawX, rawY int32, chX, chY filter.Channel, outX, outY uint16) error {
	fx, fy := b.filter.Stick(rawX, rawY)
	fx, xChanged := b.filter.SuppressJitter(chX, fx)
	fy, yChanged := b.filter.SuppressJitter(chY, fy)
	if !xChanged && !yChanged {
		return nil
	}
	if xChanged {
		b.pub.EmitAxis(outX, fx)
	}
	if yChanged {
		b.pub.EmitAxis(outY, fy)
	}
	return b.syncOrFail()
}

func (b *Bridge) emitTrigger(raw int32, ch filter.Channel, out uint16) error {
	v := b.filter.Trigger(raw)
	v, changed := b.filter.SuppressJitter(ch, v)
	if !changed {
		return nil
	}
	b.pub.EmitAxis(out, v)
	return b.syncOrFail()
}

func (b *Bridge) syncOrFail() error {
	if err := b.pub.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublisher, err)
	}
	return nil
}

func (b *Bridge) releasePhysical() {
	for _, dev := range b.secondaries {
		if err := dev.Close(); err != nil {
			b.logger.Debug("release secondary", "path", dev.Path(), "error", err)
		}
	}
	b.secondaries = nil
	if b.primary != nil {
		if err := b.primary.Close(); err != nil {
			b.logger.Debug("release primary", "path", b.primary.Path(), "error", err)
		}
		b.primary = nil
	}
}

// shutdown always runs, whatever path reached it: hardware first, then the
// virtual device, so nothing can be emitted after the destination is gone
// and no exclusive grab outlives the process.
func (b *Bridge) shutdown() {
	b.setState(StateShuttingDown)
	b.releasePhysical()
	if err := b.pub.Close(); err != nil {
		b.logger.Warn("closing virtual gamepad", "error", err)
	}
	b.setState(StateStopped)
	b.logger.Info("bridge stopped")
}

func (b *Bridge) setState(s State) {
	if b.state == s {
		return
	}
	b.logger.Debug("bridge state", "from", b.state.String(), "to", s.String())
	b.state = s
}
