package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/audio"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/bridge"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/discovery"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/filter"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/log"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/settings"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/uinput"
)

type Bridge struct {
	BridgeConfig bridge.Config `embed:"" prefix:"bridge."`
	FilterConfig filter.Config `embed:"" prefix:"filter."`
	SettingsPath string        `help:"Path to the persistent settings file" default:"/etc/scufbridge/config.toml" env:"SCUFBRIDGE_SETTINGS"`
}

// Run is called by Kong when the bridge command is executed.
func (b *Bridge) Run(logger *slog.Logger, events log.EventLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return b.StartBridge(ctx, logger, events)
}

func (b *Bridge) StartBridge(ctx context.Context, logger *slog.Logger, events log.EventLogger) error {
	logger.Info("Starting SCUF Envision Pro V2 bridge")

	enum := discovery.NewSysfsEnumerator()
	disc, err := discovery.Discover(enum, logger)
	if err != nil {
		if errors.Is(err, discovery.ErrNotFound) {
			logger.Error("No SCUF Envision Pro V2 controller found")
			logger.Error("Make sure the controller is connected via USB cable or wireless receiver")
			logger.Error(fmt.Sprintf("Expected USB IDs %04x:%04x (wired) or %04x:%04x (receiver)",
				envision.VendorID, envision.ProductIDWired, envision.VendorID, envision.ProductIDReceiver))
		}
		return err
	}
	logger.Info("Controller found",
		"event", disc.Primary.EventPath,
		"connection", disc.Connection.String(),
		"secondaries", len(disc.Secondary))

	store := settings.NewStore(b.SettingsPath, logger)
	audioCtl := audio.NewController(logger)
	audioCtl.Apply(store.AudioDisabled())

	pub := uinput.NewGamepad(logger)

	br := bridge.New(b.BridgeConfig, b.FilterConfig, pub, bridge.Options{
		Discover: func() (*discovery.Discovered, error) {
			return discovery.Discover(enum, logger)
		},
		NewHotplug: func() (<-chan struct{}, func()) {
			w, err := discovery.NewHotplugWatcher("/dev/input", logger)
			if err != nil {
				logger.Debug("hotplug watcher unavailable, falling back to interval polling", "error", err)
				return nil, func() {}
			}
			return w.Events(), func() { _ = w.Close() }
		},
		OnReconnect: func(l *slog.Logger) {
			// Settings like the audio toggle do not survive a USB re-enumeration.
			audioCtl.Apply(store.AudioDisabled())
		},
	}, logger, events)

	err = br.Run(ctx, disc)
	switch {
	case err == nil:
	case errors.Is(err, bridge.ErrAcquisition):
		logger.Error("Could not acquire exclusive access to the controller", "error", err)
		logger.Error("The bridge needs write access to /dev/input and /dev/uinput (run as root or fix udev rules)")
	case errors.Is(err, bridge.ErrReconnectTimeout), errors.Is(err, bridge.ErrLinkLost):
		logger.Error("Controller disconnected and did not come back", "error", err)
	case errors.Is(err, bridge.ErrPublisher):
		logger.Error("Virtual gamepad failure", "error", err)
	}
	return err
}
