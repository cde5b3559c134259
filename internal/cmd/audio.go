package cmd

import (
	"fmt"
	"log/slog"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/audio"
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/settings"
)

// Audio groups the USB audio toggles. The controller's built-in headphone
// jack shows up as a USB sound card, which some desktops then pick as the
// default output.
type Audio struct {
	Enable  AudioEnable  `cmd:"" help:"Bind the controller's USB audio interfaces and remember the choice"`
	Disable AudioDisable `cmd:"" help:"Unbind the controller's USB audio interfaces and remember the choice"`
	Status  AudioStatus  `cmd:"" help:"Show the persisted audio preference"`
}

type AudioEnable struct {
	SettingsPath string `help:"Path to the persistent settings file" default:"/etc/scufbridge/config.toml" env:"SCUFBRIDGE_SETTINGS"`
}

func (a *AudioEnable) Run(logger *slog.Logger) error {
	store := settings.NewStore(a.SettingsPath, logger)
	n, err := audio.NewController(logger).Enable()
	if err != nil {
		return err
	}
	if err := store.SetAudioDisabled(false); err != nil {
		return err
	}
	fmt.Printf("Bound %d audio interface(s). Preference saved.\n", n)
	return nil
}

type AudioDisable struct {
	SettingsPath string `help:"Path to the persistent settings file" default:"/etc/scufbridge/config.toml" env:"SCUFBRIDGE_SETTINGS"`
}

func (a *AudioDisable) Run(logger *slog.Logger) error {
	store := settings.NewStore(a.SettingsPath, logger)
	n, err := audio.NewController(logger).Disable()
	if err != nil {
		return err
	}
	if err := store.SetAudioDisabled(true); err != nil {
		return err
	}
	fmt.Printf("Unbound %d audio interface(s). Preference saved.\n", n)
	return nil
}

type AudioStatus struct {
	SettingsPath string `help:"Path to the persistent settings file" default:"/etc/scufbridge/config.toml" env:"SCUFBRIDGE_SETTINGS"`
}

func (a *AudioStatus) Run(logger *slog.Logger) error {
	store := settings.NewStore(a.SettingsPath, logger)
	if store.AudioDisabled() {
		fmt.Println("Controller audio: disabled (interfaces are unbound at bridge startup)")
	} else {
		fmt.Println("Controller audio: enabled")
	}
	return nil
}
