// Package config declares the top-level CLI grammar.
package config

import (
	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/cmd"
)

// Log holds the logging flags shared by every command.
type Log struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"SCUFBRIDGE_LOG_LEVEL"`
	File    string `help:"Write logs to this file in addition to the console" env:"SCUFBRIDGE_LOG_FILE"`
	RawFile string `help:"Write raw untranslated input events to this file" env:"SCUFBRIDGE_LOG_RAW_FILE"`
}

// CLI is the root command structure parsed by kong.
type CLI struct {
	Config string `help:"Path to a config file (JSON/YAML/TOML)" env:"SCUFBRIDGE_CONFIG"`
	Log    Log    `embed:"" prefix:"log."`

	Bridge    cmd.Bridge        `cmd:"" default:"withargs" help:"Run the SCUF to Xbox translation bridge (default)"`
	Diag      cmd.Diag          `cmd:"" help:"Print raw and translated controller events for manual verification"`
	Audio     cmd.Audio         `cmd:"" help:"Enable or disable the controller's USB audio interfaces"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file utilities"`
	Install   cmd.Install       `cmd:"" help:"Install the systemd service and udev rules"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Remove the systemd service and udev rules"`
}
