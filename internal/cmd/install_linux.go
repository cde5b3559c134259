//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
)

const (
	serviceName   = "scufbridge.service"
	servicePath   = "/etc/systemd/system/scufbridge.service"
	udevRulesPath = "/etc/udev/rules.d/70-scufbridge.rules"
)

// Install sets up the systemd service and the udev rules that grant the
// bridge access to the controller and /dev/uinput.
type Install struct{}

func (i *Install) Run(logger *slog.Logger) error {
	exePath, err := currentExecutable()
	if err != nil {
		return err
	}

	if err := os.WriteFile(udevRulesPath, []byte(udevRulesContent()), 0o644); err != nil {
		return err
	}
	if err := runCommand("udevadm", "control", "--reload-rules"); err != nil {
		return err
	}
	if err := runCommand("udevadm", "trigger"); err != nil {
		return err
	}

	unit := systemdUnitContent(exePath)
	if err := os.WriteFile(servicePath, []byte(unit), 0o644); err != nil {
		return err
	}

	steps := [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"restart", serviceName},
	}

	for _, args := range steps {
		if err := runCommand("systemctl", args...); err != nil {
			return err
		}
	}

	logger.Info("scufbridge systemd service installed", "path", servicePath, "exe", exePath)
	logger.Info("udev rules installed", "path", udevRulesPath)
	return nil
}

// Uninstall removes the systemd service and udev rules.
type Uninstall struct{}

func (u *Uninstall) Run(logger *slog.Logger) error {
	var errs []error

	if err := runCommand("systemctl", "stop", serviceName); err != nil {
		errs = append(errs, err)
	}
	if err := runCommand("systemctl", "disable", serviceName); err != nil {
		errs = append(errs, err)
	}

	if err := os.Remove(servicePath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if err := os.Remove(udevRulesPath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}

	if err := runCommand("systemctl", "daemon-reload"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info("scufbridge systemd service removed", "path", servicePath)
	return nil
}

func systemdUnitContent(exePath string) string {
	workingDir := filepath.Dir(exePath)
	return fmt.Sprintf(`[Unit]
Description=SCUF Envision Pro V2 bridge
After=multi-user.target

[Service]
Type=simple
ExecStart=%q bridge
WorkingDirectory=%s
Restart=on-failure
RestartSec=2

[Install]
WantedBy=multi-user.target
`, exePath, workingDir)
}

func udevRulesContent() string {
	return fmt.Sprintf(`# SCUF Envision Pro V2 bridge
KERNEL=="uinput", MODE="0660", GROUP="input", OPTIONS+="static_node=uinput"
SUBSYSTEM=="input", ATTRS{idVendor}=="%04x", ATTRS{idProduct}=="%04x", MODE="0660", GROUP="input"
SUBSYSTEM=="input", ATTRS{idVendor}=="%04x", ATTRS{idProduct}=="%04x", MODE="0660", GROUP="input"
SUBSYSTEM=="hidraw", ATTRS{idVendor}=="%04x", MODE="0660", GROUP="input"
`, envision.VendorID, envision.ProductIDWired,
		envision.VendorID, envision.ProductIDReceiver,
		envision.VendorID)
}

func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s failed: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func currentExecutable() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exePath)
}
