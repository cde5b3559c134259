// Package audio binds and unbinds the controller's USB audio interfaces on
// the snd-usb-audio kernel driver. Unbinding removes the audio device from
// the system entirely (the sound server never sees it); rebinding restores
// it. Requires root.
package audio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
)

// Controller drives the sysfs bind/unbind files. Directory fields exist so
// tests can point it at a synthetic tree.
type Controller struct {
	DriverDir     string // snd-usb-audio driver directory
	UsbDevicesDir string // /sys/bus/usb/devices
	logger        *slog.Logger
}

func NewController(logger *slog.Logger) *Controller {
	return &Controller{
		DriverDir:     "/sys/bus/usb/drivers/snd-usb-audio",
		UsbDevicesDir: "/sys/bus/usb/devices",
		logger:        logger,
	}
}

// Apply converges the audio state to the configured flag. Called at
// startup and after wireless reconnects; failures are logged, never fatal.
func (c *Controller) Apply(disabled bool) {
	if disabled {
		n, err := c.Disable()
		if err != nil {
			c.logger.Warn("could not disable controller audio", "error", err)
			return
		}
		c.logger.Info("controller audio disabled", "unbound", n)
	} else {
		n, err := c.Enable()
		if err != nil {
			c.logger.Warn("could not enable controller audio", "error", err)
			return
		}
		if n > 0 {
			c.logger.Info("controller audio enabled", "rebound", n)
		}
	}
}

// Disable unbinds every controller audio interface currently bound to
// snd-usb-audio. Returns the number unbound.
func (c *Controller) Disable() (int, error) {
	interfaces, err := c.boundInterfaces()
	if err != nil {
		return 0, err
	}
	return c.writeEach(filepath.Join(c.DriverDir, "unbind"), interfaces)
}

// Enable rebinds controller audio-class interfaces that are not currently
// bound. Returns the number rebound.
func (c *Controller) Enable() (int, error) {
	all, err := c.audioClassInterfaces()
	if err != nil {
		return 0, err
	}
	bound, err := c.boundInterfaces()
	if err != nil {
		bound = nil
	}
	boundSet := make(map[string]struct{}, len(bound))
	for _, id := range bound {
		boundSet[id] = struct{}{}
	}
	var unbound []string
	for _, id := range all {
		if _, ok := boundSet[id]; !ok {
			unbound = append(unbound, id)
		}
	}
	return c.writeEach(filepath.Join(c.DriverDir, "bind"), unbound)
}

func (c *Controller) writeEach(ctl string, interfaces []string) (int, error) {
	count := 0
	for _, id := range interfaces {
		if err := os.WriteFile(ctl, []byte(id), 0o200); err != nil {
			c.logger.Warn("driver control write failed", "interface", id, "error", err)
			continue
		}
		count++
	}
	if count == 0 && len(interfaces) > 0 {
		return 0, fmt.Errorf("no interface accepted by %s", ctl)
	}
	return count, nil
}

// boundInterfaces lists the driver's bound interfaces that belong to the
// controller, identified by walking up from the interface directory to the
// USB device's idVendor/idProduct.
func (c *Controller) boundInterfaces() ([]string, error) {
	entries, err := os.ReadDir(c.DriverDir)
	if err != nil {
		return nil, fmt.Errorf("snd-usb-audio driver not present: %w", err)
	}
	var out []string
	for _, entry := range entries {
		path := filepath.Join(c.DriverDir, entry.Name())
		if fi, err := os.Lstat(path); err != nil || fi.Mode()&os.ModeSymlink == 0 {
			continue
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			continue
		}
		if matchesController(real) {
			out = append(out, entry.Name())
		}
	}
	return out, nil
}

// audioClassInterfaces scans all USB interfaces for audio-class
// (bInterfaceClass 01) functions on the controller, bound or not.
func (c *Controller) audioClassInterfaces() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.UsbDevicesDir, "*:*"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, dir := range matches {
		if readAttr(filepath.Join(dir, "bInterfaceClass")) != "01" {
			continue
		}
		// Interface dirs ("1-2:1.0") sit next to their device dir ("1-2"),
		// not under it.
		devName, _, ok := strings.Cut(filepath.Base(dir), ":")
		if !ok {
			continue
		}
		parent := filepath.Join(c.UsbDevicesDir, devName)
		if readAttr(filepath.Join(parent, "idVendor")) != fmt.Sprintf("%04x", envision.VendorID) {
			continue
		}
		pid := readAttr(filepath.Join(parent, "idProduct"))
		if pid == fmt.Sprintf("%04x", envision.ProductIDWired) ||
			pid == fmt.Sprintf("%04x", envision.ProductIDReceiver) {
			out = append(out, filepath.Base(dir))
		}
	}
	return out, nil
}

// matchesController walks parent directories looking for the USB device's
// idVendor/idProduct attributes.
func matchesController(dir string) bool {
	check := dir
	for i := 0; i < 10; i++ {
		check = filepath.Dir(check)
		if check == "/" || check == "." {
			return false
		}
		vid := readAttr(filepath.Join(check, "idVendor"))
		if vid == "" {
			continue
		}
		if vid != fmt.Sprintf("%04x", envision.VendorID) {
			return false
		}
		pid := readAttr(filepath.Join(check, "idProduct"))
		return pid == fmt.Sprintf("%04x", envision.ProductIDWired) ||
			pid == fmt.Sprintf("%04x", envision.ProductIDReceiver)
	}
	return false
}

func readAttr(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
