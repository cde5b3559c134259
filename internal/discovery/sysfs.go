package discovery

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SysfsEnumerator reads input node metadata from the kernel's sysfs tree.
// It only ever reads; missing files and unreadable attributes degrade to
// empty metadata instead of errors.
type SysfsEnumerator struct {
	// InputRoot and HidrawRoot default to the real sysfs class
	// directories when empty.
	InputRoot  string
	HidrawRoot string
	DevInput   string
	Dev        string
}

func NewSysfsEnumerator() *SysfsEnumerator {
	return &SysfsEnumerator{
		InputRoot:  "/sys/class/input",
		HidrawRoot: "/sys/class/hidraw",
		DevInput:   "/dev/input",
		Dev:        "/dev",
	}
}

func (e *SysfsEnumerator) InputNodes() ([]Candidate, error) {
	entries, err := os.ReadDir(e.InputRoot)
	if err != nil {
		return nil, err
	}

	var nodes []Candidate
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "event") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimPrefix(name, "event"))
		if err != nil {
			continue
		}
		devPath := filepath.Join(e.DevInput, name)
		if _, err := os.Stat(devPath); err != nil {
			continue
		}

		sysDir := filepath.Join(e.InputRoot, name)
		c := Candidate{
			EventPath:          devPath,
			EventNumber:        num,
			Name:               readSysfs(filepath.Join(sysDir, "device", "name")),
			Vendor:             readSysfsHex16(filepath.Join(sysDir, "device", "id", "vendor")),
			Product:            readSysfsHex16(filepath.Join(sysDir, "device", "id", "product")),
			HasJoystickHandler: hasJoystickSibling(filepath.Join(sysDir, "device")),
			AbsCodes:           parseCapabilityBitmap(readSysfs(filepath.Join(sysDir, "device", "capabilities", "abs"))),
			KeyCodes:           parseCapabilityBitmap(readSysfs(filepath.Join(sysDir, "device", "capabilities", "key"))),
		}
		nodes = append(nodes, c)
	}
	return nodes, nil
}

func (e *SysfsEnumerator) HidrawNodes() ([]HidrawNode, error) {
	entries, err := os.ReadDir(e.HidrawRoot)
	if err != nil {
		return nil, err
	}

	var nodes []HidrawNode
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "hidraw") {
			continue
		}
		devPath := filepath.Join(e.Dev, name)
		if _, err := os.Stat(devPath); err != nil {
			continue
		}
		uevent := readSysfs(filepath.Join(e.HidrawRoot, name, "device", "uevent"))
		vendor, product, ok := parseHidID(uevent)
		if !ok {
			continue
		}
		nodes = append(nodes, HidrawNode{Path: devPath, Vendor: vendor, Product: product})
	}
	return nodes, nil
}

// readSysfs reads a sysfs attribute, returning "" on any failure.
func readSysfs(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSysfsHex16(path string) uint16 {
	v, err := strconv.ParseUint(readSysfs(path), 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

// hasJoystickSibling checks the input device directory for a js* handler
// entry. The kernel only attaches the joystick class handler to analog
// gamepad interfaces, never to companion consumer-control interfaces.
func hasJoystickSibling(deviceDir string) bool {
	entries, err := os.ReadDir(deviceDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "js") {
			return true
		}
	}
	return false
}

// parseCapabilityBitmap decodes a sysfs capability bitmap ("b 0 0 ...":
// space-separated hex words, most significant word first, 64 bits per
// word) into the list of set event codes in ascending order.
func parseCapabilityBitmap(s string) []uint16 {
	if s == "" {
		return nil
	}
	words := strings.Fields(s)
	var codes []uint16
	for i := len(words) - 1; i >= 0; i-- {
		v, err := strconv.ParseUint(words[i], 16, 64)
		if err != nil {
			return nil
		}
		base := uint((len(words) - 1 - i) * 64)
		for bit := uint(0); bit < 64; bit++ {
			if v&(1<<bit) != 0 {
				codes = append(codes, uint16(base+bit))
			}
		}
	}
	return codes
}

// parseHidID extracts vendor and product from a hidraw uevent HID_ID line,
// e.g. "HID_ID=0003:00001B1C:00003A05".
func parseHidID(uevent string) (vendor, product uint16, ok bool) {
	for _, line := range strings.Split(uevent, "\n") {
		if !strings.HasPrefix(line, "HID_ID=") {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(line, "HID_ID="), ":")
		if len(parts) < 3 {
			return 0, 0, false
		}
		v, err1 := strconv.ParseUint(parts[1], 16, 32)
		p, err2 := strconv.ParseUint(parts[2], 16, 32)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return uint16(v), uint16(p), true
	}
	return 0, 0, false
}
