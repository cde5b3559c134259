// Package uinput publishes the emulated gamepad through the Linux uinput
// subsystem using the legacy uinput_user_dev setup interface.
package uinput

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ioctl requests and limits from linux/uinput.h.
const (
	maxNameSize = 80
	absSize     = 64

	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetAbsBit  = 0x40045567

	busUSB = 0x03
)

// inputID mirrors struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// userDev mirrors struct uinput_user_dev.
type userDev struct {
	Name       [maxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [absSize]int32
	Absmin     [absSize]int32
	Absfuzz    [absSize]int32
	Absflat    [absSize]int32
}

// inputEvent mirrors struct input_event on 64-bit kernels. Timestamps are
// left zero; the kernel stamps injected events itself.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

func ioctl(f *os.File, req uint, value int) error {
	return unix.IoctlSetInt(int(f.Fd()), req, value)
}

func writeUserDev(f *os.File, dev userDev) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, dev); err != nil {
		return fmt.Errorf("encode uinput_user_dev: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write uinput_user_dev: %w", err)
	}
	return nil
}

func encodeEvents(events []inputEvent) ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, ev := range events {
		if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
