package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCapabilityBitmap(t *testing.T) {
	type testCase struct {
		name  string
		input string
		want  []uint16
	}
	tests := []testCase{
		{name: "empty", input: "", want: nil},
		{name: "single word low bits", input: "3", want: []uint16{0, 1}},
		{name: "single word sparse", input: "100000001", want: []uint16{0, 32}},
		// Two words: the first word holds bits 64..127.
		{name: "two words", input: "1 0", want: []uint16{64}},
		{name: "two words mixed", input: "3 8000000000000000", want: []uint16{63, 64, 65}},
		{name: "garbage", input: "xyz", want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseCapabilityBitmap(tc.input))
		})
	}
}

func TestParseHidID(t *testing.T) {
	uevent := "DRIVER=hid-generic\nHID_ID=0003:00001B1C:00003A05\nHID_NAME=SCUF Envision Pro\n"
	v, p, ok := parseHidID(uevent)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1B1C), v)
	assert.Equal(t, uint16(0x3A05), p)
}

func TestParseHidIDMalformed(t *testing.T) {
	for _, uevent := range []string{
		"",
		"DRIVER=hid-generic\n",
		"HID_ID=0003:00001B1C\n",
		"HID_ID=0003:zzzz:0001\n",
	} {
		_, _, ok := parseHidID(uevent)
		assert.False(t, ok, "uevent %q should not parse", uevent)
	}
}
