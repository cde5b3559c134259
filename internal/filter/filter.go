// Package filter implements the numeric cleanup applied to analog input
// before it reaches the virtual device: radial stick deadzone, trigger
// deadzone and jitter suppression.
package filter

import (
	"math"

	"github.com/Tealdragon204/scuf-envision-pro-V2-Linux/internal/envision"
)

// Config carries the runtime-tunable thresholds.
type Config struct {
	StickDeadzone   int32 `help:"Radial stick deadzone in raw units" default:"3500" env:"SCUFBRIDGE_STICK_DEADZONE"`
	TriggerDeadzone int32 `help:"Trigger rest-noise floor in raw units" default:"10" env:"SCUFBRIDGE_TRIGGER_DEADZONE"`
	JitterThreshold int32 `help:"Minimum per-channel change worth emitting" default:"64" env:"SCUFBRIDGE_JITTER_THRESHOLD"`
}

// DefaultConfig returns the thresholds tuned for this hardware.
func DefaultConfig() Config {
	return Config{
		StickDeadzone:   envision.DefaultStickDeadzone,
		TriggerDeadzone: envision.DefaultTriggerDeadzone,
		JitterThreshold: envision.DefaultJitterThreshold,
	}
}

// Channel identifies one independently jitter-suppressed analog channel.
type Channel int

const (
	ChannelLeftX Channel = iota
	ChannelLeftY
	ChannelRightX
	ChannelRightY
	ChannelLeftTrigger
	ChannelRightTrigger
	channelCount
)

// Filter holds the per-channel last-value memory used by jitter
// suppression. Channels start at neutral zero, so a rest-position reading
// is never treated as a change. One instance per bridge session; not safe
// for concurrent use, which is fine because the event loop is
// single-threaded.
type Filter struct {
	cfg  Config
	last [channelCount]int32
}

func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Stick applies a radial deadzone to a stick pair. The deadzone is computed
// on the joint magnitude rather than per axis, so the dead radius is uniform
// in every direction and diagonals are not distorted. Output ramps linearly
// from 0 at the deadzone edge to full scale at max deflection, preserving
// the input direction, then clamps to the signed 16-bit range.
func (f *Filter) Stick(x, y int32) (int32, int32) {
	magnitude := math.Hypot(float64(x), float64(y))
	deadzone := float64(f.cfg.StickDeadzone)
	if magnitude <= deadzone {
		return 0, 0
	}

	const maxMagnitude = float64(envision.StickMax)
	scale := (magnitude - deadzone) / (maxMagnitude - deadzone)
	if scale > 1.0 {
		scale = 1.0
	}

	nx := float64(x) / magnitude
	ny := float64(y) / magnitude

	outX := clampStick(int32(nx * scale * maxMagnitude))
	outY := clampStick(int32(ny * scale * maxMagnitude))
	return outX, outY
}

// Trigger floors values below the deadzone to zero. Mechanical triggers on
// this hardware report small nonzero rest values; above the floor the range
// is linear and passed through unchanged.
func (f *Filter) Trigger(v int32) int32 {
	if v < f.cfg.TriggerDeadzone {
		return 0
	}
	return v
}

// SuppressJitter compares a new value against the last emitted value for
// the channel. Changes smaller than the threshold return the previous value
// and changed=false, telling the caller to skip emission entirely. The
// sensor otherwise floods the virtual device with sub-noise-floor frames.
func (f *Filter) SuppressJitter(ch Channel, v int32) (int32, bool) {
	old := f.last[ch]
	delta := v - old
	if delta < 0 {
		delta = -delta
	}
	if delta < f.cfg.JitterThreshold {
		return old, false
	}
	f.last[ch] = v
	return v, true
}

// Reset restores the jitter memory to neutral zero. Called on disconnect,
// right after the zeroed frame, so the remembered values match what the
// virtual device is actually showing.
func (f *Filter) Reset() {
	f.last = [channelCount]int32{}
}

func clampStick(v int32) int32 {
	if v > envision.StickMax {
		return envision.StickMax
	}
	if v < envision.StickMin {
		return envision.StickMin
	}
	return v
}
