package bridge

import "errors"

// The bridge distinguishes its terminal failures so the operator knows
// whether to check cabling/pairing, permissions, or file a bug.
var (
	// ErrAcquisition: the primary device could not be opened or
	// exclusively grabbed. Usually permissions, sometimes a replug race.
	ErrAcquisition = errors.New("failed to acquire physical controller")

	// ErrLinkLost: the already-acquired primary returned a read error and
	// reconnection is not enabled for this connection type.
	ErrLinkLost = errors.New("controller link lost")

	// ErrReconnectTimeout: the controller did not reappear within the
	// configured reconnect window.
	ErrReconnectTimeout = errors.New("controller did not return before the reconnect deadline")

	// ErrPublisher: the virtual gamepad could not be created or written.
	// Without it there is no way to deliver output.
	ErrPublisher = errors.New("virtual gamepad failure")
)
