package voice

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive means Start was called while a session is in flight.
	// Only one capture and one recognition stream exist at a time.
	ErrSessionActive = errors.New("a voice session is already active")

	// ErrUnsupported means no capture backend is available on this platform.
	ErrUnsupported = errors.New("audio capture is not supported on this platform")

	// ErrNotConfigured means the service is missing a capture source or a
	// transcription client.
	ErrNotConfigured = errors.New("voice service is not fully configured")
)

// DeviceError wraps a capture device failure. Op names the device operation
// that failed.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s failed: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
