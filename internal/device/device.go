// Package device defines a unified interface for byte-oriented communication
// devices such as the wheelchair serial adapters. It abstracts reading and
// writing raw bytes with optional timeouts.
package device

import (
	"errors"
	"time"
)

// ErrTimeout is returned by ReadByte when no byte arrives within the timeout.
var ErrTimeout = errors.New("read timeout")

// Device defines an abstract interface for frame-level serial communication.
type Device interface {
	// ReadByte reads a single byte. If timeout > 0, it must return
	// ErrTimeout after timeout even if no data is available.
	ReadByte(timeout time.Duration) (byte, error)

	// Write writes p to the device in one operation.
	Write(p []byte) error

	// Close closes the device and releases underlying resources.
	Close() error
}
