// Package device implements SerialDevice using go.bug.st/serial,
// which provides real serial communication with the wheelchair adapters.
package device

import (
	"errors"
	"fmt"
	"time"

	serial "go.bug.st/serial"
)

// SerialDevice implements Device using go.bug.st/serial. The wheelchair bus
// runs 8 data bits, no parity, two stop bits.
type SerialDevice struct {
	port serial.Port
	dev  string
	baud int
}

// NewSerialDevice creates and opens a serial device with the given path and baudrate.
func NewSerialDevice(dev string, baud int) (*SerialDevice, error) {
	s := &SerialDevice{dev: dev, baud: baud}
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open ensures that the serial port is ready for use. Reopening after a
// transient failure goes through here as well.
func (s *SerialDevice) Open() error {
	if s.port != nil {
		return nil
	}
	mode := &serial.Mode{
		BaudRate: s.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
	p, err := serial.Open(s.dev, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial %s: %w", s.dev, err)
	}
	s.port = p
	return nil
}

// Close closes the underlying serial connection.
func (s *SerialDevice) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// ReadByte reads a single byte from the serial port, blocking at most timeout.
func (s *SerialDevice) ReadByte(timeout time.Duration) (byte, error) {
	if s.port == nil {
		return 0, errors.New("serial port not open")
	}
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}
	buf := make([]byte, 1)
	n, err := s.port.Read(buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	return buf[0], nil
}

// Write writes p to the serial port and drains the output buffer so the
// frame is fully on the wire before the next cycle.
func (s *SerialDevice) Write(p []byte) error {
	if s.port == nil {
		return errors.New("serial port not open")
	}
	if _, err := s.port.Write(p); err != nil {
		return err
	}
	return s.port.Drain()
}
