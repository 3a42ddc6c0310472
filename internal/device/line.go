package device

import (
	"errors"
	"time"

	serial "go.bug.st/serial"
)

// LineDevice defines line-oriented peripherals such as the temperature probe
// array and the lights board, both of which speak newline-terminated text.
type LineDevice interface {
	// ReadLine reads a single line terminated by '\n', without the
	// terminator. If timeout > 0, it must return ErrTimeout after timeout
	// even if no full line arrived.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}

// SerialLineDevice implements LineDevice using go.bug.st/serial. The
// peripheral boards run the default 8-N-1 framing.
type SerialLineDevice struct {
	port    serial.Port
	dev     string
	baud    int
	partial []byte
}

// NewSerialLineDevice creates and opens a line-oriented serial device with
// the given path and baudrate.
func NewSerialLineDevice(dev string, baud int) (*SerialLineDevice, error) {
	s := &SerialLineDevice{dev: dev, baud: baud}
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open ensures that the serial port is ready for use.
func (s *SerialLineDevice) Open() error {
	if s.port != nil {
		return nil
	}
	p, err := serial.Open(s.dev, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return err
	}
	s.port = p
	return nil
}

// Close closes the underlying serial connection.
func (s *SerialLineDevice) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// ReadLine reads bytes until '\n' or the deadline. A partial line interrupted
// by the deadline is kept and completed by the next call.
func (s *SerialLineDevice) ReadLine(timeout time.Duration) (string, error) {
	if s.port == nil {
		return "", errors.New("serial port not open")
	}
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 1)
	for {
		remaining := serial.NoTimeout
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return "", ErrTimeout
			}
		}
		if err := s.port.SetReadTimeout(remaining); err != nil {
			return "", err
		}
		n, err := s.port.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return "", ErrTimeout
		}
		if buf[0] == '\n' {
			line := string(s.partial)
			s.partial = s.partial[:0]
			return line, nil
		}
		s.partial = append(s.partial, buf[0])
	}
}

// WriteLine writes a single line followed by '\n' to the serial port.
func (s *SerialLineDevice) WriteLine(line string) error {
	if s.port == nil {
		return errors.New("serial port not open")
	}
	_, err := s.port.Write(append([]byte(line), '\n'))
	return err
}
