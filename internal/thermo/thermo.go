// Package thermo reads the onboard temperature probe array. The sensor board
// reports one line of five semicolon-separated Celsius values per cycle:
// left;right;air;box;battery.
package thermo

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/taillades/couch/internal/device"
	"github.com/taillades/couch/internal/model"
)

const (
	defaultReadTimeout = 2 * time.Second

	// retryWait paces reconnection after a hard read fault.
	retryWait = time.Second

	stopTimeout = time.Second
)

// Monitor owns the probe board serial channel and keeps the latest parsed
// reading. Malformed or short lines are dropped without disturbing the last
// good reading.
type Monitor struct {
	port        string
	readTimeout time.Duration

	// open is swapped out by tests to supply a fake device.
	open func() (device.LineDevice, error)

	mu   sync.Mutex
	last model.Temperatures
	dev  device.LineDevice
	stop chan struct{}
	done chan struct{}
}

// NewMonitor creates a Monitor for the probe board at port. The channel is
// not opened until Start.
func NewMonitor(port string, baud int, readTimeout time.Duration) *Monitor {
	if readTimeout == 0 {
		readTimeout = defaultReadTimeout
	}
	m := &Monitor{port: port, readTimeout: readTimeout}
	m.open = func() (device.LineDevice, error) {
		return device.NewSerialLineDevice(port, baud)
	}
	return m
}

// Start attempts to open the probe channel and begin reading. It returns
// whether the connection was established; a failed open is recoverable by
// calling Start again.
func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return true
	}
	dev, err := m.open()
	if err != nil {
		log.Printf("[thermo] unable to open serial connection: %v", err)
		return false
	}
	log.Printf("[thermo] probe board connected at %s", m.port)
	m.dev = dev
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.loop(dev, m.stop, m.done)
	return true
}

func (m *Monitor) loop(dev device.LineDevice, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		line, err := dev.ReadLine(m.readTimeout)
		if err != nil {
			if !errors.Is(err, device.ErrTimeout) {
				log.Printf("[thermo] read failed: %v", err)
				select {
				case <-stop:
					return
				case <-time.After(retryWait):
				}
			}
			continue
		}
		if t, ok := parseLine(line); ok {
			m.mu.Lock()
			m.last = t
			m.mu.Unlock()
		}
	}
}

// Temperatures returns the latest parsed reading. It may be stale or zero if
// the probe board has not reported yet.
func (m *Monitor) Temperatures() model.Temperatures {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Stop signals the reader to exit and closes the channel. Safe to call even
// if Start never succeeded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stop, done, dev := m.stop, m.done, m.dev
	m.stop, m.done, m.dev = nil, nil, nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(stopTimeout):
			log.Printf("[thermo] reader did not exit within %v", stopTimeout)
		}
	}
	if dev != nil {
		_ = dev.Close()
	}
}

// parseLine decodes one probe report. Anything other than exactly five
// parseable floats is rejected.
func parseLine(line string) (model.Temperatures, bool) {
	parts := strings.Split(strings.TrimSpace(line), ";")
	if len(parts) != 5 {
		return model.Temperatures{}, false
	}
	vals := make([]float64, 5)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Temperatures{}, false
		}
		vals[i] = v
	}
	return model.Temperatures{
		Left:    vals[0],
		Right:   vals[1],
		Air:     vals[2],
		Box:     vals[3],
		Battery: vals[4],
	}, true
}
