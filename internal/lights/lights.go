// Package lights drives the per-side light strips through their serial
// control board.
package lights

import (
	"fmt"
	"log"
	"sync"

	"github.com/taillades/couch/internal/device"
)

// Controller owns the lights board serial channel. The board expects one
// command line per switch: "<side> True" or "<side> False".
type Controller struct {
	port string

	// open is swapped out by tests to supply a fake device.
	open func() (device.LineDevice, error)

	mu  sync.Mutex
	dev device.LineDevice
}

// NewController creates a Controller for the lights board at port. The
// channel is opened lazily on the first Set.
func NewController(port string, baud int) *Controller {
	c := &Controller{port: port}
	c.open = func() (device.LineDevice, error) {
		return device.NewSerialLineDevice(port, baud)
	}
	return c
}

// Set switches the lights on one side. A write fault drops the channel so
// the next call reconnects fresh.
func (c *Controller) Set(side string, on bool) error {
	if side != "left" && side != "right" {
		return fmt.Errorf("lights: unknown side %q", side)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev == nil {
		dev, err := c.open()
		if err != nil {
			return fmt.Errorf("lights: open %s: %w", c.port, err)
		}
		log.Printf("[lights] board connected at %s", c.port)
		c.dev = dev
	}

	// The board firmware parses the literal tokens True and False.
	state := "False"
	if on {
		state = "True"
	}
	if err := c.dev.WriteLine(side + " " + state); err != nil {
		_ = c.dev.Close()
		c.dev = nil
		return fmt.Errorf("lights: write: %w", err)
	}
	return nil
}

// Close closes the channel if open. Safe to call repeatedly.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev != nil {
		_ = c.dev.Close()
		c.dev = nil
	}
}
