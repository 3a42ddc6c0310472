// Package core contains the main runtime logic and orchestration layer for
// the couch: the control coordinator resolving the active intent source and
// the system wiring everything together from configuration.
package core

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/taillades/couch/internal/drive"
	"github.com/taillades/couch/internal/model"
	"github.com/taillades/couch/internal/nav"
)

// Actuator is the command/telemetry surface of one drive link.
type Actuator interface {
	SetCommand(speed, direction float64)
	Status() model.Command
	Telemetry() model.Telemetry
}

// Coordinator runs the fixed-cadence control loop. Each tick it resolves the
// active intent source (manual command, waypoint navigation, or zero), pushes
// it through the differential drive converter and forwards the two side
// commands to the actuator links.
type Coordinator struct {
	left, right Actuator
	conv        *drive.Converter
	navigator   *nav.Navigator

	period        time.Duration
	deadzone      float64
	manualTimeout time.Duration

	mu             sync.Mutex
	manual         model.Command
	manualOverride bool
	target         *model.Geopoint
	navCmd         model.Command
	pos            model.Geopoint
	heading        float64

	stop chan struct{}
	done chan struct{}
}

// CoordinatorConfig wires a Coordinator.
type CoordinatorConfig struct {
	Period        time.Duration
	Deadzone      float64
	ManualTimeout time.Duration
	StartPosition model.Geopoint
	StartHeading  float64 // radians
}

// NewCoordinator builds the control loop over the two links.
func NewCoordinator(left, right Actuator, conv *drive.Converter, navigator *nav.Navigator, cfg CoordinatorConfig) *Coordinator {
	if cfg.Period == 0 {
		cfg.Period = 20 * time.Millisecond
	}
	if cfg.ManualTimeout == 0 {
		cfg.ManualTimeout = 500 * time.Millisecond
	}
	return &Coordinator{
		left:          left,
		right:         right,
		conv:          conv,
		navigator:     navigator,
		period:        cfg.Period,
		deadzone:      cfg.Deadzone,
		manualTimeout: cfg.ManualTimeout,
		pos:           cfg.StartPosition,
		heading:       cfg.StartHeading,
	}
}

// Start launches the control loop goroutine.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.stop, c.done)
}

func (c *Coordinator) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Tick(time.Now())
		}
	}
}

// Tick runs one control iteration. Exported so the loop stays trivially
// schedulable from tests.
func (c *Coordinator) Tick(now time.Time) {
	speed, direction := c.resolve(now)
	left, right := c.conv.Split(speed, direction)
	c.left.SetCommand(left.Speed, left.Direction)
	c.right.SetCommand(right.Speed, right.Direction)
}

// resolve picks the active intent source for this tick. A fresh manual
// command outside the deadzone wins; the override flag forces the manual
// source even when idle. Otherwise a set waypoint target drives autonomous
// navigation, advancing the dead-reckoning estimate alongside.
func (c *Coordinator) resolve(now time.Time) (speed, direction float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.applyDeadzone(c.manual.Speed)
	md := c.applyDeadzone(c.manual.Direction)
	fresh := now.Sub(c.manual.Timestamp) <= c.manualTimeout
	if c.manualOverride || (fresh && (ms != 0 || md != 0)) {
		return ms, md
	}

	if c.target != nil {
		s, d := c.navigator.ComputeCommand(c.pos, c.heading, *c.target)
		c.pos, c.heading = nav.SimulateStep(c.pos, c.heading, s, d, c.period.Seconds())
		c.navCmd = model.Command{Speed: s, Direction: d, Timestamp: now}
		return s, d
	}

	return 0, 0
}

func (c *Coordinator) applyDeadzone(v float64) float64 {
	if math.Abs(v) < c.deadzone {
		return 0
	}
	return v
}

// SetManualCommand records a manual intent, stamped now.
func (c *Coordinator) SetManualCommand(speed, direction float64) {
	c.mu.Lock()
	c.manual = model.Command{Speed: speed, Direction: direction, Timestamp: time.Now()}
	c.mu.Unlock()
}

// SetManualOverride forces or releases the manual source. Navigation state
// is left untouched either way.
func (c *Coordinator) SetManualOverride(enabled bool) {
	c.mu.Lock()
	c.manualOverride = enabled
	c.mu.Unlock()
	log.Printf("[coordinator] manual override: %v", enabled)
}

// SetTarget enables autonomous navigation towards the waypoint.
func (c *Coordinator) SetTarget(target model.Geopoint) {
	c.mu.Lock()
	t := target
	c.target = &t
	c.mu.Unlock()
	log.Printf("[coordinator] target set: %.6f, %.6f", target.Lat, target.Lon)
}

// ClearTarget disables autonomous navigation and zeroes the pending
// navigation command immediately.
func (c *Coordinator) ClearTarget() {
	c.mu.Lock()
	c.target = nil
	c.navCmd = model.Command{Timestamp: time.Now()}
	c.mu.Unlock()
	log.Printf("[coordinator] target cleared")
}

// Target returns the active waypoint, or nil.
func (c *Coordinator) Target() *model.Geopoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return nil
	}
	t := *c.target
	return &t
}

// Position returns the dead-reckoning position estimate.
func (c *Coordinator) Position() model.Geopoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// Heading returns the dead-reckoning heading estimate in radians.
func (c *Coordinator) Heading() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heading
}

// NavCommand returns the latest autonomous command.
func (c *Coordinator) NavCommand() model.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navCmd
}

// Stop signals the loop to exit and waits for the current tick to finish.
// Safe to call without Start.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		log.Printf("[coordinator] loop did not exit in time")
	}
}
