// Package drive converts a single motion intent into per-side commands for
// the two wheelchair bases using differential drive kinematics.
package drive

import (
	"fmt"
	"math"

	"github.com/taillades/couch/internal/model"
)

// Defaults fine tuned for our couch.
const (
	DefaultTrackWidth   = 10.0
	DefaultMaxSpeed     = 1.0
	DefaultMaxDirection = 0.2
)

// effectively infinite turning radius for straight travel
const infiniteRadius = math.MaxFloat64 / 4

// Converter maps (speed, direction) to bounded left and right side commands.
// It is stateless aside from the configured constants.
type Converter struct {
	trackWidth   float64
	maxSpeed     float64
	maxDirection float64
}

// NewConverter builds a Converter. Geometry and bound errors are fatal
// configuration faults, surfaced here and nowhere at runtime.
func NewConverter(trackWidth, maxSpeed, maxDirection float64) (*Converter, error) {
	if trackWidth <= 0 {
		return nil, fmt.Errorf("drive: track width must be positive, got %v", trackWidth)
	}
	if maxSpeed <= 0 {
		return nil, fmt.Errorf("drive: max speed must be positive, got %v", maxSpeed)
	}
	if maxDirection <= 0 {
		return nil, fmt.Errorf("drive: max direction must be positive, got %v", maxDirection)
	}
	return &Converter{trackWidth: trackWidth, maxSpeed: maxSpeed, maxDirection: maxDirection}, nil
}

// Split computes the left and right side commands for one intent.
//
// Speeds and steering terms are normalized in two separate passes so the
// requested turning radius survives speed throttling; clamping each side
// independently would distort it.
func (c *Converter) Split(speed, direction float64) (left, right model.SideCommand) {
	speed = clamp(speed, -1, 1)
	direction = clamp(direction, -1, 1)

	rightSpeed := speed + direction*c.trackWidth/2
	leftSpeed := speed - direction*c.trackWidth/2

	if peak := math.Max(math.Abs(rightSpeed), math.Abs(leftSpeed)); peak > c.maxSpeed {
		rightSpeed = rightSpeed * c.maxSpeed / peak
		leftSpeed = leftSpeed * c.maxSpeed / peak
	}

	// Instantaneous center of rotation; equal side speeds mean straight
	// travel, substituted as an infinite radius.
	radius := c.trackWidth / 2 * zeroSafeDiv(rightSpeed+leftSpeed, rightSpeed-leftSpeed)

	rightDirection := rightSpeed / (radius + c.trackWidth/2*sign(direction))
	leftDirection := leftSpeed / (radius - c.trackWidth/2*sign(direction))

	if peak := math.Max(math.Abs(rightDirection), math.Abs(leftDirection)); peak > c.maxDirection {
		rightDirection = rightDirection * c.maxDirection / peak
		leftDirection = leftDirection * c.maxDirection / peak
	}

	left = model.SideCommand{Speed: leftSpeed, Direction: leftDirection}
	right = model.SideCommand{Speed: rightSpeed, Direction: rightDirection}
	return left, right
}

func zeroSafeDiv(a, b float64) float64 {
	if b == 0 {
		return infiniteRadius
	}
	return a / b
}

func sign(a float64) float64 {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
