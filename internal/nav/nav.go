// Package nav computes the motion intent needed to reach a waypoint: great
// circle distance, initial bearing, and the steering correction relative to
// the current heading. A dead-reckoning integrator stands in when no real
// positioning sensor is attached.
package nav

import (
	"math"

	"github.com/taillades/couch/internal/model"
)

const (
	// EarthRadius in meters, for the haversine distance.
	EarthRadius = 6_371_000.0

	// DefaultArrivalThreshold in meters. Closer than this counts as arrived.
	DefaultArrivalThreshold = 3.0

	// DefaultSteeringGain scales the heading error into a direction intent.
	DefaultSteeringGain = 1.0
)

// Navigator converts a target position into a (speed, direction) intent.
type Navigator struct {
	ArrivalThreshold float64
	SteeringGain     float64
}

// NewNavigator builds a Navigator; zero parameters fall back to defaults.
func NewNavigator(arrivalThreshold, steeringGain float64) *Navigator {
	if arrivalThreshold == 0 {
		arrivalThreshold = DefaultArrivalThreshold
	}
	if steeringGain == 0 {
		steeringGain = DefaultSteeringGain
	}
	return &Navigator{ArrivalThreshold: arrivalThreshold, SteeringGain: steeringGain}
}

// ComputeCommand returns the speed and direction to reach target from the
// current position and heading. Within the arrival threshold it returns
// (0, 0); otherwise forward speed is full and direction is the wrapped
// bearing error scaled by the steering gain, clamped to [-1, 1].
func (n *Navigator) ComputeCommand(pos model.Geopoint, heading float64, target model.Geopoint) (speed, direction float64) {
	if Haversine(pos, target) < n.ArrivalThreshold {
		return 0, 0
	}
	bearing := InitialBearing(pos, target)
	direction = clamp(wrapAngle(bearing-heading)*n.SteeringGain, -1, 1)
	return 1.0, direction
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b model.Geopoint) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InitialBearing returns the bearing from a towards b in radians from north.
func InitialBearing(a, b model.Geopoint) float64 {
	y := math.Sin(radians(b.Lon-a.Lon)) * math.Cos(radians(b.Lat))
	x := math.Cos(radians(a.Lat))*math.Sin(radians(b.Lat)) -
		math.Sin(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Cos(radians(b.Lon-a.Lon))
	return math.Atan2(y, x)
}

// wrapAngle normalizes an angle into (-pi, pi].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
