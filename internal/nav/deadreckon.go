package nav

import (
	"math"

	"github.com/taillades/couch/internal/model"
)

// Dead-reckoning calibration. The speed-to-degree factor converts full
// forward speed over one 20 ms tick into degrees of latitude/longitude;
// tuned against the couch rather than derived.
const (
	simTickSeconds   = 0.02
	mphToDegreeTick  = 69.0 * 50 * 3600
	simSpeedTrim     = 100.0
	maxSimDirection  = 0.2
	maxSimHeadingRad = math.Pi / 2
)

// SimulateStep integrates position along the heading and the heading by a
// damped turn-rate term, over dt seconds. It substitutes for a real
// positioning sensor: a GPS feed can replace callers of this function
// without touching ComputeCommand.
func SimulateStep(pos model.Geopoint, heading, speed, direction, dt float64) (model.Geopoint, float64) {
	direction = clamp(direction, -maxSimDirection, maxSimDirection)
	step := speed / mphToDegreeTick * simSpeedTrim * (dt / simTickSeconds)

	next := model.Geopoint{
		Lat: pos.Lat + step*math.Cos(heading),
		Lon: pos.Lon + step*math.Sin(heading),
	}
	heading = clamp(heading+direction/(1+step), -maxSimHeadingRad, maxSimHeadingRad)
	return next, heading
}
