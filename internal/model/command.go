// Package model defines shared message and configuration structures for the couch.
package model

import "time"

// Command is a single motion intent: speed and direction both in [-1.0, 1.0],
// stamped when the intent was produced. Commands are superseded, never mutated.
type Command struct {
	Speed     float64   `json:"speed"`
	Direction float64   `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

// SideCommand is the command for one physical side after differential
// conversion, bounded by the configured maxima.
type SideCommand struct {
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
}

// Telemetry holds the readings decoded from a power-module frame.
type Telemetry struct {
	FuelGauge   float64 `json:"fuel_gauge"`   // percent, 0-100
	GroundSpeed float64 `json:"ground_speed"` // mph
}

// Geopoint is a WGS84 position in decimal degrees.
type Geopoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Temperatures holds the five onboard probe readings in Celsius: one probe
// per motor side, ambient air, electronics box and battery pack.
type Temperatures struct {
	Left    float64 `json:"left"`
	Right   float64 `json:"right"`
	Air     float64 `json:"air"`
	Box     float64 `json:"box"`
	Battery float64 `json:"battery"`
}

// SideStatus bundles the last applied command and the last telemetry
// snapshot for one side.
type SideStatus struct {
	Command   Command   `json:"command"`
	Telemetry Telemetry `json:"telemetry"`
}

// Snapshot is the periodic state broadcast to websocket clients and the
// telemetry publisher.
type Snapshot struct {
	Left         SideStatus   `json:"left"`
	Right        SideStatus   `json:"right"`
	Position     Geopoint     `json:"position"`
	Theta        float64      `json:"theta"`
	Target       *Geopoint    `json:"target,omitempty"`
	Temperatures Temperatures `json:"temperatures"`
	Timestamp    string       `json:"timestamp"`
}
