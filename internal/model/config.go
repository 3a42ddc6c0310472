// Package model defines shared configuration structures used to initialize the couch system.
package model

import (
	"fmt"
	"time"
)

// Config represents the root structure loaded from configs/config.yml.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Drive   DriveConfig   `yaml:"drive"`
	Control ControlConfig `yaml:"control"`
	Nav     NavConfig     `yaml:"nav"`
	Server  ServerConfig  `yaml:"server"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Thermo  ThermoConfig  `yaml:"thermo"`
	Lights  LightsConfig  `yaml:"lights"`
}

// SerialConfig names the serial adapters driving the two wheelchair bases.
type SerialConfig struct {
	LeftPort  string `yaml:"left_port"`
	RightPort string `yaml:"right_port"`
	Baud      int    `yaml:"baud"`
}

// DriveConfig holds the differential drive geometry and bounds.
type DriveConfig struct {
	TrackWidth   float64 `yaml:"track_width"`
	MaxSpeed     float64 `yaml:"max_speed"`
	MaxDirection float64 `yaml:"max_direction"`
}

// ControlConfig holds loop cadences and safety thresholds.
type ControlConfig struct {
	TickMs          int     `yaml:"tick_ms"`           // coordinator period
	TransmitMs      int     `yaml:"transmit_ms"`       // link TX/RX cycle period
	MaxIdleMs       int     `yaml:"max_idle_ms"`       // idle watchdog threshold
	ManualTimeoutMs int     `yaml:"manual_timeout_ms"` // manual command staleness
	Deadzone        float64 `yaml:"deadzone"`
}

// NavConfig holds waypoint navigation tuning and the dead-reckoning seed.
type NavConfig struct {
	ArrivalThresholdM float64 `yaml:"arrival_threshold_m"`
	SteeringGain      float64 `yaml:"steering_gain"`
	StartLat          float64 `yaml:"start_lat"`
	StartLon          float64 `yaml:"start_lon"`
	StartThetaDeg     float64 `yaml:"start_theta_deg"`
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"` // snapshot history store
}

// MQTTConfig configures the optional telemetry publisher. Empty broker
// disables publishing.
type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	Topic      string `yaml:"topic"`
	IntervalMs int    `yaml:"interval_ms"`
}

// ThermoConfig names the onboard temperature probe serial board. Empty port
// disables temperature monitoring.
type ThermoConfig struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// LightsConfig names the lights control serial board. Empty port disables
// light switching.
type LightsConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// ApplyDefaults fills unset fields with the tuned defaults for our couch.
func (c *Config) ApplyDefaults() {
	if c.Serial.Baud == 0 {
		c.Serial.Baud = 38400
	}
	if c.Drive.TrackWidth == 0 {
		c.Drive.TrackWidth = 10
	}
	if c.Drive.MaxSpeed == 0 {
		c.Drive.MaxSpeed = 1.0
	}
	if c.Drive.MaxDirection == 0 {
		c.Drive.MaxDirection = 0.2
	}
	if c.Control.TickMs == 0 {
		c.Control.TickMs = 20
	}
	if c.Control.TransmitMs == 0 {
		c.Control.TransmitMs = 16
	}
	if c.Control.MaxIdleMs == 0 {
		c.Control.MaxIdleMs = 1000
	}
	if c.Control.ManualTimeoutMs == 0 {
		c.Control.ManualTimeoutMs = 500
	}
	if c.Control.Deadzone == 0 {
		c.Control.Deadzone = 0.1
	}
	if c.Nav.ArrivalThresholdM == 0 {
		c.Nav.ArrivalThresholdM = 3.0
	}
	if c.Nav.SteeringGain == 0 {
		c.Nav.SteeringGain = 1.0
	}
	if c.Nav.StartThetaDeg == 0 {
		c.Nav.StartThetaDeg = 45
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = "tmp/snapshots.db"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "couch"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "couch/telemetry"
	}
	if c.MQTT.IntervalMs == 0 {
		c.MQTT.IntervalMs = 1000
	}
	if c.Thermo.Baud == 0 {
		c.Thermo.Baud = 9600
	}
	if c.Thermo.ReadTimeoutMs == 0 {
		c.Thermo.ReadTimeoutMs = 2000
	}
	if c.Lights.Baud == 0 {
		c.Lights.Baud = 9600
	}
}

// Validate rejects configurations that cannot run. These are the only faults
// allowed to abort startup.
func (c *Config) Validate() error {
	if c.Serial.LeftPort == "" {
		return fmt.Errorf("config: serial.left_port not set")
	}
	if c.Serial.RightPort == "" {
		return fmt.Errorf("config: serial.right_port not set")
	}
	if c.Serial.LeftPort == c.Serial.RightPort {
		return fmt.Errorf("config: left and right serial ports are both %q", c.Serial.LeftPort)
	}
	if c.Drive.TrackWidth <= 0 {
		return fmt.Errorf("config: drive.track_width must be positive, got %v", c.Drive.TrackWidth)
	}
	if c.Drive.MaxSpeed <= 0 || c.Drive.MaxSpeed > 1 {
		return fmt.Errorf("config: drive.max_speed must be in (0, 1], got %v", c.Drive.MaxSpeed)
	}
	if c.Drive.MaxDirection <= 0 || c.Drive.MaxDirection > 1 {
		return fmt.Errorf("config: drive.max_direction must be in (0, 1], got %v", c.Drive.MaxDirection)
	}
	if c.Control.Deadzone < 0 || c.Control.Deadzone >= 1 {
		return fmt.Errorf("config: control.deadzone must be in [0, 1), got %v", c.Control.Deadzone)
	}
	return nil
}

// Tick returns the coordinator loop period.
func (c *Config) Tick() time.Duration { return time.Duration(c.Control.TickMs) * time.Millisecond }

// Transmit returns the link TX/RX cycle period.
func (c *Config) Transmit() time.Duration {
	return time.Duration(c.Control.TransmitMs) * time.Millisecond
}

// MaxIdle returns the idle watchdog threshold.
func (c *Config) MaxIdle() time.Duration {
	return time.Duration(c.Control.MaxIdleMs) * time.Millisecond
}

// ManualTimeout returns how long a manual command stays authoritative.
func (c *Config) ManualTimeout() time.Duration {
	return time.Duration(c.Control.ManualTimeoutMs) * time.Millisecond
}

// ThermoReadTimeout returns the per-line read deadline on the probe board.
func (c *Config) ThermoReadTimeout() time.Duration {
	return time.Duration(c.Thermo.ReadTimeoutMs) * time.Millisecond
}
