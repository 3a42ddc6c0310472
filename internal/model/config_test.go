package model

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func validConfig() Config {
	var c Config
	c.Serial.LeftPort = "/dev/ttyUSB0"
	c.Serial.RightPort = "/dev/ttyUSB1"
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := validConfig()

	if c.Serial.Baud != 38400 {
		t.Errorf("baud = %d, want 38400", c.Serial.Baud)
	}
	if c.Drive.TrackWidth != 10 || c.Drive.MaxSpeed != 1.0 || c.Drive.MaxDirection != 0.2 {
		t.Errorf("drive defaults = %+v", c.Drive)
	}
	if c.Tick() != 20*time.Millisecond {
		t.Errorf("tick = %v, want 20ms", c.Tick())
	}
	if c.Transmit() != 16*time.Millisecond {
		t.Errorf("transmit = %v, want 16ms", c.Transmit())
	}
	if c.MaxIdle() != time.Second {
		t.Errorf("max idle = %v, want 1s", c.MaxIdle())
	}
	if c.Control.Deadzone != 0.1 {
		t.Errorf("deadzone = %v, want 0.1", c.Control.Deadzone)
	}
	if c.Nav.ArrivalThresholdM != 3.0 {
		t.Errorf("arrival threshold = %v, want 3", c.Nav.ArrivalThresholdM)
	}
	if c.Thermo.Baud != 9600 || c.ThermoReadTimeout() != 2*time.Second {
		t.Errorf("thermo defaults = %+v", c.Thermo)
	}
	if c.Lights.Baud != 9600 {
		t.Errorf("lights baud = %d, want 9600", c.Lights.Baud)
	}
	if c.Thermo.Port != "" || c.Lights.Port != "" {
		t.Errorf("peripheral ports should default to disabled, got %q %q", c.Thermo.Port, c.Lights.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing left port", func(c *Config) { c.Serial.LeftPort = "" }, false},
		{"missing right port", func(c *Config) { c.Serial.RightPort = "" }, false},
		{"same port both sides", func(c *Config) { c.Serial.RightPort = c.Serial.LeftPort }, false},
		{"negative track width", func(c *Config) { c.Drive.TrackWidth = -1 }, false},
		{"max speed above unity", func(c *Config) { c.Drive.MaxSpeed = 1.5 }, false},
		{"negative max direction", func(c *Config) { c.Drive.MaxDirection = -0.2 }, false},
		{"deadzone of one", func(c *Config) { c.Control.Deadzone = 1.0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigYAML(t *testing.T) {
	src := `
serial:
  left_port: /dev/ttyUSB0
  right_port: /dev/ttyUSB1
drive:
  track_width: 12
control:
  max_idle_ms: 2000
nav:
  start_lat: 40.7864
  start_lon: -119.2065
`
	var c Config
	if err := yaml.Unmarshal([]byte(src), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if c.Drive.TrackWidth != 12 {
		t.Errorf("track width = %v, want explicit 12", c.Drive.TrackWidth)
	}
	if c.MaxIdle() != 2*time.Second {
		t.Errorf("max idle = %v, want explicit 2s", c.MaxIdle())
	}
	if c.Drive.MaxSpeed != 1.0 {
		t.Errorf("max speed = %v, want defaulted 1.0", c.Drive.MaxSpeed)
	}
	if c.Nav.StartLat != 40.7864 {
		t.Errorf("start lat = %v", c.Nav.StartLat)
	}
}
