package core

import (
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taillades/couch/internal/app"
	"github.com/taillades/couch/internal/drive"
	"github.com/taillades/couch/internal/lights"
	"github.com/taillades/couch/internal/model"
	"github.com/taillades/couch/internal/nav"
	"github.com/taillades/couch/internal/shark"
	"github.com/taillades/couch/internal/telemetry"
	"github.com/taillades/couch/internal/thermo"
)

// System manages the lifecycle of the main components: the two drive links,
// the control coordinator, the HTTP control surface, the optional MQTT
// publisher and the optional peripheral boards. It loads configuration from
// a YAML file and constructs objects accordingly.
type System struct {
	cfg *model.Config

	Left, Right *shark.Link
	Coordinator *Coordinator
	App         *app.App
	Publisher   *telemetry.Publisher
	Thermo      *thermo.Monitor
	Lights      *lights.Controller
}

// NewSystem reads the YAML configuration at cfgPath and creates a System.
// Configuration faults are the only errors returned here; absent hardware is
// handled later, at link start.
func NewSystem(cfgPath string) (*System, error) {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return build(&cfg)
}

func build(cfg *model.Config) (*System, error) {
	conv, err := drive.NewConverter(cfg.Drive.TrackWidth, cfg.Drive.MaxSpeed, cfg.Drive.MaxDirection)
	if err != nil {
		return nil, err
	}
	navigator := nav.NewNavigator(cfg.Nav.ArrivalThresholdM, cfg.Nav.SteeringGain)

	linkCfg := shark.LinkConfig{
		Baud:    cfg.Serial.Baud,
		Period:  cfg.Transmit(),
		MaxIdle: cfg.MaxIdle(),
	}
	s := &System{
		cfg:   cfg,
		Left:  shark.NewLink(cfg.Serial.LeftPort, linkCfg),
		Right: shark.NewLink(cfg.Serial.RightPort, linkCfg),
	}

	s.Coordinator = NewCoordinator(s.Left, s.Right, conv, navigator, CoordinatorConfig{
		Period:        cfg.Tick(),
		Deadzone:      cfg.Control.Deadzone,
		ManualTimeout: cfg.ManualTimeout(),
		StartPosition: model.Geopoint{Lat: cfg.Nav.StartLat, Lon: cfg.Nav.StartLon},
		StartHeading:  cfg.Nav.StartThetaDeg * math.Pi / 180,
	})

	// Peripheral boards are optional. Pass untyped nils to the app when
	// absent so its surface checks work.
	var tempSrc app.TempSource
	var lightSw app.LightSwitcher
	if cfg.Thermo.Port != "" {
		s.Thermo = thermo.NewMonitor(cfg.Thermo.Port, cfg.Thermo.Baud, cfg.ThermoReadTimeout())
		tempSrc = s.Thermo
	}
	if cfg.Lights.Port != "" {
		s.Lights = lights.NewController(cfg.Lights.Port, cfg.Lights.Baud)
		lightSw = s.Lights
	}

	s.App, err = app.NewApp(cfg.Server.DBPath, s.Coordinator, s.Left, s.Right, tempSrc, lightSw, s.Snapshot)
	if err != nil {
		return nil, err
	}

	if cfg.MQTT.Broker != "" {
		s.Publisher = telemetry.NewPublisher(
			cfg.MQTT.Broker,
			cfg.MQTT.ClientID,
			cfg.MQTT.Topic,
			time.Duration(cfg.MQTT.IntervalMs)*time.Millisecond,
			s.Snapshot,
		)
	}
	return s, nil
}

// Snapshot assembles the current state of both links and the dead-reckoning
// estimate for broadcast and history.
func (s *System) Snapshot() model.Snapshot {
	var temps model.Temperatures
	if s.Thermo != nil {
		temps = s.Thermo.Temperatures()
	}
	return model.Snapshot{
		Left: model.SideStatus{
			Command:   s.Left.Status(),
			Telemetry: s.Left.Telemetry(),
		},
		Right: model.SideStatus{
			Command:   s.Right.Status(),
			Telemetry: s.Right.Telemetry(),
		},
		Position:     s.Coordinator.Position(),
		Theta:        s.Coordinator.Heading(),
		Target:       s.Coordinator.Target(),
		Temperatures: temps,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// StartAll starts every component. Links that fail to open stay disconnected
// and reconnect lazily on the next command; only the publisher can veto
// startup, and only with a broker misconfiguration.
func (s *System) StartAll() error {
	if !s.Left.Start() {
		log.Printf("[system] left link not connected yet, will retry on demand")
	}
	if !s.Right.Start() {
		log.Printf("[system] right link not connected yet, will retry on demand")
	}
	if s.Thermo != nil && !s.Thermo.Start() {
		log.Printf("[system] temperature probe not connected")
	}
	s.Coordinator.Start()

	if s.Publisher != nil {
		if err := s.Publisher.Start(); err != nil {
			return err
		}
	}

	go func() {
		if err := s.App.Start(s.cfg.Server.Addr); err != nil {
			log.Printf("[system] app server: %v", err)
		}
	}()
	return nil
}

// StopAll stops components in reverse order: intent sources first, then the
// coordinator, then the links so the last transmitted frames are zero.
func (s *System) StopAll() {
	if s.Publisher != nil {
		s.Publisher.Stop()
	}
	s.App.Stop()
	s.Coordinator.Stop()
	s.Left.Stop()
	s.Right.Stop()
	if s.Thermo != nil {
		s.Thermo.Stop()
	}
	if s.Lights != nil {
		s.Lights.Close()
	}
}
