// Package app implements the HTTP control surface and API layer for the
// couch: manual commands, waypoint management, status queries, a websocket
// telemetry feed and a snapshot history store.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.etcd.io/bbolt"

	"github.com/taillades/couch/internal/model"
)

// Controller is the intent surface the HTTP layer drives. The control
// coordinator implements it.
type Controller interface {
	SetManualCommand(speed, direction float64)
	SetManualOverride(enabled bool)
	SetTarget(target model.Geopoint)
	ClearTarget()
	Target() *model.Geopoint
	Position() model.Geopoint
	Heading() float64
}

// Side is the status surface of one drive link.
type Side interface {
	Status() model.Command
	Telemetry() model.Telemetry
}

// TempSource reports the onboard probe array readings.
type TempSource interface {
	Temperatures() model.Temperatures
}

// LightSwitcher switches the per-side light strips.
type LightSwitcher interface {
	Set(side string, on bool) error
}

const snapshotBucket = "snapshots"

// App bundles the HTTP server, the websocket broadcaster and the snapshot
// history database.
type App struct {
	Mux    *http.ServeMux
	Server *http.Server
	DB     *bbolt.DB

	controller  Controller
	left, right Side
	thermo      TempSource    // nil when no probe board is configured
	lights      LightSwitcher // nil when no lights board is configured
	snapshot    func() model.Snapshot

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewApp initializes the web app with its routes and snapshot store. The
// thermo and lights surfaces may be nil; their endpoints then report the
// peripheral as unconfigured.
func NewApp(dbPath string, controller Controller, left, right Side, thermo TempSource, lights LightSwitcher, snapshot func() model.Snapshot) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("[app] failed to create db dir: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0o666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("[app] failed to open snapshot store: %w", err)
	}

	a := &App{
		Mux:        http.NewServeMux(),
		DB:         db,
		controller: controller,
		left:       left,
		right:      right,
		thermo:     thermo,
		lights:     lights,
		snapshot:   snapshot,
		clients:    map[*websocket.Conn]bool{},
		stop:       make(chan struct{}),
	}
	a.registerRoutes()
	return a, nil
}

// Start launches the broadcaster and the web server, blocking until stopped.
func (a *App) Start(addr string) error {
	if addr == "" {
		log.Println("[app] server not started (empty address)")
		return nil
	}

	addr = strings.TrimPrefix(addr, "http://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	a.wg.Add(1)
	go a.broadcastLoop()

	a.Server = &http.Server{
		Addr:    addr,
		Handler: logRequests(a.Mux),
	}

	log.Printf("[app] control server listening at http://%s", addr)

	if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("[app] HTTP server error: %w", err)
	}
	return nil
}

// broadcastLoop periodically snapshots system state, stores it and pushes it
// to all websocket clients.
func (a *App) broadcastLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
		}
		snap := a.snapshot()
		a.storeSnapshot(snap)
		a.broadcast(snap)
	}
}

// Stop gracefully stops the broadcaster, the web server and the DB.
func (a *App) Stop() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	a.wg.Wait()

	if a.Server != nil {
		log.Println("[app] shutting down web server...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.Server.Shutdown(ctx); err != nil {
			log.Printf("[app] HTTP server shutdown error: %v", err)
		}
	}

	a.mu.Lock()
	for conn := range a.clients {
		_ = conn.Close()
	}
	a.clients = map[*websocket.Conn]bool{}
	a.mu.Unlock()

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("[app] error closing snapshot store: %v", err)
		}
	}
}
