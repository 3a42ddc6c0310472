package app

import (
	"encoding/json"
	"log"
	"net/http"

	"go.etcd.io/bbolt"

	"github.com/taillades/couch/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[app] warning: failed to write response: %v", err)
	}
}

func (a *App) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "couch control server is running"})
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleControl accepts a manual {speed, direction} command and hands it to
// the coordinator. Values outside [-1, 1] are rejected rather than clamped:
// a wildly out-of-range command points at a broken intent source.
func (a *App) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cmd model.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "invalid command payload", http.StatusBadRequest)
		return
	}
	if cmd.Speed < -1 || cmd.Speed > 1 || cmd.Direction < -1 || cmd.Direction > 1 {
		http.Error(w, "speed and direction must be in [-1, 1]", http.StatusBadRequest)
		return
	}
	a.controller.SetManualCommand(cmd.Speed, cmd.Direction)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "couch command received",
		"speed":     cmd.Speed,
		"direction": cmd.Direction,
	})
}

func (a *App) handleManualOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	a.controller.SetManualOverride(body.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"manual_override": body.Enabled})
}

// handleTargetPosition manages the autonomous waypoint: POST sets it, GET
// reads it, DELETE clears it (and zeroes the pending navigation command).
func (a *App) handleTargetPosition(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var target model.Geopoint
		if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
			http.Error(w, "invalid target payload", http.StatusBadRequest)
			return
		}
		a.controller.SetTarget(target)
		writeJSON(w, http.StatusOK, map[string]string{"message": "target position received"})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.controller.Target())
	case http.MethodDelete:
		a.controller.ClearTarget()
		writeJSON(w, http.StatusOK, map[string]string{"message": "target position cleared"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *App) handleSideStatus(side Side) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, model.SideStatus{
			Command:   side.Status(),
			Telemetry: side.Telemetry(),
		})
	}
}

func (a *App) handleFuelGauge(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{
		"left":  a.left.Telemetry().FuelGauge,
		"right": a.right.Telemetry().FuelGauge,
	})
}

func (a *App) handleGroundSpeed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{
		"left":  a.left.Telemetry().GroundSpeed,
		"right": a.right.Telemetry().GroundSpeed,
	})
}

// handleLights switches one side's light strip on or off.
func (a *App) handleLights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.lights == nil {
		http.Error(w, "lights board not configured", http.StatusServiceUnavailable)
		return
	}
	var body struct {
		Side  string `json:"side"`
		State bool   `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if body.Side != "left" && body.Side != "right" {
		http.Error(w, "side must be left or right", http.StatusBadRequest)
		return
	}
	if err := a.lights.Set(body.Side, body.State); err != nil {
		log.Printf("[app] lights switch failed: %v", err)
		http.Error(w, "lights board unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"side": body.Side, "state": body.State})
}

func (a *App) handleTemperatures(w http.ResponseWriter, _ *http.Request) {
	if a.thermo == nil {
		http.Error(w, "temperature probe not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, a.thermo.Temperatures())
}

func (a *App) handlePosition(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.controller.Position())
}

func (a *App) handleTheta(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"theta": a.controller.Heading()})
}

// handleLatest retrieves the most recent stored snapshot.
func (a *App) handleLatest(w http.ResponseWriter, _ *http.Request) {
	err := a.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(snapshotBucket))
		if b == nil {
			http.Error(w, "no snapshots yet", http.StatusNotFound)
			return nil
		}
		_, v := b.Cursor().Last()
		if v == nil {
			http.Error(w, "no snapshots yet", http.StatusNotFound)
			return nil
		}
		w.Header().Set("Content-Type", "application/json")
		if _, werr := w.Write(v); werr != nil {
			log.Printf("[app] warning: failed to write snapshot: %v", werr)
		}
		return nil
	})
	if err != nil {
		http.Error(w, "failed to read snapshots", http.StatusInternalServerError)
	}
}

// storeSnapshot appends one snapshot to the history bucket.
func (a *App) storeSnapshot(snap model.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[app] snapshot marshal err: %v", err)
		return
	}
	err = a.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(snap.Timestamp), payload)
	})
	if err != nil {
		log.Printf("[app] snapshot store err: %v", err)
	}
}
