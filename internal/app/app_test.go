package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taillades/couch/internal/model"
)

type fakeController struct {
	mu       sync.Mutex
	manual   model.Command
	override bool
	target   *model.Geopoint
	cleared  bool
}

func (f *fakeController) SetManualCommand(speed, direction float64) {
	f.mu.Lock()
	f.manual = model.Command{Speed: speed, Direction: direction, Timestamp: time.Now()}
	f.mu.Unlock()
}

func (f *fakeController) SetManualOverride(enabled bool) {
	f.mu.Lock()
	f.override = enabled
	f.mu.Unlock()
}

func (f *fakeController) SetTarget(target model.Geopoint) {
	f.mu.Lock()
	f.target = &target
	f.mu.Unlock()
}

func (f *fakeController) ClearTarget() {
	f.mu.Lock()
	f.target = nil
	f.cleared = true
	f.mu.Unlock()
}

func (f *fakeController) Target() *model.Geopoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target
}

func (f *fakeController) Position() model.Geopoint { return model.Geopoint{Lat: 40.0, Lon: -119.0} }
func (f *fakeController) Heading() float64         { return 0.5 }

type fakeSide struct {
	cmd model.Command
	tel model.Telemetry
}

func (f *fakeSide) Status() model.Command      { return f.cmd }
func (f *fakeSide) Telemetry() model.Telemetry { return f.tel }

type fakeTemps struct {
	temps model.Temperatures
}

func (f *fakeTemps) Temperatures() model.Temperatures { return f.temps }

type fakeLights struct {
	mu    sync.Mutex
	side  string
	on    bool
	calls int
	err   error
}

func (f *fakeLights) Set(side string, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.side, f.on = side, on
	f.calls++
	return f.err
}

func testAppFull(t *testing.T) (*App, *fakeController, *fakeLights) {
	t.Helper()
	ctrl := &fakeController{}
	left := &fakeSide{tel: model.Telemetry{FuelGauge: 75, GroundSpeed: 2.1}}
	right := &fakeSide{tel: model.Telemetry{FuelGauge: 80, GroundSpeed: 2.3}}
	temps := &fakeTemps{temps: model.Temperatures{Left: 41.5, Right: 43.0, Air: 35.25, Box: 50.0, Battery: 38.75}}
	lightsBoard := &fakeLights{}
	snapshot := func() model.Snapshot {
		return model.Snapshot{Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	}
	a, err := NewApp(filepath.Join(t.TempDir(), "snapshots.db"), ctrl, left, right, temps, lightsBoard, snapshot)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(a.Stop)
	return a, ctrl, lightsBoard
}

func testApp(t *testing.T) (*App, *fakeController) {
	t.Helper()
	a, ctrl, _ := testAppFull(t)
	return a, ctrl
}

func TestHandleControl(t *testing.T) {
	a, ctrl := testApp(t)

	req := httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(`{"speed": 0.5, "direction": -0.25}`))
	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ctrl.manual.Speed != 0.5 || ctrl.manual.Direction != -0.25 {
		t.Errorf("manual command = %+v", ctrl.manual)
	}
}

func TestHandleControl_RejectsBadPayload(t *testing.T) {
	a, _ := testApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "speed=1"},
		{"speed out of range", `{"speed": 2.0, "direction": 0}`},
		{"direction out of range", `{"speed": 0, "direction": -1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/control", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			a.Mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/control", nil)
	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /control status = %d, want 405", rec.Code)
	}
}

func TestHandleTargetPosition(t *testing.T) {
	a, ctrl := testApp(t)

	post := httptest.NewRequest(http.MethodPost, "/target_position", strings.NewReader(`{"lat": 40.79, "lon": -119.21}`))
	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, post)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d", rec.Code)
	}
	if ctrl.target == nil || ctrl.target.Lat != 40.79 {
		t.Fatalf("target = %+v", ctrl.target)
	}

	get := httptest.NewRequest(http.MethodGet, "/target_position", nil)
	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, get)
	var got model.Geopoint
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode target: %v", err)
	}
	if got.Lat != 40.79 || got.Lon != -119.21 {
		t.Errorf("GET target = %+v", got)
	}

	del := httptest.NewRequest(http.MethodDelete, "/target_position", nil)
	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, del)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	if !ctrl.cleared {
		t.Error("ClearTarget not invoked")
	}
}

func TestStatusEndpoints(t *testing.T) {
	a, _ := testApp(t)

	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fuel_gauge", nil))
	var fuel map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &fuel); err != nil {
		t.Fatalf("decode fuel gauge: %v", err)
	}
	if fuel["left"] != 75 || fuel["right"] != 80 {
		t.Errorf("fuel gauge = %v", fuel)
	}

	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wheelchair/left/status", nil))
	var status model.SideStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode side status: %v", err)
	}
	if status.Telemetry.GroundSpeed != 2.1 {
		t.Errorf("left ground speed = %v", status.Telemetry.GroundSpeed)
	}

	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/theta", nil))
	var theta map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &theta); err != nil {
		t.Fatalf("decode theta: %v", err)
	}
	if theta["theta"] != 0.5 {
		t.Errorf("theta = %v", theta)
	}

	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}

func TestHandleTemperatures(t *testing.T) {
	a, _, _ := testAppFull(t)

	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/temperatures", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got model.Temperatures
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode temperatures: %v", err)
	}
	if got.Battery != 38.75 || got.Box != 50.0 {
		t.Errorf("temperatures = %+v", got)
	}
}

func TestHandleLights(t *testing.T) {
	a, _, lightsBoard := testAppFull(t)

	req := httptest.NewRequest(http.MethodPost, "/lights", strings.NewReader(`{"side": "left", "state": true}`))
	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if lightsBoard.side != "left" || !lightsBoard.on || lightsBoard.calls != 1 {
		t.Errorf("lights board = %+v", lightsBoard)
	}

	req = httptest.NewRequest(http.MethodPost, "/lights", strings.NewReader(`{"side": "top", "state": true}`))
	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown side status = %d, want 400", rec.Code)
	}
	if lightsBoard.calls != 1 {
		t.Errorf("board reached with unknown side, calls = %d", lightsBoard.calls)
	}

	lightsBoard.err = errors.New("port gone")
	req = httptest.NewRequest(http.MethodPost, "/lights", strings.NewReader(`{"side": "right", "state": false}`))
	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("board fault status = %d, want 502", rec.Code)
	}
}

func TestPeripheralsUnconfigured(t *testing.T) {
	a, err := NewApp(filepath.Join(t.TempDir(), "snapshots.db"), &fakeController{}, &fakeSide{}, &fakeSide{}, nil, nil, func() model.Snapshot {
		return model.Snapshot{}
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	t.Cleanup(a.Stop)

	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/temperatures", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/temperatures status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lights", strings.NewReader(`{"side": "left", "state": true}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/lights status = %d, want 503", rec.Code)
	}
}

func TestSnapshotHistory(t *testing.T) {
	a, _ := testApp(t)

	rec := httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty history status = %d, want 404", rec.Code)
	}

	snap := model.Snapshot{
		Left:      model.SideStatus{Telemetry: model.Telemetry{FuelGauge: 60}},
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	a.storeSnapshot(snap)

	rec = httptest.NewRecorder()
	a.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got model.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if got.Left.Telemetry.FuelGauge != 60 {
		t.Errorf("stored snapshot = %+v", got)
	}
}
