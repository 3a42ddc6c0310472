package app

// registerRoutes sets up all HTTP handlers for the application.
func (a *App) registerRoutes() {
	// Health & root
	a.Mux.HandleFunc("/", a.handleRoot)
	a.Mux.HandleFunc("/health", a.handleHealth)

	// Control
	a.Mux.HandleFunc("/control", a.handleControl)
	a.Mux.HandleFunc("/manual_override", a.handleManualOverride)
	a.Mux.HandleFunc("/target_position", a.handleTargetPosition)
	a.Mux.HandleFunc("/lights", a.handleLights)

	// Status
	a.Mux.HandleFunc("/wheelchair/left/status", a.handleSideStatus(a.left))
	a.Mux.HandleFunc("/wheelchair/right/status", a.handleSideStatus(a.right))
	a.Mux.HandleFunc("/fuel_gauge", a.handleFuelGauge)
	a.Mux.HandleFunc("/ground_speed", a.handleGroundSpeed)
	a.Mux.HandleFunc("/position", a.handlePosition)
	a.Mux.HandleFunc("/theta", a.handleTheta)
	a.Mux.HandleFunc("/temperatures", a.handleTemperatures)

	// Telemetry feed & history
	a.Mux.HandleFunc("/ws", a.handleWS)
	a.Mux.HandleFunc("/api/latest", a.handleLatest)
}
