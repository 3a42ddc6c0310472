package app

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/taillades/couch/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleWS upgrades HTTP to websocket and registers the client for periodic
// snapshot broadcasts.
func (a *App) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	a.mu.Lock()
	a.clients[conn] = true
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			delete(a.clients, conn)
			a.mu.Unlock()
			if err := conn.Close(); err != nil {
				log.Printf("[app] warning: failed to close websocket: %v", err)
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// broadcast sends one snapshot to every connected websocket client, dropping
// clients whose writes fail.
func (a *App) broadcast(snap model.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[app] broadcast marshal err: %v", err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for conn := range a.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = conn.Close()
			delete(a.clients, conn)
		}
	}
}
