package app

import (
	"log"
	"net/http"
	"time"
)

// logRequests logs each request with method, path and duration. The /ws and
// status-poll endpoints are left out to keep the log readable at dashboard
// polling rates.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		switch r.URL.Path {
		case "/ws", "/api/latest", "/position", "/theta":
			return
		}
		log.Printf("[app] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
