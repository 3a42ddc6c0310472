// Package util provides helper functions for logging events.
package util

import (
	"log"
	"os"
)

// SetupLogger configures the standard logger used across the system.
func SetupLogger() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
