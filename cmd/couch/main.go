// Package main is the entry point of the couch control system.
// It initializes the logger, loads the configuration, constructs all
// components (drive links, coordinator, control server, publisher) and
// starts them in a unified runtime.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/taillades/couch/internal/core"
	"github.com/taillades/couch/internal/util"
)

// main loads configuration, constructs the system and starts all components.
// The program waits for an interrupt signal and performs graceful shutdown,
// at which point the idle watchdog on the power modules guarantees the
// couch stops on its own.
func main() {
	util.SetupLogger()

	cfgPath := flag.String("c", "configs/config.yml", "path to configuration file")
	virtual := flag.Bool("virtual", false, "create virtual serial pairs via socat for bench testing")
	flag.Parse()

	log.Printf("[main] using config: %s", *cfgPath)

	var virt *util.VirtualSerial
	if *virtual {
		virt = util.NewVirtualSerial()
		if err := virt.CreatePair("tmp/couch_left", "tmp/bench_left"); err != nil {
			log.Fatalf("virtual serial: %v", err)
		}
		if err := virt.CreatePair("tmp/couch_right", "tmp/bench_right"); err != nil {
			log.Fatalf("virtual serial: %v", err)
		}
		defer virt.Cleanup()
	}

	sys, err := core.NewSystem(*cfgPath)
	if err != nil {
		log.Fatalf("failed to create system: %v", err)
	}

	if err := sys.StartAll(); err != nil {
		log.Fatalf("failed to start system: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[main] shutting down system...")
	sys.StopAll()
	log.Println("[main] system stopped cleanly.")
}
