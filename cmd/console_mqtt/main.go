package main

import (
	"log"

	"github.com/relabs-tech/accel_capture/internal/app"
	"github.com/relabs-tech/accel_capture/internal/config"
)

func main() {
	log.Println("starting accel-capture console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("capture_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
