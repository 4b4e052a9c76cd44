package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/accel_capture/internal/acquisition"
	"github.com/relabs-tech/accel_capture/internal/bus"
	"github.com/relabs-tech/accel_capture/internal/config"
)

// RunStreamProducer acquires in back-to-back windows and publishes each
// window's samples and statistics over MQTT until interrupted.
func RunStreamProducer() error {
	log.Println("starting accel_capture stream producer (FIFO → MQTT)")

	cfg := config.Get()

	b, err := bus.OpenI2C(cfg.I2CBus)
	if err != nil {
		return err
	}
	defer b.Close()

	drv, err := newDriver(b, cfg)
	if err != nil {
		return err
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDStream)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Printf("stream: connected to MQTT broker at %s, starting publish loop", cfg.MQTTBroker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := acquisition.NewLoop(drv)
	window := acquisition.Options{
		Duration:       time.Duration(cfg.StreamWindowS) * time.Second,
		DrainThreshold: cfg.DrainThreshold,
		PollInterval:   time.Duration(cfg.PollIntervalMS) * time.Millisecond,
	}

	for {
		samples, stats, err := loop.Run(ctx, window)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Println("stream: shutting down")
				return nil
			}
			return err
		}

		for _, s := range samples {
			payload, err := json.Marshal(s)
			if err != nil {
				log.Printf("stream: sample marshal error: %v", err)
				continue
			}
			if token := client.Publish(cfg.TopicSamples, 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("stream: MQTT publish error (samples): %v", token.Error())
				break
			}
		}

		payload, err := json.Marshal(stats)
		if err != nil {
			log.Printf("stream: stats marshal error: %v", err)
			continue
		}
		// Stats are retained so late subscribers see the last window.
		if token := client.Publish(cfg.TopicStats, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("stream: MQTT publish error (stats): %v", token.Error())
			continue
		}

		log.Printf("stream: window done: %d samples, %d drains, %d overflows, loss %d",
			stats.SamplesCollected, stats.ReadCount, stats.OverflowCount, stats.DataLossCount)
	}
}
