package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/accel_capture/internal/accel"
	"github.com/relabs-tech/accel_capture/internal/config"
)

// RunConsoleMQTT subscribes to the sample and stats topics and prints
// them to the terminal until interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to samples
	samplesToken := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s accel.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: sample unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[ACCEL] t=%10.6f  x=%8.4f g  y=%8.4f g  z=%8.4f g\n",
			s.TimeS, s.XG, s.YG, s.ZG,
		)
	})
	samplesToken.Wait()
	if samplesToken.Error() != nil {
		return samplesToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSamples)

	// Subscribe to run statistics
	statsToken := client.Subscribe(cfg.TopicStats, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st accel.RunStats
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: stats unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[STATS] collected=%d expected=%d loss=%d overflows=%d drains=%d\n",
			st.SamplesCollected, st.ExpectedSamples, st.DataLossCount, st.OverflowCount, st.ReadCount,
		)
	})
	statsToken.Wait()
	if statsToken.Error() != nil {
		return statsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicStats)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
