package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/accel_capture/internal/accel"
	"github.com/relabs-tech/accel_capture/internal/config"
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	sample     accel.Sample
	haveSample bool

	stats     accel.RunStats
	haveStats bool
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// ssd1306.NewI2C has no address parameter; the driver hardcodes 0x3C,
	// which matches the DisplayI2CAddr default.
	display, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s accel.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: sample unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.sample = s
		data.haveSample = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicSamples)

	token = client.Subscribe(cfg.TopicStats, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st accel.RunStats
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("display: stats unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.stats = st
		data.haveStats = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicStats)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		// Read data without copying the mutex
		data.mu.RLock()
		snapshot := DisplayData{
			sample:     data.sample,
			haveSample: data.haveSample,
			stats:      data.stats,
			haveStats:  data.haveStats,
		}
		data.mu.RUnlock()

		if err := updateAccelDisplay(display, &snapshot); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updateAccelDisplay(dev *ssd1306.Dev, data *DisplayData) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !data.haveSample {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("ADXL345"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("X:%7.3fg", data.sample.XG)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("Y:%7.3fg", data.sample.YG)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Z:%7.3fg", data.sample.ZG)))

		if data.haveStats {
			drawer.Dot = fixed.P(0, 52)
			drawer.DrawBytes([]byte(fmt.Sprintf("OV:%d LOSS:%d",
				data.stats.OverflowCount, data.stats.DataLossCount)))
		}
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Accel Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("samples"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
