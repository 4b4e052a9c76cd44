package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/accel_capture/internal/adxl345"
)

// Config holds all application configuration values.
type Config struct {
	// Sensor
	I2CBus     string // periph bus name; empty selects the first adapter
	DeviceAddr uint16 // 0x1D or 0x53 depending on the ALT ADDRESS pin
	Rate       adxl345.OutputDataRate
	Range      adxl345.Range
	Watermark  byte

	// Acquisition
	DrainThreshold   int // FIFO entries that trigger a drain; 0 = watermark
	PollIntervalMS   int
	CaptureDurationS int
	OutputDir        string
	PreviewRows      int

	// MQTT
	MQTTBroker          string
	MQTTClientIDStream  string
	MQTTClientIDConsole string
	MQTTClientIDDisplay string
	TopicSamples        string
	TopicStats          string
	StreamWindowS       int // acquisition window per published batch

	// Register debug tool
	RegisterDebugPort          int
	RegisterDebugAllowedRanges string

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern: external
// code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults mirrors the reference measurement setup: 100 Hz,
// full-resolution, watermark 28, 10 ms polls, 10 s capture.
func defaults() *Config {
	return &Config{
		DeviceAddr:            adxl345.DefaultAddr,
		Rate:                  adxl345.DefaultRate,
		Range:                 adxl345.DefaultRange,
		Watermark:             28,
		PollIntervalMS:        10,
		CaptureDurationS:      10,
		OutputDir:             ".",
		PreviewRows:           10,
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDStream:    "accel-stream-producer",
		MQTTClientIDConsole:   "accel-console-subscriber",
		MQTTClientIDDisplay:   "accel-display-subscriber",
		TopicSamples:          "accel/samples",
		TopicStats:            "accel/stats",
		StreamWindowS:         1,
		RegisterDebugPort:     8081,
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 250,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sensor
	case "I2C_BUS":
		c.I2CBus = value
	case "DEVICE_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DEVICE_ADDR %q: %w", value, err)
		}
		c.DeviceAddr = uint16(addr)
	case "SAMPLE_RATE_HZ":
		hz, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_RATE_HZ %q: %w", value, err)
		}
		rate, ok := adxl345.RateForHz(hz)
		if !ok {
			return fmt.Errorf("SAMPLE_RATE_HZ %g is not a supported output data rate", hz)
		}
		c.Rate = rate
	case "RANGE":
		rng, ok := adxl345.RangeForName(value)
		if !ok {
			return fmt.Errorf("RANGE must be full, 2g, 4g, 8g or 16g, got %q", value)
		}
		c.Range = rng
	case "FIFO_WATERMARK":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FIFO_WATERMARK %q: %w", value, err)
		}
		if val < 0 || val > adxl345.MaxWatermark {
			return fmt.Errorf("FIFO_WATERMARK must be 0-%d, got %d", adxl345.MaxWatermark, val)
		}
		c.Watermark = byte(val)

	// Acquisition
	case "DRAIN_THRESHOLD":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DRAIN_THRESHOLD %q: %w", value, err)
		}
		if val < 0 || val > adxl345.FIFOCapacity {
			return fmt.Errorf("DRAIN_THRESHOLD must be 0-%d, got %d", adxl345.FIFOCapacity, val)
		}
		c.DrainThreshold = val
	case "POLL_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL_MS %q: %w", value, err)
		}
		c.PollIntervalMS = interval
	case "CAPTURE_DURATION_S":
		dur, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAPTURE_DURATION_S %q: %w", value, err)
		}
		c.CaptureDurationS = dur
	case "OUTPUT_DIR":
		c.OutputDir = value
	case "PREVIEW_ROWS":
		rows, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PREVIEW_ROWS %q: %w", value, err)
		}
		c.PreviewRows = rows

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_STREAM":
		c.MQTTClientIDStream = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_STATS":
		c.TopicStats = value
	case "STREAM_WINDOW_S":
		window, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STREAM_WINDOW_S %q: %w", value, err)
		}
		c.StreamWindowS = window

	// Register debug tool
	case "REGISTER_DEBUG_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_PORT %q: %w", value, err)
		}
		c.RegisterDebugPort = port
	case "REGISTER_DEBUG_ALLOWED_RANGES":
		c.RegisterDebugAllowedRanges = value

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are consistent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if c.CaptureDurationS < 0 {
		return fmt.Errorf("CAPTURE_DURATION_S must not be negative")
	}
	if c.StreamWindowS <= 0 {
		return fmt.Errorf("STREAM_WINDOW_S must be positive")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
