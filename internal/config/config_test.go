package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/relabs-tech/accel_capture/internal/adxl345"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# empty file\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.DeviceAddr, test.ShouldEqual, adxl345.DefaultAddr)
	test.That(t, cfg.Rate, test.ShouldEqual, adxl345.ODR100Hz)
	test.That(t, cfg.Range, test.ShouldEqual, adxl345.RangeFullRes)
	test.That(t, cfg.Watermark, test.ShouldEqual, byte(28))
	test.That(t, cfg.CaptureDurationS, test.ShouldEqual, 10)
	test.That(t, cfg.MQTTBroker, test.ShouldEqual, "tcp://localhost:1883")
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
# sensor
I2C_BUS = /dev/i2c-1
DEVICE_ADDR = 0x53
SAMPLE_RATE_HZ = 800
RANGE = 8g
FIFO_WATERMARK = 16
DRAIN_THRESHOLD = 10
CAPTURE_DURATION_S = 30
OUTPUT_DIR = /data/runs
TOPIC_SAMPLES = lab/accel/samples
`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.I2CBus, test.ShouldEqual, "/dev/i2c-1")
	test.That(t, cfg.DeviceAddr, test.ShouldEqual, adxl345.AltAddr)
	test.That(t, cfg.Rate, test.ShouldEqual, adxl345.ODR800Hz)
	test.That(t, cfg.Range, test.ShouldEqual, adxl345.Range8G)
	test.That(t, cfg.Watermark, test.ShouldEqual, byte(16))
	test.That(t, cfg.DrainThreshold, test.ShouldEqual, 10)
	test.That(t, cfg.CaptureDurationS, test.ShouldEqual, 30)
	test.That(t, cfg.OutputDir, test.ShouldEqual, "/data/runs")
	test.That(t, cfg.TopicSamples, test.ShouldEqual, "lab/accel/samples")
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, content := range []string{
		"SAMPLE_RATE_HZ = 123\n",
		"RANGE = 32g\n",
		"FIFO_WATERMARK = 32\n",
		"DRAIN_THRESHOLD = 40\n",
		"SOME_UNKNOWN_KEY = 1\n",
		"NOT_A_KEY_VALUE_LINE\n",
	} {
		_, err := Load(writeConfig(t, content))
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER =\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Load(writeConfig(t, "POLL_INTERVAL_MS = 0\n"))
	test.That(t, err, test.ShouldNotBeNil)
}
