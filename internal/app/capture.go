package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/accel_capture/internal/accel"
	"github.com/relabs-tech/accel_capture/internal/acquisition"
	"github.com/relabs-tech/accel_capture/internal/adxl345"
	"github.com/relabs-tech/accel_capture/internal/bus"
	"github.com/relabs-tech/accel_capture/internal/config"
	"github.com/relabs-tech/accel_capture/internal/export"
)

// RunCapture performs one timed acquisition and writes the run to CSV.
func RunCapture() error {
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

	// Ctrl+C ends the run early; partial results are discarded.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	duration := time.Duration(cfg.CaptureDurationS) * time.Second
	log.Printf("capture: starting acquisition (duration=%s rate=%s range=%s watermark=%d)",
		duration, drv.Rate(), drv.Range(), drv.Watermark())

	loop := acquisition.NewLoop(drv)
	samples, stats, err := loop.Run(ctx, acquisition.Options{
		Duration:       duration,
		DrainThreshold: cfg.DrainThreshold,
		PollInterval:   time.Duration(cfg.PollIntervalMS) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("capture: acquisition: %w", err)
	}

	logRunStats(stats)

	filename := export.DefaultFilename(cfg.OutputDir, time.Now())
	if err := export.WriteRun(filename, samples); err != nil {
		return err
	}
	log.Printf("capture: wrote %d samples to %s", len(samples), filename)

	export.Preview(os.Stdout, samples, cfg.PreviewRows)
	return nil
}

// newDriver constructs and configures the accelerometer from config,
// then logs the register readback so the applied configuration can be
// verified against the hardware.
func newDriver(b *bus.I2C, cfg *config.Config) (*adxl345.Driver, error) {
	drv, err := adxl345.New(b, cfg.DeviceAddr, adxl345.Options{
		Rate:      cfg.Rate,
		Range:     cfg.Range,
		Watermark: cfg.Watermark,
	})
	if err != nil {
		return nil, err
	}

	id, err := drv.DeviceID()
	if err != nil {
		return nil, err
	}
	log.Printf("adxl345: device ID 0x%02X at bus address 0x%02X", id, cfg.DeviceAddr)

	for _, reg := range []struct {
		name string
		addr byte
	}{
		{"BW_RATE", 0x2C},
		{"POWER_CTL", 0x2D},
		{"DATA_FORMAT", 0x31},
		{"FIFO_CTL", 0x38},
		{"FIFO_STATUS", 0x39},
	} {
		v, err := drv.ReadRegister(reg.addr)
		if err != nil {
			return nil, err
		}
		log.Printf("adxl345: %-12s (0x%02X) = 0x%02X", reg.name, reg.addr, v)
	}
	return drv, nil
}

func logRunStats(stats accel.RunStats) {
	lossPct := 0.0
	if stats.ExpectedSamples > 0 {
		lossPct = float64(stats.DataLossCount) / float64(stats.ExpectedSamples) * 100
	}
	log.Printf("capture: collected %d of ~%d expected samples (loss: %d, %.2f%%)",
		stats.SamplesCollected, stats.ExpectedSamples, stats.DataLossCount, lossPct)
	log.Printf("capture: %d drain batches, %d overflow events", stats.ReadCount, stats.OverflowCount)
}
