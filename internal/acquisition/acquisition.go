// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package acquisition pulls acceleration samples out of the device FIFO
// for a fixed wall-clock duration without losing data to overflow. The
// loop is purely sequential: one thread of control owns the bus for the
// whole run and yields between polls instead of busy-spinning.
package acquisition

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/accel_capture/internal/accel"
	"github.com/relabs-tech/accel_capture/internal/adxl345"
)

// Device is the FIFO-capable accelerometer the loop drains.
// *adxl345.Driver is the real implementation.
type Device interface {
	SetFIFOMode(adxl345.FIFOMode) error
	SetMeasure(on bool) error
	FIFOEntries() (int, error)
	InterruptFlags() (adxl345.InterruptFlags, error)
	ReadBurst(n int) ([]adxl345.Sample, error)
	Rate() adxl345.OutputDataRate
	Watermark() byte
	ScaleG() float64
}

// Options tunes one acquisition run.
type Options struct {
	// Duration is the wall-clock length of the run. The run ends on
	// duration expiry only, never on sample count or FIFO state.
	Duration time.Duration

	// DrainThreshold is the FIFO fill level that triggers a drain even
	// without the watermark flag. Zero means the driver's watermark.
	DrainThreshold int

	// PollInterval is the sleep between polls when there is nothing to
	// drain. Zero means 10ms.
	PollInterval time.Duration
}

const defaultPollInterval = 10 * time.Millisecond

// fifoSettleDelay gives the chip time to latch the mode switch when the
// FIFO is cleared via bypass before streaming starts.
const fifoSettleDelay = 10 * time.Millisecond

// Loop runs timed acquisitions against one device. The clock functions
// are swapped out in tests.
type Loop struct {
	dev Device

	now   func() time.Time
	sleep func(time.Duration)
}

func NewLoop(dev Device) *Loop {
	return &Loop{dev: dev, now: time.Now, sleep: time.Sleep}
}

// Run places the device into stream FIFO mode, polls fill level and
// interrupt flags until the duration expires, and returns the collected
// samples with run statistics. On any bus error the run is abandoned and
// partial results are discarded. Cancelling the context ends the run
// early the same way.
//
// Timestamps assume perfectly uniform sampling at the configured rate:
// sample i is stamped i/rate seconds. Real inter-sample spacing is set
// by the sensor, not by when the loop happened to drain.
func (l *Loop) Run(ctx context.Context, opts Options) ([]accel.Sample, accel.RunStats, error) {
	rate := l.dev.Rate().Hz()
	if rate <= 0 {
		return nil, accel.RunStats{}, fmt.Errorf("acquisition: device reports invalid rate %v", l.dev.Rate())
	}

	if opts.Duration <= 0 {
		return []accel.Sample{}, accel.RunStats{}, nil
	}

	threshold := opts.DrainThreshold
	if threshold <= 0 {
		threshold = int(l.dev.Watermark())
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	period := 1.0 / rate
	scale := l.dev.ScaleG()

	// Clear any stale FIFO contents, then stream and measure.
	if err := l.dev.SetFIFOMode(adxl345.FIFOBypass); err != nil {
		return nil, accel.RunStats{}, err
	}
	l.sleep(fifoSettleDelay)
	if err := l.dev.SetFIFOMode(adxl345.FIFOStream); err != nil {
		return nil, accel.RunStats{}, err
	}
	if err := l.dev.SetMeasure(true); err != nil {
		return nil, accel.RunStats{}, err
	}
	defer func() {
		// Teardown: stop buffering so a later run starts from an empty
		// FIFO. Best effort; the run result is already decided.
		if err := l.dev.SetFIFOMode(adxl345.FIFOBypass); err != nil {
			log.Printf("acquisition: FIFO bypass on teardown: %v", err)
		}
	}()

	var (
		samples       []accel.Sample
		overflowCount int
		readCount     int
	)

	start := l.now()
	for l.now().Sub(start) < opts.Duration {
		if err := ctx.Err(); err != nil {
			return nil, accel.RunStats{}, err
		}

		entries, err := l.dev.FIFOEntries()
		if err != nil {
			return nil, accel.RunStats{}, err
		}
		flags, err := l.dev.InterruptFlags()
		if err != nil {
			return nil, accel.RunStats{}, err
		}

		// Overflow is an operating condition, not an error: count it
		// once per polling iteration that observes the flag.
		if flags.Overrun {
			overflowCount++
		}

		if flags.Watermark || entries >= threshold {
			if entries > 0 {
				batch, err := l.dev.ReadBurst(entries)
				if err != nil {
					return nil, accel.RunStats{}, err
				}
				readCount++
				for _, s := range batch {
					samples = append(samples, accel.Sample{
						TimeS: float64(len(samples)) * period,
						XG:    float64(s.X) * scale,
						YG:    float64(s.Y) * scale,
						ZG:    float64(s.Z) * scale,
					})
				}
			}
			continue
		}

		l.sleep(poll)
	}

	expected := int(opts.Duration.Seconds() * rate)
	loss := expected - len(samples)
	if loss < 0 {
		loss = 0
	}
	stats := accel.RunStats{
		OverflowCount:    overflowCount,
		ReadCount:        readCount,
		SamplesCollected: len(samples),
		ExpectedSamples:  expected,
		DataLossCount:    loss,
	}
	if samples == nil {
		samples = []accel.Sample{}
	}
	return samples, stats, nil
}
