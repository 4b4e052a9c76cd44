package acquisition

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/relabs-tech/accel_capture/internal/accel"
	"github.com/relabs-tech/accel_capture/internal/adxl345"
)

// scriptedDevice plays back a per-iteration FIFO state. Iteration index
// advances on each FIFOEntries call, which is the first bus access of
// every polling iteration.
type scriptedDevice struct {
	rate      adxl345.OutputDataRate
	watermark byte
	scale     float64

	entriesFunc func(iter int) (int, error)
	flagsFunc   func(iter int) (adxl345.InterruptFlags, error)
	burstFunc   func(n int) ([]adxl345.Sample, error)

	iter    int
	modes   []adxl345.FIFOMode
	measure []bool
	bursts  int
}

func newScriptedDevice() *scriptedDevice {
	return &scriptedDevice{
		rate:      adxl345.ODR100Hz,
		watermark: 28,
		scale:     0.0039,
		entriesFunc: func(int) (int, error) { return 0, nil },
		flagsFunc: func(int) (adxl345.InterruptFlags, error) {
			return adxl345.InterruptFlags{}, nil
		},
	}
}

func (d *scriptedDevice) SetFIFOMode(m adxl345.FIFOMode) error {
	d.modes = append(d.modes, m)
	return nil
}

func (d *scriptedDevice) SetMeasure(on bool) error {
	d.measure = append(d.measure, on)
	return nil
}

func (d *scriptedDevice) FIFOEntries() (int, error) {
	d.iter++
	return d.entriesFunc(d.iter)
}

func (d *scriptedDevice) InterruptFlags() (adxl345.InterruptFlags, error) {
	return d.flagsFunc(d.iter)
}

func (d *scriptedDevice) ReadBurst(n int) ([]adxl345.Sample, error) {
	d.bursts++
	if d.burstFunc != nil {
		return d.burstFunc(n)
	}
	out := make([]adxl345.Sample, n)
	for i := range out {
		out[i] = adxl345.Sample{X: 1, Y: 2, Z: -3}
	}
	return out, nil
}

func (d *scriptedDevice) Rate() adxl345.OutputDataRate { return d.rate }
func (d *scriptedDevice) Watermark() byte              { return d.watermark }
func (d *scriptedDevice) ScaleG() float64              { return d.scale }

// fakeClock advances a fixed step on every now() call so drain-heavy
// iterations still make wall-clock progress, and by the full interval
// on sleep.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestLoop(dev Device, step time.Duration) *Loop {
	clk := &fakeClock{step: step}
	l := NewLoop(dev)
	l.now = clk.now
	l.sleep = clk.sleep
	return l
}

func TestZeroDurationReturnsEmptyRun(t *testing.T) {
	dev := newScriptedDevice()
	l := newTestLoop(dev, time.Millisecond)

	samples, stats, err := l.Run(context.Background(), Options{Duration: 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(samples), test.ShouldEqual, 0)
	test.That(t, stats.ExpectedSamples, test.ShouldEqual, 0)
	test.That(t, stats.DataLossCount, test.ShouldEqual, 0)
	// No FIFO mode changes for an empty run.
	test.That(t, len(dev.modes), test.ShouldEqual, 0)
}

func TestRunDrainsOnWatermarkAndStampsUniformly(t *testing.T) {
	dev := newScriptedDevice()
	dev.entriesFunc = func(int) (int, error) { return 28, nil }
	dev.flagsFunc = func(int) (adxl345.InterruptFlags, error) {
		return adxl345.InterruptFlags{Watermark: true}, nil
	}

	l := newTestLoop(dev, 10*time.Millisecond)
	samples, stats, err := l.Run(context.Background(), Options{Duration: 100 * time.Millisecond})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, stats.SamplesCollected, test.ShouldEqual, len(samples))
	test.That(t, stats.ReadCount, test.ShouldEqual, dev.bursts)
	test.That(t, len(samples) > 0, test.ShouldBeTrue)

	// index * 1/rate, raw counts scaled by 3.9 mg/LSB.
	test.That(t, samples[0].TimeS, test.ShouldEqual, 0.0)
	test.That(t, samples[1].TimeS, test.ShouldAlmostEqual, 0.01, 1e-12)
	test.That(t, samples[27].TimeS, test.ShouldAlmostEqual, 0.27, 1e-12)
	test.That(t, samples[0].XG, test.ShouldAlmostEqual, 0.0039, 1e-12)
	test.That(t, samples[0].YG, test.ShouldAlmostEqual, 0.0078, 1e-12)
	test.That(t, samples[0].ZG, test.ShouldAlmostEqual, -0.0117, 1e-12)

	// Entry: bypass to clear, then stream; teardown goes back to bypass.
	test.That(t, dev.modes, test.ShouldResemble, []adxl345.FIFOMode{
		adxl345.FIFOBypass, adxl345.FIFOStream, adxl345.FIFOBypass,
	})
	test.That(t, dev.measure, test.ShouldResemble, []bool{true})
}

func TestRunDrainsOnThresholdWithoutWatermarkFlag(t *testing.T) {
	dev := newScriptedDevice()
	dev.entriesFunc = func(int) (int, error) { return 12, nil }

	l := newTestLoop(dev, 10*time.Millisecond)
	_, stats, err := l.Run(context.Background(), Options{
		Duration:       50 * time.Millisecond,
		DrainThreshold: 10,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stats.ReadCount > 0, test.ShouldBeTrue)
	test.That(t, stats.SamplesCollected, test.ShouldEqual, stats.ReadCount*12)
}

func TestOverflowCountedPerPollingIteration(t *testing.T) {
	dev := newScriptedDevice()
	dev.flagsFunc = func(iter int) (adxl345.InterruptFlags, error) {
		// Overrun observed on 3 distinct iterations, nothing drained.
		return adxl345.InterruptFlags{Overrun: iter == 2 || iter == 3 || iter == 5}, nil
	}

	l := newTestLoop(dev, time.Millisecond)
	_, stats, err := l.Run(context.Background(), Options{
		Duration:     10 * time.Millisecond,
		PollInterval: time.Millisecond,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stats.OverflowCount, test.ShouldEqual, 3)
	test.That(t, stats.SamplesCollected, test.ShouldEqual, 0)
}

func TestDataLossAccounting(t *testing.T) {
	// 100 Hz for 10 s expects 1000 samples; deliver 950.
	dev := newScriptedDevice()
	dev.entriesFunc = func(iter int) (int, error) {
		if iter <= 95 {
			return 10, nil
		}
		return 0, nil
	}

	l := newTestLoop(dev, 10*time.Millisecond)
	samples, stats, err := l.Run(context.Background(), Options{
		Duration:       10 * time.Second,
		DrainThreshold: 10,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stats.ExpectedSamples, test.ShouldEqual, 1000)
	test.That(t, stats.SamplesCollected, test.ShouldEqual, 950)
	test.That(t, stats.DataLossCount, test.ShouldEqual, 50)
	test.That(t, len(samples), test.ShouldEqual, 950)

	// And no loss when the device keeps up.
	dev = newScriptedDevice()
	dev.entriesFunc = func(iter int) (int, error) {
		if iter <= 100 {
			return 10, nil
		}
		return 0, nil
	}
	l = newTestLoop(dev, 10*time.Millisecond)
	_, stats, err = l.Run(context.Background(), Options{
		Duration:       10 * time.Second,
		DrainThreshold: 10,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stats.SamplesCollected, test.ShouldEqual, 1000)
	test.That(t, stats.DataLossCount, test.ShouldEqual, 0)
}

func TestBusErrorAbortsRunAndDiscardsPartials(t *testing.T) {
	busErr := errors.New("i2c: timeout")
	dev := newScriptedDevice()
	dev.entriesFunc = func(iter int) (int, error) {
		if iter < 3 {
			return 28, nil
		}
		return 0, busErr
	}
	dev.flagsFunc = func(int) (adxl345.InterruptFlags, error) {
		return adxl345.InterruptFlags{Watermark: true}, nil
	}

	l := newTestLoop(dev, time.Millisecond)
	samples, stats, err := l.Run(context.Background(), Options{Duration: time.Second})
	test.That(t, errors.Is(err, busErr), test.ShouldBeTrue)
	test.That(t, samples, test.ShouldBeNil)
	test.That(t, stats, test.ShouldResemble, accel.RunStats{})

	// Teardown still switches the FIFO back to bypass.
	test.That(t, dev.modes[len(dev.modes)-1], test.ShouldEqual, adxl345.FIFOBypass)
}

func TestContextCancellationEndsRun(t *testing.T) {
	dev := newScriptedDevice()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := newTestLoop(dev, time.Millisecond)
	samples, _, err := l.Run(ctx, Options{Duration: time.Second})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, samples, test.ShouldBeNil)
}
