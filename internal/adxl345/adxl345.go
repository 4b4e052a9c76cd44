// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package adxl345 drives the ADXL345 3-axis accelerometer over I2C. The
// register map is declared statically through the regmap layer; all
// configuration goes through named bitfield writes so reserved bits are
// never disturbed.
package adxl345

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/relabs-tech/accel_capture/internal/regmap"
)

// I2C addresses. 0x1D with the ALT ADDRESS pin high, 0x53 grounded.
const (
	DefaultAddr uint16 = 0x1D
	AltAddr     uint16 = 0x53
)

const (
	regDevID  byte = 0x00
	regDataX0 byte = 0x32

	// DeviceID is the constant the DEVID register must return.
	DeviceID byte = 0xE5

	// BytesPerSample is the width of one X/Y/Z block read.
	BytesPerSample = 6

	// FIFOCapacity is the depth of the on-chip FIFO.
	FIFOCapacity = 32

	// MaxWatermark is the largest value FIFO_CTL.SAMPLES can hold.
	MaxWatermark = 31
)

// FIFOMode is the 2-bit FIFO_CTL.MODE code.
type FIFOMode byte

const (
	FIFOBypass  FIFOMode = 0b00 // FIFO off, no buffering
	FIFOFill    FIFOMode = 0b01 // fills until full, then stops
	FIFOStream  FIFOMode = 0b10 // overwrites oldest entries once full
	FIFOTrigger FIFOMode = 0b11
)

var (
	// ErrUnexpectedDevice reports a DEVID readback other than 0xE5.
	// Fatal: acquisition must not proceed against an unknown part.
	ErrUnexpectedDevice = errors.New("adxl345: unexpected device ID")

	// ErrInvalidConfig reports an out-of-range rate, range or watermark.
	ErrInvalidConfig = errors.New("adxl345: invalid configuration")
)

// registers is the static device profile: the six registers the driver
// operates on, with field masks matching the datasheet bit for bit.
// Registers 0x01 through 0x1C are reserved and never touched.
type registers struct {
	bandwidthRate   regmap.Register // 0x2C
	powerControl    regmap.Register // 0x2D
	interruptSource regmap.Register // 0x30, read-only
	dataFormat      regmap.Register // 0x31
	fifoControl     regmap.Register // 0x38
	fifoStatus      regmap.Register // 0x39, read-only
}

func newRegisters() *registers {
	return &registers{
		bandwidthRate: regmap.Register{Address: 0x2C, Fields: map[string]regmap.Field{
			"LOW_POWER": {Mask: 0x10},
			"RATE":      {Mask: 0x0F},
		}},
		powerControl: regmap.Register{Address: 0x2D, Fields: map[string]regmap.Field{
			"LINK":       {Mask: 0x20},
			"AUTO_SLEEP": {Mask: 0x10},
			"MEASURE":    {Mask: 0x08},
			"SLEEP":      {Mask: 0x04},
			"WAKEUP":     {Mask: 0x03},
		}},
		interruptSource: regmap.Register{Address: 0x30, ReadOnly: true, Fields: map[string]regmap.Field{
			"DATA_READY": {Mask: 0x80},
			"SINGLE_TAP": {Mask: 0x40},
			"DOUBLE_TAP": {Mask: 0x20},
			"ACTIVITY":   {Mask: 0x10},
			"INACTIVITY": {Mask: 0x08},
			"FREE_FALL":  {Mask: 0x04},
			"WATERMARK":  {Mask: 0x02},
			"OVERRUN":    {Mask: 0x01},
		}},
		dataFormat: regmap.Register{Address: 0x31, Fields: map[string]regmap.Field{
			"SELF_TEST":  {Mask: 0x80},
			"SPI":        {Mask: 0x40},
			"INT_INVERT": {Mask: 0x20},
			"FULL_RES":   {Mask: 0x08},
			"JUSTIFY":    {Mask: 0x04},
			"RANGE":      {Mask: 0x03},
		}},
		fifoControl: regmap.Register{Address: 0x38, Fields: map[string]regmap.Field{
			"MODE":    {Mask: 0xC0},
			"TRIGGER": {Mask: 0x20},
			"SAMPLES": {Mask: 0x1F},
		}},
		fifoStatus: regmap.Register{Address: 0x39, ReadOnly: true, Fields: map[string]regmap.Field{
			"FIFO_TRIG": {Mask: 0x80},
			"ENTRIES":   {Mask: 0x3F},
		}},
	}
}

// all returns the registers in a fixed bind order. Explicit list, no
// runtime introspection.
func (r *registers) all() []*regmap.Register {
	return []*regmap.Register{
		&r.bandwidthRate, &r.powerControl, &r.interruptSource,
		&r.dataFormat, &r.fifoControl, &r.fifoStatus,
	}
}

// Sample is one raw X/Y/Z reading in signed LSB counts.
type Sample struct {
	X, Y, Z int16
}

// InterruptFlags is the decoded INT_SOURCE state relevant to FIFO
// draining. All three come from a single register read so they describe
// one coherent bus snapshot.
type InterruptFlags struct {
	DataReady bool
	Watermark bool
	Overrun   bool
}

// Options selects the initial device configuration.
type Options struct {
	Rate      OutputDataRate
	Range     Range
	Watermark byte // FIFO fill level that raises the watermark flag, 0..31
}

// DefaultOpts mirrors the reference measurement setup: 100 Hz,
// full-resolution, watermark at 28 of 32 entries.
var DefaultOpts = Options{
	Rate:      DefaultRate,
	Range:     DefaultRange,
	Watermark: 28,
}

// Driver owns one ADXL345 bound to a bus address. Configuration state
// (rate, range, watermark) is mirrored in memory and only changed
// through setters that update the hardware register in the same call.
type Driver struct {
	bus  regmap.Bus
	addr uint16
	regs *registers

	rate      OutputDataRate
	rng       Range
	watermark byte
}

// New verifies the device identity, binds the register profile and
// applies the initial configuration (watermark, then rate, then range).
// The identity check runs before any register is written, so a wrong or
// absent device is rejected with no side effects on the bus target.
func New(bus regmap.Bus, addr uint16, opts Options) (*Driver, error) {
	id, err := bus.ReadByteData(addr, regDevID)
	if err != nil {
		return nil, fmt.Errorf("adxl345: device ID read: %w", err)
	}
	if id != DeviceID {
		return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrUnexpectedDevice, id, DeviceID)
	}

	d := &Driver{bus: bus, addr: addr, regs: newRegisters()}
	for _, reg := range d.regs.all() {
		reg.Bind(bus, addr)
	}

	if err := d.SetWatermark(opts.Watermark); err != nil {
		return nil, err
	}
	if err := d.SetOutputDataRate(opts.Rate); err != nil {
		return nil, err
	}
	if err := d.SetRange(opts.Range); err != nil {
		return nil, err
	}
	return d, nil
}

// DeviceID reads the identity register.
func (d *Driver) DeviceID() (byte, error) {
	id, err := d.bus.ReadByteData(d.addr, regDevID)
	if err != nil {
		return 0, fmt.Errorf("adxl345: device ID read: %w", err)
	}
	return id, nil
}

// SetOutputDataRate writes BW_RATE.RATE and records the new rate. The
// in-memory value only changes if the register write succeeded.
func (d *Driver) SetOutputDataRate(rate OutputDataRate) error {
	if !rate.Valid() {
		return fmt.Errorf("%w: rate code 0x%02X", ErrInvalidConfig, byte(rate))
	}
	if err := d.regs.bandwidthRate.WriteField("RATE", byte(rate)); err != nil {
		return err
	}
	d.rate = rate
	return nil
}

// SetWatermark writes FIFO_CTL.SAMPLES. Values above 31 are rejected
// rather than silently truncated by the 5-bit mask.
func (d *Driver) SetWatermark(count byte) error {
	if count > MaxWatermark {
		return fmt.Errorf("%w: watermark %d exceeds %d", ErrInvalidConfig, count, MaxWatermark)
	}
	if err := d.regs.fifoControl.WriteField("SAMPLES", count); err != nil {
		return err
	}
	d.watermark = count
	return nil
}

// SetRange configures DATA_FORMAT. Full-resolution only toggles
// FULL_RES; the fixed ranges clear FULL_RES and write the 2-bit code.
func (d *Driver) SetRange(rng Range) error {
	if !rng.Valid() {
		return fmt.Errorf("%w: range %d", ErrInvalidConfig, byte(rng))
	}
	spec := rangeSpecs[rng]
	if spec.fullRes {
		if err := d.regs.dataFormat.WriteField("FULL_RES", 1); err != nil {
			return err
		}
	} else {
		if err := d.regs.dataFormat.WriteField("FULL_RES", 0); err != nil {
			return err
		}
		if err := d.regs.dataFormat.WriteField("RANGE", spec.code); err != nil {
			return err
		}
	}
	d.rng = rng
	return nil
}

// SetFIFOMode writes FIFO_CTL.MODE. Switching to bypass discards any
// buffered entries on the chip.
func (d *Driver) SetFIFOMode(mode FIFOMode) error {
	return d.regs.fifoControl.WriteField("MODE", byte(mode))
}

// SetMeasure toggles POWER_CTL.MEASURE between standby and measurement.
func (d *Driver) SetMeasure(on bool) error {
	var v byte
	if on {
		v = 1
	}
	return d.regs.powerControl.WriteField("MEASURE", v)
}

// Rate returns the active output data rate.
func (d *Driver) Rate() OutputDataRate { return d.rate }

// Range returns the active measurement range.
func (d *Driver) Range() Range { return d.rng }

// Watermark returns the configured FIFO watermark.
func (d *Driver) Watermark() byte { return d.watermark }

// ScaleG returns the active per-LSB scale in g.
func (d *Driver) ScaleG() float64 { return d.rng.ScaleG() }

// FIFOEntries reads the current FIFO fill level (0..32).
func (d *Driver) FIFOEntries() (int, error) {
	n, err := d.regs.fifoStatus.ReadField("ENTRIES")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// InterruptFlags reads INT_SOURCE once and decodes the FIFO-related
// flags. Reading the register also clears the latched flags on the chip.
func (d *Driver) InterruptFlags() (InterruptFlags, error) {
	raw, err := d.regs.interruptSource.ReadByte()
	if err != nil {
		return InterruptFlags{}, err
	}
	fields := d.regs.interruptSource.Fields
	return InterruptFlags{
		DataReady: fields["DATA_READY"].Extract(raw) != 0,
		Watermark: fields["WATERMARK"].Extract(raw) != 0,
		Overrun:   fields["OVERRUN"].Extract(raw) != 0,
	}, nil
}

// ReadSample pops one sample: a 6-byte block read at DATAX0, decoded as
// little-endian signed 16-bit X, Y, Z.
func (d *Driver) ReadSample() (Sample, error) {
	data, err := d.bus.ReadBlockData(d.addr, regDataX0, BytesPerSample)
	if err != nil {
		return Sample{}, fmt.Errorf("adxl345: sample read: %w", err)
	}
	return decodeSample(data), nil
}

// ReadBurst pops n samples with a single block read of 6n bytes. One
// bus transaction per drain batch instead of one per sample; the FIFO
// advances per 6-byte frame either way.
func (d *Driver) ReadBurst(n int) ([]Sample, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > FIFOCapacity {
		n = FIFOCapacity
	}
	data, err := d.bus.ReadBlockData(d.addr, regDataX0, n*BytesPerSample)
	if err != nil {
		return nil, fmt.Errorf("adxl345: burst read (%d samples): %w", n, err)
	}
	if len(data) < n*BytesPerSample {
		return nil, fmt.Errorf("adxl345: burst read returned %d bytes, want %d", len(data), n*BytesPerSample)
	}
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = decodeSample(data[i*BytesPerSample:])
	}
	return samples, nil
}

func decodeSample(data []byte) Sample {
	return Sample{
		X: int16(binary.LittleEndian.Uint16(data[0:2])),
		Y: int16(binary.LittleEndian.Uint16(data[2:4])),
		Z: int16(binary.LittleEndian.Uint16(data[4:6])),
	}
}
