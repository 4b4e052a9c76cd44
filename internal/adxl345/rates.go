// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345

import "fmt"

// OutputDataRate is the 4-bit code written to BW_RATE.RATE. The sensor
// samples at this internal rate regardless of how often the host polls.
type OutputDataRate byte

const (
	ODR0p10Hz OutputDataRate = 0x00
	ODR0p20Hz OutputDataRate = 0x01
	ODR0p39Hz OutputDataRate = 0x02
	ODR0p78Hz OutputDataRate = 0x03
	ODR1p56Hz OutputDataRate = 0x04
	ODR3p13Hz OutputDataRate = 0x05
	ODR6p25Hz OutputDataRate = 0x06
	ODR12Hz5  OutputDataRate = 0x07
	ODR25Hz   OutputDataRate = 0x08
	ODR50Hz   OutputDataRate = 0x09
	ODR100Hz  OutputDataRate = 0x0A
	ODR200Hz  OutputDataRate = 0x0B
	ODR400Hz  OutputDataRate = 0x0C
	ODR800Hz  OutputDataRate = 0x0D
	ODR1600Hz OutputDataRate = 0x0E
	ODR3200Hz OutputDataRate = 0x0F
)

// DefaultRate matches the device's power-on 100 Hz setting.
const DefaultRate = ODR100Hz

// odrHz maps every legal rate code to its sampling frequency. Static
// table from the datasheet; the steps are non-linear below 6.25 Hz.
var odrHz = [16]float64{
	0.10, 0.20, 0.39, 0.78, 1.56, 3.13, 6.25, 12.5,
	25, 50, 100, 200, 400, 800, 1600, 3200,
}

// Valid reports whether the code is one of the 16 legal values.
func (o OutputDataRate) Valid() bool { return o <= 0x0F }

// Hz returns the sampling frequency for the code, 0 for an illegal code.
func (o OutputDataRate) Hz() float64 {
	if !o.Valid() {
		return 0
	}
	return odrHz[o]
}

func (o OutputDataRate) String() string {
	if !o.Valid() {
		return fmt.Sprintf("OutputDataRate(0x%02X)", byte(o))
	}
	return fmt.Sprintf("%g Hz", odrHz[o])
}

// RateForHz resolves a frequency in Hz to its rate code. Used by config
// parsing; frequencies must match a table entry exactly.
func RateForHz(hz float64) (OutputDataRate, bool) {
	for code, f := range odrHz {
		if f == hz {
			return OutputDataRate(code), true
		}
	}
	return 0, false
}

// Range selects the measurement span. Full-resolution keeps the scale at
// 3.9 mg/LSB across the whole span; the fixed ranges clip to 10-bit
// output with a range-dependent scale.
type Range byte

const (
	RangeFullRes Range = iota
	Range2G
	Range4G
	Range8G
	Range16G
)

// DefaultRange mirrors the original measurement setup (FULL_RES set,
// range bits left at reset).
const DefaultRange = RangeFullRes

type rangeSpec struct {
	code       byte // 2-bit DATA_FORMAT.RANGE code, unused in full-res
	fullRes    bool
	fullScaleG float64
	scaleG     float64 // g per LSB
	name       string
}

var rangeSpecs = map[Range]rangeSpec{
	RangeFullRes: {fullRes: true, fullScaleG: 16, scaleG: 0.0039, name: "full-resolution"},
	Range2G:      {code: 0b00, fullScaleG: 2, scaleG: 2 * 2.0 / 1024, name: "±2g"},
	Range4G:      {code: 0b01, fullScaleG: 4, scaleG: 2 * 4.0 / 1024, name: "±4g"},
	Range8G:      {code: 0b10, fullScaleG: 8, scaleG: 2 * 8.0 / 1024, name: "±8g"},
	Range16G:     {code: 0b11, fullScaleG: 16, scaleG: 2 * 16.0 / 1024, name: "±16g"},
}

// Valid reports whether r is a member of the closed range enumeration.
func (r Range) Valid() bool {
	_, ok := rangeSpecs[r]
	return ok
}

// ScaleG returns the per-LSB scale in g for the range. Output stays in
// g-force; callers wanting m/s² multiply by standard gravity themselves.
func (r Range) ScaleG() float64 { return rangeSpecs[r].scaleG }

// FullScaleG returns the measurement span magnitude in g.
func (r Range) FullScaleG() float64 { return rangeSpecs[r].fullScaleG }

func (r Range) String() string {
	if s, ok := rangeSpecs[r]; ok {
		return s.name
	}
	return fmt.Sprintf("Range(%d)", byte(r))
}

// RangeForName resolves a config string ("full", "2g", ... "16g").
func RangeForName(name string) (Range, bool) {
	switch name {
	case "full", "full-resolution":
		return RangeFullRes, true
	case "2g":
		return Range2G, true
	case "4g":
		return Range4G, true
	case "8g":
		return Range8G, true
	case "16g":
		return Range16G, true
	}
	return 0, false
}
