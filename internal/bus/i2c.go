// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bus adapts a periph.io I2C bus to the regmap.Bus transport
// interface. Register reads use the standard write-register-then-read
// transaction; block reads rely on the device auto-incrementing the
// register pointer, which the ADXL345 does for its data registers.
package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2C is a regmap.Bus over a Linux I2C adapter.
type I2C struct {
	bus i2c.BusCloser
}

// OpenI2C initializes the periph host and opens the named bus. An empty
// name selects the first available adapter.
func OpenI2C(name string) (*I2C, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bus: periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("bus: open I2C %q: %w", name, err)
	}
	return &I2C{bus: b}, nil
}

func (b *I2C) ReadByteData(deviceAddr uint16, regAddr byte) (byte, error) {
	var buf [1]byte
	dev := i2c.Dev{Bus: b.bus, Addr: deviceAddr}
	if err := dev.Tx([]byte{regAddr}, buf[:]); err != nil {
		return 0, fmt.Errorf("bus: read 0x%02X@0x%02X: %w", regAddr, deviceAddr, err)
	}
	return buf[0], nil
}

func (b *I2C) WriteByteData(deviceAddr uint16, regAddr byte, value byte) error {
	dev := i2c.Dev{Bus: b.bus, Addr: deviceAddr}
	if err := dev.Tx([]byte{regAddr, value}, nil); err != nil {
		return fmt.Errorf("bus: write 0x%02X@0x%02X: %w", regAddr, deviceAddr, err)
	}
	return nil
}

func (b *I2C) ReadBlockData(deviceAddr uint16, regAddr byte, length int) ([]byte, error) {
	buf := make([]byte, length)
	dev := i2c.Dev{Bus: b.bus, Addr: deviceAddr}
	if err := dev.Tx([]byte{regAddr}, buf); err != nil {
		return nil, fmt.Errorf("bus: block read %d@0x%02X: %w", length, regAddr, err)
	}
	return buf, nil
}

// Close releases the underlying adapter.
func (b *I2C) Close() error {
	return b.bus.Close()
}
