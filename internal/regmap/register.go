// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package regmap

import (
	"errors"
	"fmt"
)

// Bus is the byte-level transport the register layer runs on. A periph.io
// I2C adapter provides the real implementation; tests inject a fake.
type Bus interface {
	ReadByteData(deviceAddr uint16, regAddr byte) (byte, error)
	WriteByteData(deviceAddr uint16, regAddr byte, value byte) error
	ReadBlockData(deviceAddr uint16, regAddr byte, length int) ([]byte, error)
}

var (
	// ErrUnbound reports use of a register before Bind. This is a
	// programming error in device construction, never a runtime
	// condition worth retrying.
	ErrUnbound = errors.New("regmap: register not bound to a bus")

	// ErrReadOnly reports a write to a status-only register.
	ErrReadOnly = errors.New("regmap: register is read-only")
)

// UnknownFieldError reports a field name missing from a register's map.
type UnknownFieldError struct {
	Register byte
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("regmap: register 0x%02X has no field %q", e.Register, e.Field)
}

// Register binds one 8-bit hardware register address to a named field
// layout. Address, ReadOnly and Fields are fixed at declaration; the bus
// binding is applied once by the owning device.
type Register struct {
	Address  byte
	ReadOnly bool
	Fields   map[string]Field

	bus        Bus
	deviceAddr uint16
}

// Bind attaches the register to a bus and device address. Called exactly
// once per register while the owning device is constructed.
func (r *Register) Bind(bus Bus, deviceAddr uint16) {
	r.bus = bus
	r.deviceAddr = deviceAddr
}

func (r *Register) field(name string) (Field, error) {
	f, ok := r.Fields[name]
	if !ok {
		return Field{}, &UnknownFieldError{Register: r.Address, Field: name}
	}
	return f, nil
}

// ReadByte reads the whole register byte. No caching: every call is a
// fresh bus transaction so the value reflects true hardware state.
func (r *Register) ReadByte() (byte, error) {
	if r.bus == nil {
		return 0, ErrUnbound
	}
	raw, err := r.bus.ReadByteData(r.deviceAddr, r.Address)
	if err != nil {
		return 0, fmt.Errorf("regmap: read 0x%02X: %w", r.Address, err)
	}
	return raw, nil
}

// ReadField reads the register and extracts the named field.
func (r *Register) ReadField(name string) (byte, error) {
	f, err := r.field(name)
	if err != nil {
		return 0, err
	}
	raw, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return f.Extract(raw), nil
}

// WriteField updates one field via read-modify-write: one byte read,
// insert, one byte write. The two transactions are not atomic; the bus
// itself is the serialization point and this design has a single writer.
func (r *Register) WriteField(name string, value byte) error {
	if r.ReadOnly {
		return fmt.Errorf("%w: 0x%02X", ErrReadOnly, r.Address)
	}
	if r.bus == nil {
		return ErrUnbound
	}
	f, err := r.field(name)
	if err != nil {
		return err
	}
	raw, err := r.bus.ReadByteData(r.deviceAddr, r.Address)
	if err != nil {
		return fmt.Errorf("regmap: read 0x%02X: %w", r.Address, err)
	}
	if err := r.bus.WriteByteData(r.deviceAddr, r.Address, f.Insert(value, raw)); err != nil {
		return fmt.Errorf("regmap: write 0x%02X: %w", r.Address, err)
	}
	return nil
}
