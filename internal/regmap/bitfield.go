// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package regmap turns raw byte-oriented register transactions into named,
// masked bitfield accesses. It is device-agnostic: a device package declares
// its registers and field masks statically and binds them to a bus once at
// construction time.
package regmap

import "math/bits"

// Field describes a named group of bits inside an 8-bit register.
// The mask does not have to be contiguous; the shift is the position
// of the lowest set bit.
type Field struct {
	Mask byte
}

// Shift returns the right-shift needed to align the field's lowest bit
// at bit 0. Panics for a zero mask: every field in a register map must
// name at least one bit, so a zero mask is a table-construction bug.
func (f Field) Shift() int {
	if f.Mask == 0 {
		panic("regmap: field with zero mask")
	}
	return bits.TrailingZeros8(f.Mask)
}

// Extract isolates the field's bits from a raw register byte.
func (f Field) Extract(raw byte) byte {
	return (raw & f.Mask) >> f.Shift()
}

// Insert places value into the field's bits of raw, keeping all other
// bits intact. Value bits that do not fit the mask are truncated by the
// final mask; this is the masking semantic, not an error.
func (f Field) Insert(value, raw byte) byte {
	return (raw &^ f.Mask) | ((value << f.Shift()) & f.Mask)
}
