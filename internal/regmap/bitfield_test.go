package regmap

import (
	"testing"

	"go.viam.com/test"
)

func TestFieldShift(t *testing.T) {
	test.That(t, Field{Mask: 0x01}.Shift(), test.ShouldEqual, 0)
	test.That(t, Field{Mask: 0x08}.Shift(), test.ShouldEqual, 3)
	test.That(t, Field{Mask: 0xC0}.Shift(), test.ShouldEqual, 6)
	test.That(t, Field{Mask: 0x3F}.Shift(), test.ShouldEqual, 0)
}

func TestFieldShiftZeroMaskPanics(t *testing.T) {
	defer func() {
		test.That(t, recover(), test.ShouldNotBeNil)
	}()
	Field{Mask: 0}.Shift()
}

func TestExtractInsert(t *testing.T) {
	// FIFO_CTL.MODE occupies the top two bits.
	mode := Field{Mask: 0xC0}
	test.That(t, mode.Extract(0b10011100), test.ShouldEqual, byte(0b10))
	test.That(t, mode.Insert(0b01, 0b10011100), test.ShouldEqual, byte(0b01011100))

	// Values wider than the field are truncated by the mask.
	samples := Field{Mask: 0x1F}
	test.That(t, samples.Insert(0xFF, 0x00), test.ShouldEqual, byte(0x1F))
	test.That(t, samples.Insert(40, 0x00), test.ShouldEqual, byte(40&0x1F))
}

func TestFieldRoundTrip(t *testing.T) {
	// insert(extract(b)) must reproduce b for every non-zero mask, and
	// extract(insert(v)) must recover v for every representable value.
	for m := 1; m <= 0xFF; m++ {
		f := Field{Mask: byte(m)}
		for b := 0; b <= 0xFF; b++ {
			raw := byte(b)
			if got := f.Insert(f.Extract(raw), raw); got != raw {
				t.Fatalf("mask 0x%02X byte 0x%02X: round trip got 0x%02X", m, raw, got)
			}
		}
		width := 0
		for mm := byte(m) >> f.Shift(); mm != 0; mm >>= 1 {
			width++
		}
		// Only contiguous masks can represent every value of their
		// popcount width; the device map has one non-contiguous field
		// shape at most, so restrict the value sweep to contiguous ones.
		if byte(m)>>f.Shift() != byte(1<<width-1) {
			continue
		}
		for v := 0; v < 1<<width; v++ {
			if got := f.Extract(f.Insert(byte(v), 0xA5)); got != byte(v) {
				t.Fatalf("mask 0x%02X value %d: extract after insert got %d", m, v, got)
			}
		}
	}
}
