// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345

import "fmt"

// RegisterInfo describes one register for the debug console.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// BitField documents one named field of a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// GetRegisterMap returns metadata for the documented ADXL345 registers.
// Addresses 0x01 through 0x1C are reserved and deliberately absent.
func GetRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: "0x00", Name: "DEVID", Description: "Device ID (should be 0xE5)", Access: "R", Default: "0xE5"},

		{Address: "0x1D", Name: "THRESH_TAP", Description: "Tap threshold", Access: "RW", Default: "0x00"},
		{Address: "0x1E", Name: "OFSX", Description: "X-axis offset", Access: "RW", Default: "0x00"},
		{Address: "0x1F", Name: "OFSY", Description: "Y-axis offset", Access: "RW", Default: "0x00"},
		{Address: "0x20", Name: "OFSZ", Description: "Z-axis offset", Access: "RW", Default: "0x00"},
		{Address: "0x21", Name: "DUR", Description: "Tap duration", Access: "RW", Default: "0x00"},
		{Address: "0x22", Name: "LATENT", Description: "Tap latency", Access: "RW", Default: "0x00"},
		{Address: "0x23", Name: "WINDOW", Description: "Tap window", Access: "RW", Default: "0x00"},
		{Address: "0x24", Name: "THRESH_ACT", Description: "Activity threshold", Access: "RW", Default: "0x00"},
		{Address: "0x25", Name: "THRESH_INACT", Description: "Inactivity threshold", Access: "RW", Default: "0x00"},
		{Address: "0x26", Name: "TIME_INACT", Description: "Inactivity time", Access: "RW", Default: "0x00"},
		{Address: "0x27", Name: "ACT_INACT_CTL", Description: "Axis enable for activity/inactivity detection", Access: "RW", Default: "0x00"},
		{Address: "0x28", Name: "THRESH_FF", Description: "Free-fall threshold", Access: "RW", Default: "0x00"},
		{Address: "0x29", Name: "TIME_FF", Description: "Free-fall time", Access: "RW", Default: "0x00"},
		{Address: "0x2A", Name: "TAP_AXES", Description: "Axis control for single/double tap", Access: "RW", Default: "0x00"},
		{Address: "0x2B", Name: "ACT_TAP_STATUS", Description: "Source of single/double tap", Access: "R", Default: "0x00"},

		{Address: "0x2C", Name: "BW_RATE", Description: "Data rate and power mode control", Access: "RW", Default: "0x0A",
			BitFields: []BitField{
				{Bits: "4", Name: "LOW_POWER", Description: "Reduced power operation", Values: "0=Normal, 1=Low power"},
				{Bits: "3:0", Name: "RATE", Description: "Output data rate code", Values: "0x0=0.10Hz ... 0xA=100Hz ... 0xF=3200Hz"},
			}},
		{Address: "0x2D", Name: "POWER_CTL", Description: "Power saving features control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5", Name: "LINK", Description: "Link activity and inactivity functions", Values: "0=Concurrent, 1=Serial"},
				{Bits: "4", Name: "AUTO_SLEEP", Description: "Auto-sleep on inactivity", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "MEASURE", Description: "Measurement mode", Values: "0=Standby, 1=Measure"},
				{Bits: "2", Name: "SLEEP", Description: "Sleep mode", Values: "0=Normal, 1=Sleep"},
				{Bits: "1:0", Name: "WAKEUP", Description: "Readings per second in sleep mode", Values: "0=8Hz, 1=4Hz, 2=2Hz, 3=1Hz"},
			}},
		{Address: "0x2E", Name: "INT_ENABLE", Description: "Interrupt enable control", Access: "RW", Default: "0x00"},
		{Address: "0x2F", Name: "INT_MAP", Description: "Interrupt mapping control", Access: "RW", Default: "0x00"},
		{Address: "0x30", Name: "INT_SOURCE", Description: "Source of interrupts", Access: "R", Default: "0x02",
			BitFields: []BitField{
				{Bits: "7", Name: "DATA_READY", Description: "New data is available", Values: ""},
				{Bits: "6", Name: "SINGLE_TAP", Description: "Single tap detected", Values: ""},
				{Bits: "5", Name: "DOUBLE_TAP", Description: "Double tap detected", Values: ""},
				{Bits: "4", Name: "ACTIVITY", Description: "Activity detected", Values: ""},
				{Bits: "3", Name: "INACTIVITY", Description: "Inactivity detected", Values: ""},
				{Bits: "2", Name: "FREE_FALL", Description: "Free fall detected", Values: ""},
				{Bits: "1", Name: "WATERMARK", Description: "FIFO fill reached FIFO_CTL.SAMPLES", Values: ""},
				{Bits: "0", Name: "OVERRUN", Description: "Unread data was overwritten", Values: ""},
			}},
		{Address: "0x31", Name: "DATA_FORMAT", Description: "Data format control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "SELF_TEST", Description: "Self-test force", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "SPI", Description: "SPI wire mode", Values: "0=4-wire, 1=3-wire"},
				{Bits: "5", Name: "INT_INVERT", Description: "Interrupt polarity", Values: "0=Active high, 1=Active low"},
				{Bits: "3", Name: "FULL_RES", Description: "Full resolution mode", Values: "0=10-bit, 1=Full resolution (3.9 mg/LSB)"},
				{Bits: "2", Name: "JUSTIFY", Description: "Output justification", Values: "0=Right (sign extended), 1=Left (MSB)"},
				{Bits: "1:0", Name: "RANGE", Description: "Measurement range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},

		{Address: "0x32", Name: "DATAX0", Description: "X-axis data low byte", Access: "R"},
		{Address: "0x33", Name: "DATAX1", Description: "X-axis data high byte", Access: "R"},
		{Address: "0x34", Name: "DATAY0", Description: "Y-axis data low byte", Access: "R"},
		{Address: "0x35", Name: "DATAY1", Description: "Y-axis data high byte", Access: "R"},
		{Address: "0x36", Name: "DATAZ0", Description: "Z-axis data low byte", Access: "R"},
		{Address: "0x37", Name: "DATAZ1", Description: "Z-axis data high byte", Access: "R"},

		{Address: "0x38", Name: "FIFO_CTL", Description: "FIFO control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:6", Name: "MODE", Description: "FIFO mode", Values: "0=Bypass, 1=FIFO, 2=Stream, 3=Trigger"},
				{Bits: "5", Name: "TRIGGER", Description: "Trigger event routing", Values: "0=INT1, 1=INT2"},
				{Bits: "4:0", Name: "SAMPLES", Description: "Watermark level", Values: "0-31"},
			}},
		{Address: "0x39", Name: "FIFO_STATUS", Description: "FIFO status", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "FIFO_TRIG", Description: "Trigger event has occurred", Values: ""},
				{Bits: "5:0", Name: "ENTRIES", Description: "Number of entries in FIFO", Values: "0-32"},
			}},
	}
}

// ReadRegister reads one register byte by raw address, for the debug
// console. Normal driver paths go through the named field layer instead.
func (d *Driver) ReadRegister(addr byte) (byte, error) {
	b, err := d.bus.ReadByteData(d.addr, addr)
	if err != nil {
		return 0, fmt.Errorf("adxl345: read 0x%02X: %w", addr, err)
	}
	return b, nil
}

// WriteRegister writes one raw register byte, for the debug console.
func (d *Driver) WriteRegister(addr, value byte) error {
	if err := d.bus.WriteByteData(d.addr, addr, value); err != nil {
		return fmt.Errorf("adxl345: write 0x%02X: %w", addr, err)
	}
	return nil
}

// ReadAllRegisters dumps every documented register.
func (d *Driver) ReadAllRegisters() (map[byte]byte, error) {
	out := make(map[byte]byte)
	for _, info := range GetRegisterMap() {
		var addr byte
		if _, err := fmt.Sscanf(info.Address, "0x%X", &addr); err != nil {
			continue
		}
		v, err := d.ReadRegister(addr)
		if err != nil {
			return nil, err
		}
		out[addr] = v
	}
	return out, nil
}
