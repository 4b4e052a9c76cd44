// Package inject provides injectable fakes for the hardware bus, for use
// in tests that exercise the register and driver layers without hardware.
package inject

import "errors"

// Bus implements regmap.Bus with overridable function fields. A nil
// field makes the corresponding call fail, so a test only has to stub
// the transactions it expects.
type Bus struct {
	ReadByteDataFunc  func(deviceAddr uint16, regAddr byte) (byte, error)
	WriteByteDataFunc func(deviceAddr uint16, regAddr byte, value byte) error
	ReadBlockDataFunc func(deviceAddr uint16, regAddr byte, length int) ([]byte, error)
}

func (b *Bus) ReadByteData(deviceAddr uint16, regAddr byte) (byte, error) {
	if b.ReadByteDataFunc == nil {
		return 0, errors.New("inject: ReadByteDataFunc not set")
	}
	return b.ReadByteDataFunc(deviceAddr, regAddr)
}

func (b *Bus) WriteByteData(deviceAddr uint16, regAddr byte, value byte) error {
	if b.WriteByteDataFunc == nil {
		return errors.New("inject: WriteByteDataFunc not set")
	}
	return b.WriteByteDataFunc(deviceAddr, regAddr, value)
}

func (b *Bus) ReadBlockData(deviceAddr uint16, regAddr byte, length int) ([]byte, error) {
	if b.ReadBlockDataFunc == nil {
		return nil, errors.New("inject: ReadBlockDataFunc not set")
	}
	return b.ReadBlockDataFunc(deviceAddr, regAddr, length)
}

// RegisterFile is a Bus backed by an in-memory register map. Reads of
// unset registers return zero, matching a freshly reset device.
type RegisterFile struct {
	Registers map[byte]byte
	Reads     int
	Writes    int
}

func NewRegisterFile(initial map[byte]byte) *RegisterFile {
	regs := make(map[byte]byte, len(initial))
	for addr, v := range initial {
		regs[addr] = v
	}
	return &RegisterFile{Registers: regs}
}

func (rf *RegisterFile) ReadByteData(_ uint16, regAddr byte) (byte, error) {
	rf.Reads++
	return rf.Registers[regAddr], nil
}

func (rf *RegisterFile) WriteByteData(_ uint16, regAddr byte, value byte) error {
	rf.Writes++
	rf.Registers[regAddr] = value
	return nil
}

func (rf *RegisterFile) ReadBlockData(_ uint16, regAddr byte, length int) ([]byte, error) {
	rf.Reads++
	out := make([]byte, length)
	for i := range out {
		out[i] = rf.Registers[regAddr+byte(i)]
	}
	return out, nil
}
