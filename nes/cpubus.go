package nes

import (
	"github.com/golang/glog"
)

// CPUBus routes the CPU's 16-bit address space. It carries no state of its
// own; every access resolves to one of the attached components.
//
// CPU memory map
// 0x0000 - 0x07FF	WRAM
// 0x0800 - 0x1FFF	WRAM Mirror
// 0x2000 - 0x2007	PPU Registers
// 0x2008 - 0x3FFF	PPU Registers Mirror
// 0x4000 - 0x401F	I/O Port
// 0x4020 - 0x5FFF	Extended RAM
// 0x6000 - 0x7FFF	Battery Backup RAM
// 0x8000 - 0xFFFF	PRG ROM
type CPUBus struct {
	wram        *RAM
	ppu         *PPU
	mapper      Mapper
	controllers [2]*Controller
}

// NewCPUBus creates a new Bus for the CPU.
func NewCPUBus(wram *RAM, ppu *PPU, mapper Mapper, controller1, controller2 *Controller) *CPUBus {
	return &CPUBus{
		wram:        wram,
		ppu:         ppu,
		mapper:      mapper,
		controllers: [2]*Controller{controller1, controller2},
	}
}

// read reads a byte.
func (b *CPUBus) read(address uint16) byte {
	switch {
	case address < 0x2000:
		return b.wram.read(address % 0x0800)
	case address < 0x4000:
		return b.ppu.readRegister(0x2000 + address%8)
	case address == 0x4016:
		return b.controllers[0].read()
	case address == 0x4017:
		return b.controllers[1].read()
	case address < 0x4020:
		// APU and test registers. Audio is out of scope, reads float low.
		glog.V(1).Infof("Unimplemented CPU bus read: address=0x%04x", address)
		return 0
	default:
		return b.mapper.ReadFromCPU(address)
	}
}

// read16 reads 2 bytes.
func (b *CPUBus) read16(address uint16) uint16 {
	l := b.read(address)
	h := b.read(address + 1)
	return uint16(h)<<8 | uint16(l)
}

// read16Wrap reads 2 bytes without carrying into the high address byte,
// reproducing the 6502's indirect page-wrap bug: reading 2 bytes at $10FF
// fetches $10FF and $1000, not $1100.
func (b *CPUBus) read16Wrap(address uint16) uint16 {
	next := (address & 0xFF00) | uint16(byte(address)+1)
	l := b.read(address)
	h := b.read(next)
	return uint16(h)<<8 | uint16(l)
}

// write writes a byte. Writes into the cartridge window reach the mapper
// even though PRG ROM itself is read-only: bank-select side effects depend
// on observing them.
func (b *CPUBus) write(address uint16, data byte) {
	switch {
	case address < 0x2000:
		b.wram.write(address%0x0800, data)
	case address < 0x4000:
		b.ppu.writeRegister(0x2000+address%8, data)
	case address == 0x4014:
		// OAM DMA is intercepted by the CPU so it can account the stall
		// cycles; reaching the plain bus write is a wiring bug.
		glog.Errorf("OAMDMA write reached CPUBus.write: data=0x%02x", data)
	case address == 0x4016:
		// A strobe write targets both ports.
		b.controllers[0].write(data)
		b.controllers[1].write(data)
	case address < 0x4020:
		glog.V(1).Infof("Unimplemented CPU bus write: address=0x%04x, data=0x%02x", address, data)
	default:
		b.mapper.WriteFromCPU(address, data)
	}
}
