package nes

import "fmt"

// Mapper translates cartridge-window accesses into offsets inside the
// cartridge's PRG/CHR data and mutates its bank-select state on writes.
// Writes outside a variant's defined window are no-ops, mirroring hardware
// tolerance.
type Mapper interface {
	ReadFromCPU(address uint16) byte
	WriteFromCPU(address uint16, data byte)
	ReadFromPPU(address uint16) byte
	WriteFromPPU(address uint16, data byte)
	// Mirroring reports the current nametable arrangement. MMC1 derives it
	// from its control register, the fixed mappers report the header bit.
	Mirroring() MirrorMode
	// state/restore expose the bank-select registers for snapshots.
	state() MapperState
	restore(s MapperState)
}

// MapperState is the serializable union of all variants' bank-select
// registers. Unused fields stay zero for the simpler variants.
type MapperState struct {
	ShiftRegister byte
	Control       byte
	CHRBank0      byte
	CHRBank1      byte
	PRGBank       byte
}

// NewMapper creates the bank-switching unit for the cartridge's mapper id.
// The id was validated at load time, so an unknown id here is a programming
// error rather than bad input.
func NewMapper(cartridge *Cartridge) (Mapper, error) {
	switch cartridge.mapperID {
	case 0:
		return newMapper0(cartridge), nil
	case 1:
		return newMapper1(cartridge), nil
	case 2:
		return newMapper2(cartridge), nil
	case 3:
		return newMapper3(cartridge), nil
	}
	return nil, fmt.Errorf("%w: mapper %d", ErrUnsupportedMapper, cartridge.mapperID)
}
