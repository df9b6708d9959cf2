package nes

// Mapper1 (MMC1): serial shift-register bank select.
//
// Writes to $8000-$FFFF feed one bit at a time into a 5-bit shift register;
// the fifth write commits the value into one of four internal registers
// selected by address bits 14-13 (control, CHR bank 0, CHR bank 1, PRG
// bank). A write with bit 7 set clears the shift state without committing
// and forces PRG mode 3.
// https://www.nesdev.org/wiki/MMC1
type mapper1 struct {
	cartridge     *Cartridge
	shiftRegister byte
	control       byte
	chrBank0      byte
	chrBank1      byte
	prgBank       byte
	prgOffsets    [2]int
	chrOffsets    [2]int
}

func newMapper1(cartridge *Cartridge) *mapper1 {
	m := &mapper1{cartridge: cartridge, shiftRegister: 0x10, control: 0x0C}
	m.updateOffsets()
	return m
}

func (m *mapper1) ReadFromCPU(address uint16) byte {
	switch {
	case address >= 0x8000:
		address -= 0x8000
		bank := address / prgBankSize
		return m.cartridge.prgROM[m.prgOffsets[bank]+int(address%prgBankSize)]
	case address >= 0x6000:
		return m.cartridge.sram[address-0x6000]
	}
	return 0
}

func (m *mapper1) WriteFromCPU(address uint16, data byte) {
	switch {
	case address >= 0x8000:
		m.loadRegister(address, data)
	case address >= 0x6000:
		m.cartridge.sram[address-0x6000] = data
	}
}

func (m *mapper1) ReadFromPPU(address uint16) byte {
	bank := address / 0x1000
	return m.cartridge.chr[m.chrOffsets[bank]+int(address%0x1000)]
}

func (m *mapper1) WriteFromPPU(address uint16, data byte) {
	bank := address / 0x1000
	m.cartridge.chr[m.chrOffsets[bank]+int(address%0x1000)] = data
}

func (m *mapper1) Mirroring() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingle0
	case 1:
		return MirrorSingle1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

// loadRegister runs the serial write protocol. Bit 7 resets the shift state
// immediately; otherwise bit 0 is shifted in and the fifth consecutive
// write commits the accumulated 5-bit value.
func (m *mapper1) loadRegister(address uint16, data byte) {
	if data&0x80 != 0 {
		m.shiftRegister = 0x10
		m.writeRegister(0x8000, m.control|0x0C)
		return
	}
	complete := m.shiftRegister&1 == 1
	m.shiftRegister >>= 1
	m.shiftRegister |= (data & 1) << 4
	if complete {
		m.writeRegister(address, m.shiftRegister)
		m.shiftRegister = 0x10
	}
}

// writeRegister commits a 5-bit value into the internal register selected
// by address bits 14-13.
func (m *mapper1) writeRegister(address uint16, value byte) {
	switch {
	case address <= 0x9FFF:
		m.control = value
	case address <= 0xBFFF:
		m.chrBank0 = value
	case address <= 0xDFFF:
		m.chrBank1 = value
	default:
		m.prgBank = value & 0x0F
	}
	m.updateOffsets()
}

func (m *mapper1) prgOffset(index int) int {
	if index >= 0x80 {
		index -= 0x100
	}
	count := len(m.cartridge.prgROM) / prgBankSize
	offset := (index % count) * prgBankSize
	if offset < 0 {
		offset += len(m.cartridge.prgROM)
	}
	return offset
}

func (m *mapper1) chrOffset(index int) int {
	if index >= 0x80 {
		index -= 0x100
	}
	count := len(m.cartridge.chr) / 0x1000
	offset := (index % count) * 0x1000
	if offset < 0 {
		offset += len(m.cartridge.chr)
	}
	return offset
}

// updateOffsets recomputes the PRG/CHR window offsets from the control
// register's banking modes.
//
// PRG mode 0,1: switch 32 KB at $8000, ignoring the low bank bit.
// PRG mode 2: fix the first bank at $8000, switch 16 KB at $C000.
// PRG mode 3: switch 16 KB at $8000, fix the last bank at $C000.
// CHR mode 0: switch 8 KB at a time; CHR mode 1: two separate 4 KB banks.
func (m *mapper1) updateOffsets() {
	switch (m.control >> 2) & 0x03 {
	case 0, 1:
		m.prgOffsets[0] = m.prgOffset(int(m.prgBank & 0xFE))
		m.prgOffsets[1] = m.prgOffset(int(m.prgBank | 0x01))
	case 2:
		m.prgOffsets[0] = 0
		m.prgOffsets[1] = m.prgOffset(int(m.prgBank))
	case 3:
		m.prgOffsets[0] = m.prgOffset(int(m.prgBank))
		m.prgOffsets[1] = m.prgOffset(-1)
	}
	if (m.control>>4)&1 == 0 {
		m.chrOffsets[0] = m.chrOffset(int(m.chrBank0 & 0xFE))
		m.chrOffsets[1] = m.chrOffset(int(m.chrBank0 | 0x01))
	} else {
		m.chrOffsets[0] = m.chrOffset(int(m.chrBank0))
		m.chrOffsets[1] = m.chrOffset(int(m.chrBank1))
	}
}

func (m *mapper1) state() MapperState {
	return MapperState{
		ShiftRegister: m.shiftRegister,
		Control:       m.control,
		CHRBank0:      m.chrBank0,
		CHRBank1:      m.chrBank1,
		PRGBank:       m.prgBank,
	}
}

func (m *mapper1) restore(s MapperState) {
	m.shiftRegister = s.ShiftRegister
	m.control = s.Control
	m.chrBank0 = s.CHRBank0
	m.chrBank1 = s.CHRBank1
	m.prgBank = s.PRGBank
	m.updateOffsets()
}
