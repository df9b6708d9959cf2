package nes

// Mapper2 (UxROM): PRG bank select only.
// CPU $8000-$BFFF: 16 KB switchable PRG ROM bank.
// CPU $C000-$FFFF: 16 KB PRG ROM bank, fixed to the last bank.
// CHR is fixed and usually RAM.
// https://www.nesdev.org/wiki/UxROM
type mapper2 struct {
	cartridge *Cartridge
	prgBank   byte
	lastBank  int
}

func newMapper2(cartridge *Cartridge) *mapper2 {
	return &mapper2{cartridge: cartridge, lastBank: cartridge.prgBanks - 1}
}

func (m *mapper2) ReadFromCPU(address uint16) byte {
	switch {
	case address >= 0xC000:
		return m.cartridge.prgROM[m.lastBank*prgBankSize+int(address-0xC000)]
	case address >= 0x8000:
		bank := int(m.prgBank) % m.cartridge.prgBanks
		return m.cartridge.prgROM[bank*prgBankSize+int(address-0x8000)]
	case address >= 0x6000:
		return m.cartridge.sram[address-0x6000]
	}
	return 0
}

func (m *mapper2) WriteFromCPU(address uint16, data byte) {
	switch {
	case address >= 0x8000:
		m.prgBank = data
	case address >= 0x6000:
		m.cartridge.sram[address-0x6000] = data
	}
}

func (m *mapper2) ReadFromPPU(address uint16) byte {
	return m.cartridge.chr[address]
}

func (m *mapper2) WriteFromPPU(address uint16, data byte) {
	if m.cartridge.chrRAM {
		m.cartridge.chr[address] = data
	}
}

func (m *mapper2) Mirroring() MirrorMode {
	return m.cartridge.mirror
}

func (m *mapper2) state() MapperState {
	return MapperState{PRGBank: m.prgBank}
}

func (m *mapper2) restore(s MapperState) {
	m.prgBank = s.PRGBank
}
