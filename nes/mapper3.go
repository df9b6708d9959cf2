package nes

// Mapper3 (CNROM): CHR bank select only.
// Any write to $8000-$FFFF selects the 8 KB CHR bank; PRG is fixed and
// mirrored when only 16 KB is present.
// https://www.nesdev.org/wiki/INES_Mapper_003
type mapper3 struct {
	cartridge *Cartridge
	chrBank   byte
}

func newMapper3(cartridge *Cartridge) *mapper3 {
	return &mapper3{cartridge: cartridge}
}

func (m *mapper3) ReadFromCPU(address uint16) byte {
	switch {
	case address >= 0x8000:
		return m.cartridge.prgROM[int(address-0x8000)%len(m.cartridge.prgROM)]
	case address >= 0x6000:
		return m.cartridge.sram[address-0x6000]
	}
	return 0
}

func (m *mapper3) WriteFromCPU(address uint16, data byte) {
	switch {
	case address >= 0x8000:
		m.chrBank = data
	case address >= 0x6000:
		m.cartridge.sram[address-0x6000] = data
	}
}

func (m *mapper3) chrOffset() int {
	banks := len(m.cartridge.chr) / chrBankSize
	return (int(m.chrBank) % banks) * chrBankSize
}

func (m *mapper3) ReadFromPPU(address uint16) byte {
	return m.cartridge.chr[m.chrOffset()+int(address)]
}

func (m *mapper3) WriteFromPPU(address uint16, data byte) {
	if m.cartridge.chrRAM {
		m.cartridge.chr[m.chrOffset()+int(address)] = data
	}
}

func (m *mapper3) Mirroring() MirrorMode {
	return m.cartridge.mirror
}

func (m *mapper3) state() MapperState {
	return MapperState{CHRBank0: m.chrBank}
}

func (m *mapper3) restore(s MapperState) {
	m.chrBank = s.CHRBank0
}
