package nes

// Mapper0 (NROM): no bank switching at all.
// CPU $8000-$BFFF: first 16 KB of PRG ROM.
// CPU $C000-$FFFF: last 16 KB of PRG ROM, or a mirror of $8000-$BFFF for
// 16 KB images.
// https://www.nesdev.org/wiki/NROM
type mapper0 struct {
	cartridge *Cartridge
}

func newMapper0(cartridge *Cartridge) *mapper0 {
	return &mapper0{cartridge: cartridge}
}

func (m *mapper0) ReadFromCPU(address uint16) byte {
	switch {
	case address >= 0x8000:
		return m.cartridge.prgROM[int(address-0x8000)%len(m.cartridge.prgROM)]
	case address >= 0x6000:
		return m.cartridge.sram[address-0x6000]
	}
	return 0
}

func (m *mapper0) WriteFromCPU(address uint16, data byte) {
	// PRG ROM is not writable; only the SRAM window takes writes.
	if 0x6000 <= address && address < 0x8000 {
		m.cartridge.sram[address-0x6000] = data
	}
}

func (m *mapper0) ReadFromPPU(address uint16) byte {
	return m.cartridge.chr[address]
}

func (m *mapper0) WriteFromPPU(address uint16, data byte) {
	if m.cartridge.chrRAM {
		m.cartridge.chr[address] = data
	}
}

func (m *mapper0) Mirroring() MirrorMode {
	return m.cartridge.mirror
}

func (m *mapper0) state() MapperState {
	return MapperState{}
}

func (m *mapper0) restore(s MapperState) {
}
