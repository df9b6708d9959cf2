package nes

// Synthetic iNES images for tests. No binary fixtures: every test builds
// the exact cartridge it needs in memory.

type romConfig struct {
	prgBanks int
	chrBanks int
	mapperID byte
	vertical bool
	trainer  bool
	pal      bool
}

// buildROM assembles an iNES image from the config. Bank payloads are
// zeroed; tests patch in the bytes they care about.
func buildROM(cfg romConfig) []byte {
	header := make([]byte, inesHeaderSizeBytes)
	header[0] = 'N'
	header[1] = 'E'
	header[2] = 'S'
	header[3] = msDOSEOF
	header[4] = byte(cfg.prgBanks)
	header[5] = byte(cfg.chrBanks)
	header[6] = (cfg.mapperID & 0x0F) << 4
	if cfg.vertical {
		header[6] |= 0x01
	}
	if cfg.trainer {
		header[6] |= 0x04
	}
	header[7] = cfg.mapperID & 0xF0
	if cfg.pal {
		header[9] = 0x01
	}
	rom := header
	rom = append(rom, make([]byte, cfg.prgBanks*prgBankSize)...)
	rom = append(rom, make([]byte, cfg.chrBanks*chrBankSize)...)
	return rom
}

// prgSlice returns the PRG region of a built image for patching.
func prgSlice(rom []byte) []byte {
	return rom[inesHeaderSizeBytes : len(rom)-int(rom[5])*chrBankSize]
}

// chrSlice returns the CHR region of a built image for patching.
func chrSlice(rom []byte) []byte {
	return rom[len(rom)-int(rom[5])*chrBankSize:]
}

// buildProgramROM builds a single-bank NROM image whose PRG starts with
// the given code at $8000 and whose reset vector points there. Code that
// runs off its end should finish with an infinite loop.
func buildProgramROM(code ...byte) []byte {
	rom := buildROM(romConfig{prgBanks: 1, chrBanks: 1})
	prg := prgSlice(rom)
	copy(prg, code)
	// The single bank is mirrored at $C000, so the vectors live at the
	// top of the bank.
	prg[0x3FFC] = 0x00
	prg[0x3FFD] = 0x80
	return rom
}

// setNMIVector points the NMI vector of a single-bank image at address.
func setNMIVector(rom []byte, address uint16) {
	prg := prgSlice(rom)
	prg[0x3FFA] = byte(address)
	prg[0x3FFB] = byte(address >> 8)
}

// spin is an infinite JMP-to-self loop at $8000.
var spin = []byte{0x4C, 0x00, 0x80}

// newTestConsole builds a console around the image and fails the test on
// a load error.
func newTestConsole(t interface{ Fatalf(string, ...interface{}) }, rom []byte) *Console {
	console, err := NewConsole(rom)
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}
	return console
}
