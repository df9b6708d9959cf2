package nes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper(t *testing.T, cfg romConfig, patch func(rom []byte)) Mapper {
	rom := buildROM(cfg)
	if patch != nil {
		patch(rom)
	}
	cartridge, err := NewCartridge(rom)
	require.NoError(t, err)
	mapper, err := NewMapper(cartridge)
	require.NoError(t, err)
	return mapper
}

// writeSerial shifts a 5-bit value into an MMC1 register one bit at a
// time, LSB first.
func writeSerial(m Mapper, address uint16, value byte) {
	for i := 0; i < 5; i++ {
		m.WriteFromCPU(address, (value>>i)&1)
	}
}

func TestMapper0Mirror(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 1, chrBanks: 1}, func(rom []byte) {
		prg := prgSlice(rom)
		prg[0x0000] = 0x11
		prg[0x1234] = 0x22
		prg[0x3FFF] = 0x33
	})
	// A single 16 KB bank appears at both $8000 and $C000.
	assert.Equal(t, byte(0x11), m.ReadFromCPU(0x8000))
	assert.Equal(t, byte(0x11), m.ReadFromCPU(0xC000))
	assert.Equal(t, byte(0x22), m.ReadFromCPU(0x9234))
	assert.Equal(t, byte(0x22), m.ReadFromCPU(0xD234))
	assert.Equal(t, byte(0x33), m.ReadFromCPU(0xFFFF))
}

func TestMapper0TwoBanks(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 2, chrBanks: 1}, func(rom []byte) {
		prg := prgSlice(rom)
		prg[0x0000] = 0x11
		prg[0x4000] = 0x22
	})
	assert.Equal(t, byte(0x11), m.ReadFromCPU(0x8000))
	assert.Equal(t, byte(0x22), m.ReadFromCPU(0xC000))
}

func TestMapper0SRAM(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 1, chrBanks: 1}, nil)
	m.WriteFromCPU(0x6000, 0xAB)
	m.WriteFromCPU(0x7FFF, 0xCD)
	assert.Equal(t, byte(0xAB), m.ReadFromCPU(0x6000))
	assert.Equal(t, byte(0xCD), m.ReadFromCPU(0x7FFF))
}

func TestMapper0CHR(t *testing.T) {
	t.Run("ROM ignores writes", func(t *testing.T) {
		m := newTestMapper(t, romConfig{prgBanks: 1, chrBanks: 1}, func(rom []byte) {
			chrSlice(rom)[0x100] = 0x42
		})
		m.WriteFromPPU(0x0100, 0xFF)
		assert.Equal(t, byte(0x42), m.ReadFromPPU(0x0100))
	})
	t.Run("RAM accepts writes", func(t *testing.T) {
		m := newTestMapper(t, romConfig{prgBanks: 1, chrBanks: 0}, nil)
		m.WriteFromPPU(0x0100, 0xFF)
		assert.Equal(t, byte(0xFF), m.ReadFromPPU(0x0100))
	})
}

func TestMapper1PRGBankSwitch(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 4, chrBanks: 1, mapperID: 1}, func(rom []byte) {
		prg := prgSlice(rom)
		for bank := 0; bank < 4; bank++ {
			prg[bank*prgBankSize] = byte(bank + 1)
		}
	})
	// Power-on PRG mode fixes the last bank at $C000 and switches $8000.
	assert.Equal(t, byte(1), m.ReadFromCPU(0x8000))
	assert.Equal(t, byte(4), m.ReadFromCPU(0xC000))

	writeSerial(m, 0xE000, 2)
	assert.Equal(t, byte(3), m.ReadFromCPU(0x8000))
	assert.Equal(t, byte(4), m.ReadFromCPU(0xC000))
}

func TestMapper1SerialCommitTiming(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 4, chrBanks: 1, mapperID: 1}, func(rom []byte) {
		prg := prgSlice(rom)
		for bank := 0; bank < 4; bank++ {
			prg[bank*prgBankSize] = byte(bank + 1)
		}
	})
	// Four writes are not enough to commit.
	for i := 0; i < 4; i++ {
		m.WriteFromCPU(0xE000, (2>>i)&1)
	}
	assert.Equal(t, byte(1), m.ReadFromCPU(0x8000))
	// The fifth completes the transfer.
	m.WriteFromCPU(0xE000, 0)
	assert.Equal(t, byte(3), m.ReadFromCPU(0x8000))
}

func TestMapper1ResetBitDiscardsSequence(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 4, chrBanks: 1, mapperID: 1}, func(rom []byte) {
		prg := prgSlice(rom)
		for bank := 0; bank < 4; bank++ {
			prg[bank*prgBankSize] = byte(bank + 1)
		}
	})
	// Two bits of a sequence, then a reset write.
	m.WriteFromCPU(0xE000, 1)
	m.WriteFromCPU(0xE000, 1)
	m.WriteFromCPU(0xE000, 0x80)
	// A full sequence afterwards lands cleanly.
	writeSerial(m, 0xE000, 1)
	assert.Equal(t, byte(2), m.ReadFromCPU(0x8000))
	// The reset also forced the fixed-last-bank PRG mode.
	assert.Equal(t, byte(4), m.ReadFromCPU(0xC000))
}

func TestMapper1Mirroring(t *testing.T) {
	tests := []struct {
		control byte
		want    MirrorMode
	}{
		{0, MirrorSingle0},
		{1, MirrorSingle1},
		{2, MirrorVertical},
		{3, MirrorHorizontal},
	}
	for _, tt := range tests {
		m := newTestMapper(t, romConfig{prgBanks: 2, chrBanks: 1, mapperID: 1}, nil)
		writeSerial(m, 0x8000, tt.control|0x0C)
		assert.Equal(t, tt.want, m.Mirroring(), "control %d", tt.control)
	}
}

func TestMapper1CHRModes(t *testing.T) {
	cfg := romConfig{prgBanks: 2, chrBanks: 2, mapperID: 1}
	patch := func(rom []byte) {
		chr := chrSlice(rom)
		// One marker per 4 KB half-bank.
		for i := 0; i < 4; i++ {
			chr[i*0x1000] = byte(0x10 + i)
		}
	}

	t.Run("8KB mode", func(t *testing.T) {
		m := newTestMapper(t, cfg, patch)
		writeSerial(m, 0x8000, 0x0C) // CHR mode 0
		writeSerial(m, 0xA000, 2)    // low bit ignored in 8 KB mode
		assert.Equal(t, byte(0x12), m.ReadFromPPU(0x0000))
		assert.Equal(t, byte(0x13), m.ReadFromPPU(0x1000))
	})
	t.Run("4KB mode", func(t *testing.T) {
		m := newTestMapper(t, cfg, patch)
		writeSerial(m, 0x8000, 0x1C) // CHR mode 1
		writeSerial(m, 0xA000, 3)
		writeSerial(m, 0xC000, 0)
		assert.Equal(t, byte(0x13), m.ReadFromPPU(0x0000))
		assert.Equal(t, byte(0x10), m.ReadFromPPU(0x1000))
	})
}

func TestMapper2BankSwitch(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 4, chrBanks: 0, mapperID: 2}, func(rom []byte) {
		prg := prgSlice(rom)
		for bank := 0; bank < 4; bank++ {
			prg[bank*prgBankSize] = byte(bank + 1)
		}
	})
	// The last bank is hard-wired at $C000.
	assert.Equal(t, byte(1), m.ReadFromCPU(0x8000))
	assert.Equal(t, byte(4), m.ReadFromCPU(0xC000))

	m.WriteFromCPU(0x8000, 2)
	assert.Equal(t, byte(3), m.ReadFromCPU(0x8000))
	assert.Equal(t, byte(4), m.ReadFromCPU(0xC000))

	// Bank numbers wrap modulo the bank count.
	m.WriteFromCPU(0x8000, 5)
	assert.Equal(t, byte(2), m.ReadFromCPU(0x8000))
}

func TestMapper3BankSwitch(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 1, chrBanks: 2, mapperID: 3}, func(rom []byte) {
		chr := chrSlice(rom)
		chr[0x0000] = 0x11
		chr[chrBankSize] = 0x22
		prgSlice(rom)[0] = 0x99
	})
	assert.Equal(t, byte(0x11), m.ReadFromPPU(0x0000))
	m.WriteFromCPU(0x8000, 1)
	assert.Equal(t, byte(0x22), m.ReadFromPPU(0x0000))
	// PRG stays fixed.
	assert.Equal(t, byte(0x99), m.ReadFromCPU(0x8000))
	assert.Equal(t, byte(0x99), m.ReadFromCPU(0xC000))
}

func TestMapperStateRoundTrip(t *testing.T) {
	m := newTestMapper(t, romConfig{prgBanks: 4, chrBanks: 1, mapperID: 1}, nil)
	writeSerial(m, 0x8000, 0x1E)
	writeSerial(m, 0xE000, 2)
	// A partial serial write is part of the state too.
	m.WriteFromCPU(0xE000, 1)

	saved := m.state()
	writeSerial(m, 0xE000, 3)
	m.restore(saved)
	assert.Equal(t, saved, m.state())
}
