package nes

import (
	"crypto/sha256"
	"fmt"
)

const (
	prgBankSize         = 0x4000 // 16 KB
	chrBankSize         = 0x2000 // 8 KB
	sramSize            = 0x2000 // 8 KB battery backup window at $6000
	inesHeaderSizeBytes = 16     // The valid iNES header has 16 bytes
	msDOSEOF            = byte(0x1A)
)

// MirrorMode selects how the two physical nametables map onto the four
// logical ones.
type MirrorMode int

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingle0
	MirrorSingle1
	MirrorFour
)

// Cartridge is a parsed and validated iNES image. It is immutable after
// load except for the CHR RAM and SRAM backing stores, which mappers write
// through.
// https://www.nesdev.org/wiki/INES
type Cartridge struct {
	prgROM   []byte
	chr      []byte // CHR ROM, or an 8 KB RAM backing store when chrRAM
	sram     []byte
	prgBanks int
	chrBanks int
	mapperID byte
	chrRAM   bool
	mirror   MirrorMode
	sum      [sha256.Size224]byte // content fingerprint for snapshot identity
}

// isValid checks whether the buffer starts with a valid iNES magic.
func isValid(data []byte) bool {
	return len(data) >= inesHeaderSizeBytes &&
		data[0] == byte('N') &&
		data[1] == byte('E') &&
		data[2] == byte('S') &&
		data[3] == msDOSEOF
}

// NewCartridge parses data as an iNES image.
//
// Validation failures are unrecoverable: ErrMalformedHeader for a bad magic,
// a zero PRG bank count or declared sizes exceeding the buffer,
// ErrTrainerNotSupported when the trainer flag is set, ErrUnsupportedRegion
// for PAL images and ErrUnsupportedMapper for mapper ids outside {0,1,2,3}.
func NewCartridge(data []byte) (*Cartridge, error) {
	if !isValid(data) {
		return nil, fmt.Errorf("%w: not an iNES image", ErrMalformedHeader)
	}
	prgBanks := int(data[4])
	chrBanks := int(data[5])
	flags6 := data[6]
	flags7 := data[7]
	flags9 := data[9]

	if prgBanks == 0 {
		return nil, fmt.Errorf("%w: no PRG banks", ErrMalformedHeader)
	}
	if flags6&0x04 != 0 {
		return nil, ErrTrainerNotSupported
	}
	if flags9&0x01 != 0 {
		return nil, ErrUnsupportedRegion
	}
	mapperID := (flags7 & 0xF0) | (flags6 >> 4)
	if mapperID > 3 {
		return nil, fmt.Errorf("%w: mapper %d", ErrUnsupportedMapper, mapperID)
	}
	prgSize := prgBanks * prgBankSize
	chrSize := chrBanks * chrBankSize
	if len(data) < inesHeaderSizeBytes+prgSize+chrSize {
		return nil, fmt.Errorf("%w: declared %d bytes of bank data, buffer has %d",
			ErrMalformedHeader, prgSize+chrSize, len(data)-inesHeaderSizeBytes)
	}

	c := &Cartridge{
		prgBanks: prgBanks,
		chrBanks: chrBanks,
		mapperID: mapperID,
		sram:     make([]byte, sramSize),
		sum:      sha256.Sum224(data),
	}
	c.prgROM = make([]byte, prgSize)
	copy(c.prgROM, data[inesHeaderSizeBytes:])
	if chrBanks == 0 {
		// No CHR ROM means the board carries 8 KB of CHR RAM instead.
		c.chr = make([]byte, chrBankSize)
		c.chrRAM = true
	} else {
		c.chr = make([]byte, chrSize)
		copy(c.chr, data[inesHeaderSizeBytes+prgSize:])
	}
	if flags6&0x01 != 0 {
		c.mirror = MirrorVertical
	} else {
		c.mirror = MirrorHorizontal
	}
	return c, nil
}

// MapperID returns the composed iNES mapper number.
func (c *Cartridge) MapperID() byte {
	return c.mapperID
}

// PRGBanks returns the number of 16 KB PRG banks.
func (c *Cartridge) PRGBanks() int {
	return c.prgBanks
}

// CHRBanks returns the number of 8 KB CHR banks, 0 for CHR RAM boards.
func (c *Cartridge) CHRBanks() int {
	return c.chrBanks
}

// Fingerprint returns a digest of the raw image, used to reject snapshots
// taken against a different cartridge.
func (c *Cartridge) Fingerprint() []byte {
	return c.sum[:]
}

// reset clears the mutable backing stores. ROM contents are untouched.
func (c *Cartridge) reset() {
	for i := range c.sram {
		c.sram[i] = 0
	}
	if c.chrRAM {
		for i := range c.chr {
			c.chr[i] = 0
		}
	}
}

// CartridgeState carries the mutable cartridge memories. CHR is nil for
// CHR ROM boards, where the pattern tables cannot change.
type CartridgeState struct {
	SRAM []byte
	CHR  []byte
}

func (c *Cartridge) state() CartridgeState {
	s := CartridgeState{SRAM: make([]byte, len(c.sram))}
	copy(s.SRAM, c.sram)
	if c.chrRAM {
		s.CHR = make([]byte, len(c.chr))
		copy(s.CHR, c.chr)
	}
	return s
}

func (c *Cartridge) restore(s CartridgeState) {
	copy(c.sram, s.SRAM)
	if c.chrRAM && s.CHR != nil {
		copy(c.chr, s.CHR)
	}
}
