package nes

import (
	"image"
	"image/color"
)

// NES PPU generates 256x240 pixels.
const (
	width  = 256
	height = 240
)

// Dots per scanline and scanlines per frame for NTSC.
const (
	dotsPerLine    = 341
	linesPerFrame  = 262
	vblankLine     = 241
	preRenderLine  = 261
	lastVisibleRow = 239
)

// Palette colors borrowed from "RGB".
// Reference: https://emulation.gametechwiki.com/index.php/Famicom_color_palette
var colors = [64]color.RGBA{
	{0x6D, 0x6D, 0x6D, 255}, {0x00, 0x24, 0x92, 255}, {0x00, 0x00, 0xDB, 255}, {0x6D, 0x49, 0xDB, 255},
	{0x92, 0x00, 0x6D, 255}, {0xB6, 0x00, 0x6D, 255}, {0xB6, 0x24, 0x00, 255}, {0x92, 0x49, 0x00, 255},
	{0x6D, 0x49, 0x00, 255}, {0x24, 0x49, 0x00, 255}, {0x00, 0x6D, 0x24, 255}, {0x00, 0x92, 0x00, 255},
	{0x00, 0x49, 0x49, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xB6, 0xB6, 0xB6, 255}, {0x00, 0x6D, 0xDB, 255}, {0x00, 0x49, 0xFF, 255}, {0x92, 0x00, 0xFF, 255},
	{0xB6, 0x00, 0xFF, 255}, {0xFF, 0x00, 0x92, 255}, {0xFF, 0x00, 0x00, 255}, {0xDB, 0x6D, 0x00, 255},
	{0x92, 0x6D, 0x00, 255}, {0x24, 0x92, 0x00, 255}, {0x00, 0x92, 0x00, 255}, {0x00, 0xB6, 0x6D, 255},
	{0x00, 0x92, 0x92, 255}, {0x24, 0x24, 0x24, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xFF, 0xFF, 0xFF, 255}, {0x6D, 0xB6, 0xFF, 255}, {0x92, 0x92, 0xFF, 255}, {0xDB, 0x6D, 0xFF, 255},
	{0xFF, 0x00, 0xFF, 255}, {0xFF, 0x6D, 0xFF, 255}, {0xFF, 0x92, 0x00, 255}, {0xFF, 0xB6, 0x00, 255},
	{0xDB, 0xDB, 0x00, 255}, {0x6D, 0xDB, 0x00, 255}, {0x00, 0xFF, 0x00, 255}, {0x49, 0xFF, 0xDB, 255},
	{0x00, 0xFF, 0xFF, 255}, {0x49, 0x49, 0x49, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
	{0xFF, 0xFF, 0xFF, 255}, {0xB6, 0xDB, 0xFF, 255}, {0xDB, 0xB6, 0xFF, 255}, {0xFF, 0xB6, 0xFF, 255},
	{0xFF, 0x92, 0xFF, 255}, {0xFF, 0xB6, 0xB6, 255}, {0xFF, 0xDB, 0x92, 255}, {0xFF, 0xFF, 0x49, 255},
	{0xFF, 0xFF, 0x6D, 255}, {0xB6, 0xFF, 0x49, 255}, {0x92, 0xFF, 0x6D, 255}, {0x49, 0xFF, 0xDB, 255},
	{0x92, 0xDB, 0xFF, 255}, {0x92, 0x92, 0x92, 255}, {0x00, 0x00, 0x00, 255}, {0x00, 0x00, 0x00, 255},
}

// PPU stands for Picture Processing Unit, renders 256px x 240px image for a screen.
// PPU is 3x faster than CPU and rendering 1 frame requires 341x262=89342 cycles (each cycle writes a dot).
//
// This PPU implementation includes the PPU registers as well.
// References:
//   https://www.nesdev.org/wiki/PPU
//   https://www.nesdev.org/wiki/PPU_registers
//   https://www.nesdev.org/wiki/PPU_rendering
type PPU struct {
	bus *PPUBus
	cpu *CPU // for NMI at the vblank boundary

	// Double buffered output. renderPixel draws into back; the buffers are
	// swapped when vblank begins so front always holds a complete frame.
	front *image.RGBA
	back  *image.RGBA

	// PPU has an internal RAM for palette data.
	paletteRAM [32]byte
	// Object Attribute Memory, 4 bytes per sprite.
	oamData [256]byte

	// cycle, scanline indicate which dot is processing. frame counts
	// completed frames.
	cycle    int
	scanline int
	frame    uint64

	// register keeps the last value driven on the CPU-facing data lines,
	// PPUSTATUS reads return its low 5 bits.
	register byte

	// NMI bookkeeping.
	// Reference: https://www.nesdev.org/wiki/NMI
	nmiOccurred bool // vblank flag, PPUSTATUS bit 7
	nmiOutput   bool // PPUCTRL bit 7
	nmiPrevious bool
	nmiDelay    byte

	// Internal scroll registers.
	// Reference: https://www.nesdev.org/wiki/PPU_scrolling
	v uint16 // current VRAM address (15bit)
	t uint16 // temporary VRAM address (15bit)
	x byte   // fine X scroll (3bit)
	w bool   // write toggle for PPUSCROLL/PPUADDR
	f byte   // even/odd frame flag

	// Background fetch pipeline, a tile row at a time.
	nameTableByte      byte
	attributeTableByte byte
	lowTileByte        byte
	highTileByte       byte
	tileData           uint64

	// Sprites selected for the current scanline.
	spriteCount      int
	spritePatterns   [8]uint32
	spritePositions  [8]byte
	spritePriorities [8]byte
	spriteIndexes    [8]byte

	// PPUCTRL $2000
	flagNameTable       byte // base nametable, 0: $2000; 1: $2400; 2: $2800; 3: $2C00
	flagIncrement       byte // 0: add 1; 1: add 32
	flagSpriteTable     byte // 0: $0000; 1: $1000; ignored in 8x16 mode
	flagBackgroundTable byte // 0: $0000; 1: $1000
	flagSpriteSize      byte // 0: 8x8; 1: 8x16
	flagMasterSlave     byte // 0: read EXT; 1: write EXT

	// PPUMASK $2001
	flagGrayscale      byte
	flagShowLeftBack   byte
	flagShowLeftSprite byte
	flagShowBack       byte
	flagShowSprite     byte

	// PPUSTATUS $2002
	flagSpriteOverflow byte
	flagSpriteZeroHit  byte

	// OAMADDR $2003
	oamAddress byte
	// buffer for PPUDATA $2007 reads below the palette range
	buffered byte
}

// NewPPU creates a PPU.
func NewPPU(bus *PPUBus) *PPU {
	p := &PPU{
		bus:   bus,
		front: image.NewRGBA(image.Rect(0, 0, width, height)),
		back:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	p.Reset()
	return p
}

// connect attaches the CPU that receives NMIs. Set once by the console,
// after both chips exist.
func (p *PPU) connect(cpu *CPU) {
	p.cpu = cpu
}

// Reset restores the deterministic power-on state.
func (p *PPU) Reset() {
	p.cycle = 340
	p.scanline = 240
	p.frame = 0
	p.register = 0
	p.nmiOccurred = false
	p.nmiOutput = false
	p.nmiPrevious = false
	p.nmiDelay = 0
	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.f = 0
	p.nameTableByte = 0
	p.attributeTableByte = 0
	p.lowTileByte = 0
	p.highTileByte = 0
	p.tileData = 0
	p.spriteCount = 0
	p.writeControl(0)
	p.writeMask(0)
	p.writeOAMAddress(0)
	p.flagSpriteOverflow = 0
	p.flagSpriteZeroHit = 0
	p.buffered = 0
	for i := range p.paletteRAM {
		p.paletteRAM[i] = 0
	}
	for i := range p.oamData {
		p.oamData[i] = 0
	}
	black := color.RGBA{0, 0, 0, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.front.SetRGBA(x, y, black)
			p.back.SetRGBA(x, y, black)
		}
	}
}

// Frame returns the number of completed frames since power-on or the most
// recent restore.
func (p *PPU) Frame() uint64 {
	return p.frame
}

// FrameBuffer returns the image completed by the most recent frame.
func (p *PPU) FrameBuffer() *image.RGBA {
	return p.front
}

// read routes a PPU-space address: the palette lives inside the PPU, the
// rest goes out on the bus.
func (p *PPU) read(address uint16) byte {
	address %= 0x4000
	if address >= 0x3F00 {
		return p.readPalette(address % 32)
	}
	return p.bus.read(address)
}

func (p *PPU) write(address uint16, data byte) {
	address %= 0x4000
	if address >= 0x3F00 {
		p.writePalette(address%32, data)
		return
	}
	p.bus.write(address, data)
}

// readPalette folds the sprite backdrop mirrors: $3F10/$3F14/$3F18/$3F1C
// are aliases of $3F00/$3F04/$3F08/$3F0C.
func (p *PPU) readPalette(address uint16) byte {
	if address >= 16 && address%4 == 0 {
		address -= 16
	}
	return p.paletteRAM[address]
}

func (p *PPU) writePalette(address uint16, data byte) {
	if address >= 16 && address%4 == 0 {
		address -= 16
	}
	p.paletteRAM[address] = data
}

// readRegister handles CPU reads of $2000-$2007.
func (p *PPU) readRegister(address uint16) byte {
	switch address {
	case 0x2002:
		return p.readStatus()
	case 0x2004:
		return p.readOAMData()
	case 0x2007:
		return p.readData()
	}
	// Write-only registers read back the latched bus value.
	return p.register
}

// writeRegister handles CPU writes of $2000-$2007.
func (p *PPU) writeRegister(address uint16, data byte) {
	p.register = data
	switch address {
	case 0x2000:
		p.writeControl(data)
	case 0x2001:
		p.writeMask(data)
	case 0x2003:
		p.writeOAMAddress(data)
	case 0x2004:
		p.writeOAMData(data)
	case 0x2005:
		p.writeScroll(data)
	case 0x2006:
		p.writeAddress(data)
	case 0x2007:
		p.writeData(data)
	}
}

// $2000: PPUCTRL
func (p *PPU) writeControl(data byte) {
	p.flagNameTable = data & 3
	p.flagIncrement = (data >> 2) & 1
	p.flagSpriteTable = (data >> 3) & 1
	p.flagBackgroundTable = (data >> 4) & 1
	p.flagSpriteSize = (data >> 5) & 1
	p.flagMasterSlave = (data >> 6) & 1
	p.nmiOutput = (data>>7)&1 == 1
	p.nmiChange()
	// t: ....BA.. ........ = d: ......BA
	p.t = (p.t & 0xF3FF) | (uint16(data&0x03) << 10)
}

// $2001: PPUMASK
func (p *PPU) writeMask(data byte) {
	p.flagGrayscale = data & 1
	p.flagShowLeftBack = (data >> 1) & 1
	p.flagShowLeftSprite = (data >> 2) & 1
	p.flagShowBack = (data >> 3) & 1
	p.flagShowSprite = (data >> 4) & 1
}

// $2002: PPUSTATUS (read)
// Reading clears the vblank flag and the address latch; the low 5 bits
// are whatever was last on the data lines.
func (p *PPU) readStatus() byte {
	result := p.register & 0x1F
	result |= p.flagSpriteOverflow << 5
	result |= p.flagSpriteZeroHit << 6
	if p.nmiOccurred {
		result |= 1 << 7
	}
	p.nmiOccurred = false
	p.nmiChange()
	p.w = false
	return result
}

// $2003: OAMADDR
func (p *PPU) writeOAMAddress(data byte) {
	p.oamAddress = data
}

// $2004: OAMDATA (read)
// The attribute byte of each sprite has 3 unimplemented bits.
func (p *PPU) readOAMData() byte {
	data := p.oamData[p.oamAddress]
	if p.oamAddress&0x03 == 0x02 {
		data &= 0xE3
	}
	return data
}

// $2004: OAMDATA (write)
func (p *PPU) writeOAMData(data byte) {
	p.oamData[p.oamAddress] = data
	p.oamAddress++
}

// $2005: PPUSCROLL, written twice per full scroll update.
func (p *PPU) writeScroll(data byte) {
	if !p.w {
		// t: ....... ...ABCDE <- d: ABCDE...
		// x:              FGH <- d: .....FGH
		p.t = (p.t & 0xFFE0) | (uint16(data) >> 3)
		p.x = data & 0x07
		p.w = true
	} else {
		// t: .CBA..HG FED..... <- d: HGFEDCBA
		p.t = (p.t & 0x8FFF) | ((uint16(data) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(data) & 0xF8) << 2)
		p.w = false
	}
}

// $2006: PPUADDR, written twice, high byte first.
func (p *PPU) writeAddress(data byte) {
	if !p.w {
		// t: ..FEDCBA ........ <- d: ..FEDCBA
		// t: .X...... ........ <- 0
		p.t = (p.t & 0x80FF) | (uint16(data&0x3F) << 8)
		p.w = true
	} else {
		// t: ....... ABCDEFGH <- d: ABCDEFGH
		// v: <...all bits...> <- t
		p.t = (p.t & 0xFF00) | uint16(data)
		p.v = p.t
		p.w = false
	}
}

// $2007: PPUDATA (read)
// Reads below the palette go through a one-read-delayed buffer. Palette
// reads are immediate but refill the buffer from the nametable underneath.
func (p *PPU) readData() byte {
	data := p.read(p.v)
	if p.v%0x4000 < 0x3F00 {
		buffered := p.buffered
		p.buffered = data
		data = buffered
	} else {
		p.buffered = p.read(p.v - 0x1000)
	}
	if p.flagIncrement == 0 {
		p.v++
	} else {
		p.v += 32
	}
	return data
}

// $2007: PPUDATA (write)
func (p *PPU) writeData(data byte) {
	p.write(p.v, data)
	if p.flagIncrement == 0 {
		p.v++
	} else {
		p.v += 32
	}
}

// writeOAMDMA copies a full page into OAM, starting at the current
// OAMADDR and wrapping. The CPU is stalled by the caller for the copy.
func (p *PPU) writeOAMDMA(data [256]byte) {
	for i := 0; i < 256; i++ {
		p.oamData[p.oamAddress] = data[i]
		p.oamAddress++
	}
}

func (p *PPU) nmiChange() {
	nmi := p.nmiOutput && p.nmiOccurred
	if nmi && !p.nmiPrevious {
		// The NMI edge reaches the CPU a few dots later.
		p.nmiDelay = 15
	}
	p.nmiPrevious = nmi
}

func (p *PPU) setVerticalBlank() {
	p.front, p.back = p.back, p.front
	p.nmiOccurred = true
	p.nmiChange()
}

func (p *PPU) clearVerticalBlank() {
	p.nmiOccurred = false
	p.nmiChange()
}

// tick advances the dot clock by one, handling the NMI delay line and the
// odd-frame skip of the idle dot on the pre-render line.
func (p *PPU) tick() {
	if p.nmiDelay > 0 {
		p.nmiDelay--
		if p.nmiDelay == 0 && p.nmiOutput && p.nmiOccurred {
			p.cpu.TriggerNMI()
		}
	}

	if p.flagShowBack != 0 || p.flagShowSprite != 0 {
		if p.f == 1 && p.scanline == preRenderLine && p.cycle == 339 {
			p.cycle = 0
			p.scanline = 0
			p.frame++
			p.f ^= 1
			return
		}
	}
	p.cycle++
	if p.cycle > dotsPerLine-1 {
		p.cycle = 0
		p.scanline++
		if p.scanline > preRenderLine {
			p.scanline = 0
			p.frame++
			p.f ^= 1
		}
	}
}

// Step emulates a single PPU cycle, one dot of the 341x262 raster.
// Reference: https://www.nesdev.org/wiki/PPU_rendering (frame timing diagram)
func (p *PPU) Step() {
	p.tick()

	renderingEnabled := p.flagShowBack != 0 || p.flagShowSprite != 0
	visibleLine := p.scanline >= 0 && p.scanline <= lastVisibleRow
	preLine := p.scanline == preRenderLine
	renderLine := visibleLine || preLine
	visibleCycle := p.cycle >= 1 && p.cycle <= 256
	preFetchCycle := p.cycle >= 321 && p.cycle <= 336
	fetchCycle := preFetchCycle || visibleCycle

	if renderingEnabled {
		if visibleLine && visibleCycle {
			p.renderPixel()
		}
		if renderLine && fetchCycle {
			p.tileData <<= 4
			switch p.cycle % 8 {
			case 1:
				p.fetchNameTableByte()
			case 3:
				p.fetchAttributeTableByte()
			case 5:
				p.fetchLowTileByte()
			case 7:
				p.fetchHighTileByte()
			case 0:
				p.storeTileData()
			}
		}
		if preLine && p.cycle >= 280 && p.cycle <= 304 {
			p.copyY()
		}
		if renderLine {
			if fetchCycle && p.cycle%8 == 0 {
				p.incrementX()
			}
			if p.cycle == 256 {
				p.incrementY()
			}
			if p.cycle == 257 {
				p.copyX()
			}
		}
		if p.cycle == 257 {
			if visibleLine {
				p.evaluateSprites()
			} else {
				p.spriteCount = 0
			}
		}
	}

	if p.scanline == vblankLine && p.cycle == 1 {
		p.setVerticalBlank()
	}
	if preLine && p.cycle == 1 {
		p.clearVerticalBlank()
		p.flagSpriteZeroHit = 0
		p.flagSpriteOverflow = 0
	}
}

// renderPixel combines the background and sprite pixels for the current
// dot and writes the resulting color into the back buffer.
func (p *PPU) renderPixel() {
	x := p.cycle - 1
	y := p.scanline

	background := p.backgroundPixel()
	i, sprite := p.spritePixel()

	if x < 8 && p.flagShowLeftBack == 0 {
		background = 0
	}
	if x < 8 && p.flagShowLeftSprite == 0 {
		sprite = 0
	}

	b := background%4 != 0
	s := sprite%4 != 0
	var paletteIndex byte
	switch {
	case !b && !s:
		paletteIndex = 0
	case !b && s:
		paletteIndex = sprite | 0x10
	case b && !s:
		paletteIndex = background
	default:
		// Opaque sprite 0 over an opaque background sets the zero hit flag,
		// except at x=255.
		if p.spriteIndexes[i] == 0 && x < 255 {
			p.flagSpriteZeroHit = 1
		}
		if p.spritePriorities[i] == 0 {
			paletteIndex = sprite | 0x10
		} else {
			paletteIndex = background
		}
	}

	c := colors[p.readPalette(uint16(paletteIndex))%64]
	p.back.SetRGBA(x, y, c)
}

func (p *PPU) backgroundPixel() byte {
	if p.flagShowBack == 0 {
		return 0
	}
	data := uint32(p.tileData>>32) >> ((7 - p.x) * 4)
	return byte(data & 0x0F)
}

func (p *PPU) spritePixel() (byte, byte) {
	if p.flagShowSprite == 0 {
		return 0, 0
	}
	for i := 0; i < p.spriteCount; i++ {
		offset := p.cycle - 1 - int(p.spritePositions[i])
		if offset < 0 || offset > 7 {
			continue
		}
		offset = 7 - offset
		paletteIndex := byte(p.spritePatterns[i] >> byte(offset*4) & 0x0F)
		if paletteIndex%4 == 0 {
			continue
		}
		return byte(i), paletteIndex
	}
	return 0, 0
}

// evaluateSprites scans all 64 OAM entries for sprites on the next line.
// Only the first 8 are kept, any more sets the overflow flag.
func (p *PPU) evaluateSprites() {
	var h int
	if p.flagSpriteSize == 0 {
		h = 8
	} else {
		h = 16
	}
	count := 0
	for i := 0; i < 64; i++ {
		y := p.oamData[i*4+0]
		a := p.oamData[i*4+2]
		x := p.oamData[i*4+3]
		row := p.scanline - int(y)
		if row < 0 || row >= h {
			continue
		}
		if count < 8 {
			p.spritePatterns[count] = p.fetchSpritePattern(i, row)
			p.spritePositions[count] = x
			p.spritePriorities[count] = (a >> 5) & 1
			p.spriteIndexes[count] = byte(i)
		}
		count++
	}
	if count > 8 {
		count = 8
		p.flagSpriteOverflow = 1
	}
	p.spriteCount = count
}

// fetchSpritePattern reads one row of sprite i from the pattern table and
// packs it as 8 4-bit palette indexes, handling both flips and 8x16 tiles.
func (p *PPU) fetchSpritePattern(i, row int) uint32 {
	tile := p.oamData[i*4+1]
	attribute := p.oamData[i*4+2]
	var address uint16
	if p.flagSpriteSize == 0 {
		if attribute&0x80 == 0x80 {
			row = 7 - row
		}
		address = 0x1000*uint16(p.flagSpriteTable) + uint16(tile)*16 + uint16(row)
	} else {
		if attribute&0x80 == 0x80 {
			row = 15 - row
		}
		table := tile & 1
		tile &= 0xFE
		if row > 7 {
			tile++
			row -= 8
		}
		address = 0x1000*uint16(table) + uint16(tile)*16 + uint16(row)
	}
	lowTileByte := p.read(address)
	highTileByte := p.read(address + 8)
	high := (attribute & 3) << 2
	var data uint32
	for j := 0; j < 8; j++ {
		var p1, p2 byte
		if attribute&0x40 == 0x40 {
			p1 = lowTileByte & 1
			p2 = (highTileByte & 1) << 1
			lowTileByte >>= 1
			highTileByte >>= 1
		} else {
			p1 = (lowTileByte & 0x80) >> 7
			p2 = (highTileByte & 0x80) >> 6
			lowTileByte <<= 1
			highTileByte <<= 1
		}
		data <<= 4
		data |= uint32(high | p1 | p2)
	}
	return data
}

func (p *PPU) fetchNameTableByte() {
	address := 0x2000 | (p.v & 0x0FFF)
	p.nameTableByte = p.read(address)
}

func (p *PPU) fetchAttributeTableByte() {
	v := p.v
	address := 0x23C0 | (v & 0x0C00) | ((v >> 4) & 0x38) | ((v >> 2) & 0x07)
	shift := ((v >> 4) & 4) | (v & 2)
	p.attributeTableByte = ((p.read(address) >> shift) & 3) << 2
}

func (p *PPU) fetchLowTileByte() {
	fineY := (p.v >> 12) & 7
	address := 0x1000*uint16(p.flagBackgroundTable) + uint16(p.nameTableByte)*16 + fineY
	p.lowTileByte = p.read(address)
}

func (p *PPU) fetchHighTileByte() {
	fineY := (p.v >> 12) & 7
	address := 0x1000*uint16(p.flagBackgroundTable) + uint16(p.nameTableByte)*16 + fineY
	p.highTileByte = p.read(address + 8)
}

// storeTileData packs the fetched tile row into the low half of the shift
// register while the high half is being consumed.
func (p *PPU) storeTileData() {
	var data uint32
	for i := 0; i < 8; i++ {
		a := p.attributeTableByte
		p1 := (p.lowTileByte & 0x80) >> 7
		p2 := (p.highTileByte & 0x80) >> 6
		p.lowTileByte <<= 1
		p.highTileByte <<= 1
		data <<= 4
		data |= uint32(a | p1 | p2)
	}
	p.tileData |= uint64(data)
}

// copyX copies the horizontal bits from t to v at the end of each line.
// v: ....A.. ...BCDEF <- t: ....A.. ...BCDEF
func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

// copyY copies the vertical bits from t to v during the pre-render line.
// v: GHIA.BC DEF..... <- t: GHIA.BC DEF.....
func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}

func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		// coarse X wraps into the neighboring nametable
		p.v &= 0xFFE0
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
	} else {
		p.v &= 0x8FFF
		y := (p.v & 0x03E0) >> 5
		switch y {
		case 29:
			y = 0
			// switch vertical nametable
			p.v ^= 0x0800
		case 31:
			// row 30 and 31 are out of the nametable, wrap without switching
			y = 0
		default:
			y++
		}
		p.v = (p.v & 0xFC1F) | (y << 5)
	}
}

// PPUState is the serializable PPU state including internal memories and
// both framebuffers.
type PPUState struct {
	Cycle    int
	Scanline int
	Frame    uint64
	Register byte

	NMIOccurred bool
	NMIOutput   bool
	NMIPrevious bool
	NMIDelay    byte

	V uint16
	T uint16
	X byte
	W bool
	F byte

	NameTableByte      byte
	AttributeTableByte byte
	LowTileByte        byte
	HighTileByte       byte
	TileData           uint64

	SpriteCount      int
	SpritePatterns   [8]uint32
	SpritePositions  [8]byte
	SpritePriorities [8]byte
	SpriteIndexes    [8]byte

	Control byte
	Mask    byte

	SpriteOverflow byte
	SpriteZeroHit  byte

	OAMAddress byte
	Buffered   byte

	PaletteRAM [32]byte
	OAMData    [256]byte
	Front      []byte
	Back       []byte
}

// encodeControl reassembles the PPUCTRL byte from its decoded flags.
func (p *PPU) encodeControl() byte {
	result := p.flagNameTable
	result |= p.flagIncrement << 2
	result |= p.flagSpriteTable << 3
	result |= p.flagBackgroundTable << 4
	result |= p.flagSpriteSize << 5
	result |= p.flagMasterSlave << 6
	if p.nmiOutput {
		result |= 1 << 7
	}
	return result
}

// encodeMask reassembles the PPUMASK byte from its decoded flags.
func (p *PPU) encodeMask() byte {
	result := p.flagGrayscale
	result |= p.flagShowLeftBack << 1
	result |= p.flagShowLeftSprite << 2
	result |= p.flagShowBack << 3
	result |= p.flagShowSprite << 4
	return result
}

func (p *PPU) state() PPUState {
	front := make([]byte, len(p.front.Pix))
	copy(front, p.front.Pix)
	back := make([]byte, len(p.back.Pix))
	copy(back, p.back.Pix)
	return PPUState{
		Cycle:              p.cycle,
		Scanline:           p.scanline,
		Frame:              p.frame,
		Register:           p.register,
		NMIOccurred:        p.nmiOccurred,
		NMIOutput:          p.nmiOutput,
		NMIPrevious:        p.nmiPrevious,
		NMIDelay:           p.nmiDelay,
		V:                  p.v,
		T:                  p.t,
		X:                  p.x,
		W:                  p.w,
		F:                  p.f,
		NameTableByte:      p.nameTableByte,
		AttributeTableByte: p.attributeTableByte,
		LowTileByte:        p.lowTileByte,
		HighTileByte:       p.highTileByte,
		TileData:           p.tileData,
		SpriteCount:        p.spriteCount,
		SpritePatterns:     p.spritePatterns,
		SpritePositions:    p.spritePositions,
		SpritePriorities:   p.spritePriorities,
		SpriteIndexes:      p.spriteIndexes,
		Control:            p.encodeControl(),
		Mask:               p.encodeMask(),
		SpriteOverflow:     p.flagSpriteOverflow,
		SpriteZeroHit:      p.flagSpriteZeroHit,
		OAMAddress:         p.oamAddress,
		Buffered:           p.buffered,
		PaletteRAM:         p.paletteRAM,
		OAMData:            p.oamData,
		Front:              front,
		Back:               back,
	}
}

func (p *PPU) restore(s PPUState) {
	p.cycle = s.Cycle
	p.scanline = s.Scanline
	p.frame = s.Frame
	p.register = s.Register
	p.nmiOccurred = s.NMIOccurred
	p.nmiPrevious = s.NMIPrevious
	p.nmiDelay = s.NMIDelay
	p.v = s.V
	p.t = s.T
	p.x = s.X
	p.w = s.W
	p.f = s.F
	p.nameTableByte = s.NameTableByte
	p.attributeTableByte = s.AttributeTableByte
	p.lowTileByte = s.LowTileByte
	p.highTileByte = s.HighTileByte
	p.tileData = s.TileData
	p.spriteCount = s.SpriteCount
	p.spritePatterns = s.SpritePatterns
	p.spritePositions = s.SpritePositions
	p.spritePriorities = s.SpritePriorities
	p.spriteIndexes = s.SpriteIndexes
	p.flagNameTable = s.Control & 3
	p.flagIncrement = (s.Control >> 2) & 1
	p.flagSpriteTable = (s.Control >> 3) & 1
	p.flagBackgroundTable = (s.Control >> 4) & 1
	p.flagSpriteSize = (s.Control >> 5) & 1
	p.flagMasterSlave = (s.Control >> 6) & 1
	p.nmiOutput = s.NMIOutput
	p.flagGrayscale = s.Mask & 1
	p.flagShowLeftBack = (s.Mask >> 1) & 1
	p.flagShowLeftSprite = (s.Mask >> 2) & 1
	p.flagShowBack = (s.Mask >> 3) & 1
	p.flagShowSprite = (s.Mask >> 4) & 1
	p.flagSpriteOverflow = s.SpriteOverflow
	p.flagSpriteZeroHit = s.SpriteZeroHit
	p.oamAddress = s.OAMAddress
	p.buffered = s.Buffered
	p.paletteRAM = s.PaletteRAM
	p.oamData = s.OAMData
	copy(p.front.Pix, s.Front)
	copy(p.back.Pix, s.Back)
}
