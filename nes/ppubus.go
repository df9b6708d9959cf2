package nes

// PPUBus routes the picture processor's 14-bit address space.
//
// Address        Size	  Description
// -------------------------------------
// $0000-$0FFF	  $1000	  Pattern table 0
// $1000-$1FFF	  $1000	  Pattern table 1
// $2000-$23FF	  $0400	  Nametable 0
// $2400-$27FF	  $0400	  Nametable 1
// $2800-$2BFF	  $0400	  Nametable 2
// $2C00-$2FFF	  $0400	  Nametable 3
// $3000-$3EFF	  $0F00	  Mirrors of $2000-$2EFF
// $3F00-$3F1F	  $0020	  Palette RAM indexes (held by the PPU itself)
// $3F20-$3FFF	  $00E0	  Mirrors of $3F00-$3F1F
// Reference: https://www.nesdev.org/wiki/PPU_memory_map
type PPUBus struct {
	vram   *RAM
	mapper Mapper
}

// NewPPUBus creates a new Bus for the PPU.
func NewPPUBus(vram *RAM, mapper Mapper) *PPUBus {
	return &PPUBus{vram: vram, mapper: mapper}
}

var mirrorLookup = [...][4]uint16{
	MirrorHorizontal: {0, 0, 1, 1},
	MirrorVertical:   {0, 1, 0, 1},
	MirrorSingle0:    {0, 0, 0, 0},
	MirrorSingle1:    {1, 1, 1, 1},
	MirrorFour:       {0, 1, 2, 3},
}

// mirrorAddress folds a $2000-$3EFF nametable address into the 2 KB VRAM
// under the mapper's current mirroring mode.
func (b *PPUBus) mirrorAddress(address uint16) uint16 {
	address = (address - 0x2000) % 0x1000
	table := address / 0x0400
	offset := address % 0x0400
	return mirrorLookup[b.mapper.Mirroring()][table]*0x0400 + offset
}

// read reads data. Palette reads never reach the bus, the PPU resolves
// those internally.
func (b *PPUBus) read(address uint16) byte {
	address %= 0x4000
	switch {
	case address < 0x2000:
		return b.mapper.ReadFromPPU(address)
	default:
		return b.vram.read(b.mirrorAddress(address) % 2048)
	}
}

// write writes data. Pattern-table writes go to the mapper, which accepts
// them only for CHR RAM boards.
func (b *PPUBus) write(address uint16, data byte) {
	address %= 0x4000
	switch {
	case address < 0x2000:
		b.mapper.WriteFromPPU(address, data)
	default:
		b.vram.write(b.mirrorAddress(address)%2048, data)
	}
}
