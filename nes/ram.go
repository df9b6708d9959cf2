package nes

// RAM is the console's 2 KB work RAM. The PPU's nametable memory reuses the
// same type.
type RAM struct {
	data []byte
}

// NewRAM creates a 2 KB RAM.
func NewRAM() *RAM {
	return &RAM{data: make([]byte, 2048)}
}

// read reads data.
func (r *RAM) read(address uint16) byte {
	return r.data[address]
}

// write writes data.
func (r *RAM) write(address uint16, x byte) {
	r.data[address] = x
}

// view exposes the backing store. Callers may mutate it; the emulated
// machine observes the mutation on the next access.
func (r *RAM) view() []byte {
	return r.data
}

// reset clears the RAM to the power-on pattern.
func (r *RAM) reset() {
	for i := range r.data {
		r.data[i] = 0
	}
}
