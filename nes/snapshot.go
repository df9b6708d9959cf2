package nes

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion is bumped whenever the snapshot layout changes. Blobs
// carrying any other version are rejected.
const snapshotVersion = 1

// snapshot is the serialized form of a complete machine state. The blob is
// msgpack so it stays readable across builds without generated code.
type snapshot struct {
	Version     int
	Fingerprint []byte
	CPU         CPUState
	PPU         PPUState
	Mapper      MapperState
	Cartridge   CartridgeState
	WRAM        []byte
	VRAM        []byte
	Controller1 ControllerState
	Controller2 ControllerState
}

// DumpState serializes the complete machine state, cartridge fingerprint
// included, into an opaque blob that LoadState accepts.
func (c *Console) DumpState() ([]byte, error) {
	s := snapshot{
		Version:     snapshotVersion,
		Fingerprint: c.cartridge.Fingerprint(),
		CPU:         c.CPU.state(),
		PPU:         c.PPU.state(),
		Mapper:      c.mapper.state(),
		Cartridge:   c.cartridge.state(),
		WRAM:        append([]byte(nil), c.wram.view()...),
		VRAM:        append([]byte(nil), c.vram.view()...),
		Controller1: c.controller1.state(),
		Controller2: c.controller2.state(),
	}
	data, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// LoadState rewinds the machine to a blob produced by DumpState. The blob
// is fully validated before any component is touched, so a failed load
// leaves the machine as it was. Blobs from another cartridge, another
// snapshot version or with damaged contents fail with ErrInvalidSnapshot.
func (c *Console) LoadState(data []byte) error {
	var s snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrInvalidSnapshot, s.Version, snapshotVersion)
	}
	if !bytes.Equal(s.Fingerprint, c.cartridge.Fingerprint()) {
		return fmt.Errorf("%w: snapshot belongs to a different cartridge", ErrInvalidSnapshot)
	}
	if len(s.WRAM) != len(c.wram.view()) {
		return fmt.Errorf("%w: work RAM is %d bytes, want %d", ErrInvalidSnapshot, len(s.WRAM), len(c.wram.view()))
	}
	if len(s.VRAM) != len(c.vram.view()) {
		return fmt.Errorf("%w: video RAM is %d bytes, want %d", ErrInvalidSnapshot, len(s.VRAM), len(c.vram.view()))
	}
	if len(s.Cartridge.SRAM) != sramSize {
		return fmt.Errorf("%w: SRAM is %d bytes, want %d", ErrInvalidSnapshot, len(s.Cartridge.SRAM), sramSize)
	}
	if n := width * height * 4; len(s.PPU.Front) != n || len(s.PPU.Back) != n {
		return fmt.Errorf("%w: framebuffer size mismatch", ErrInvalidSnapshot)
	}
	copy(c.wram.view(), s.WRAM)
	copy(c.vram.view(), s.VRAM)
	c.cartridge.restore(s.Cartridge)
	c.mapper.restore(s.Mapper)
	c.controller1.restore(s.Controller1)
	c.controller2.restore(s.Controller2)
	c.CPU.restore(s.CPU)
	c.PPU.restore(s.PPU)
	return nil
}
