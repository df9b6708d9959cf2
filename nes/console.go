package nes

import (
	"fmt"
	"image"
)

// BackupSlots is the number of indexed snapshot slots per console. Valid
// slot indexes are 0 through BackupSlots-1; the default slot used by
// BackupDefault and RestoreDefault is a separate cell.
const BackupSlots = 8

// Console wires a cartridge, the two buses, the CPU, the PPU and two
// controllers into a frame-steppable machine.
type Console struct {
	CPU *CPU
	PPU *PPU

	cartridge   *Cartridge
	mapper      Mapper
	wram        *RAM
	vram        *RAM
	controller1 *Controller
	controller2 *Controller

	// Power-on mapper registers, captured at construction so Reset can
	// rewind the mapper without rebuilding it.
	powerOnMapper MapperState

	slots       [BackupSlots][]byte
	defaultSlot []byte
}

// NewConsole builds a console around the given iNES image. The image is
// validated the same way NewCartridge validates it.
func NewConsole(rom []byte) (*Console, error) {
	cartridge, err := NewCartridge(rom)
	if err != nil {
		return nil, err
	}
	mapper, err := NewMapper(cartridge)
	if err != nil {
		return nil, err
	}
	vram := NewRAM()
	ppuBus := NewPPUBus(vram, mapper)
	ppu := NewPPU(ppuBus)
	wram := NewRAM()
	controller1 := NewController()
	controller2 := NewController()
	cpuBus := NewCPUBus(wram, ppu, mapper, controller1, controller2)
	cpu := NewCPU(cpuBus)
	ppu.connect(cpu)
	return &Console{
		CPU:           cpu,
		PPU:           ppu,
		cartridge:     cartridge,
		mapper:        mapper,
		wram:          wram,
		vram:          vram,
		controller1:   controller1,
		controller2:   controller2,
		powerOnMapper: mapper.state(),
	}, nil
}

// Reset restores the deterministic power-on state of every component.
// Backup slots survive a reset.
func (c *Console) Reset() {
	c.wram.reset()
	c.vram.reset()
	c.cartridge.reset()
	c.mapper.restore(c.powerOnMapper)
	c.controller1.restore(ControllerState{})
	c.controller2.restore(ControllerState{})
	c.PPU.Reset()
	c.CPU.Reset()
}

// FrameAdvance latches the given button states into the two controllers
// and runs the machine until exactly one frame has been produced, keeping
// the PPU 3 dots ahead per CPU cycle. A fatal CPU error, an undocumented
// opcode, stops the frame and is returned.
func (c *Console) FrameAdvance(buttons1, buttons2 byte) error {
	c.controller1.Set(buttons1)
	c.controller2.Set(buttons2)
	frame := c.PPU.Frame()
	for c.PPU.Frame() == frame {
		cycles, err := c.CPU.Step()
		if err != nil {
			return err
		}
		for i := 0; i < cycles*3; i++ {
			c.PPU.Step()
		}
	}
	return nil
}

// FrameBuffer returns the 256x240 RGBA image of the most recently
// completed frame. The returned image is reused across frames.
func (c *Console) FrameBuffer() *image.RGBA {
	return c.PPU.FrameBuffer()
}

// RAM exposes the 2 KB work RAM as a live, mutable view. Writes through
// the slice are visible to the running program.
func (c *Console) RAM() []byte {
	return c.wram.view()
}

// Controller returns the controller plugged into port 1 or 2.
func (c *Console) Controller(port int) *Controller {
	if port == 2 {
		return c.controller2
	}
	return c.controller1
}

// Backup snapshots the complete machine state into the given slot,
// overwriting any previous snapshot there.
func (c *Console) Backup(slot int) error {
	if slot < 0 || slot >= BackupSlots {
		return fmt.Errorf("%w: slot %d", ErrSlotOutOfRange, slot)
	}
	data, err := c.DumpState()
	if err != nil {
		return err
	}
	c.slots[slot] = data
	return nil
}

// Restore rewinds the machine to the snapshot held in the given slot.
func (c *Console) Restore(slot int) error {
	if slot < 0 || slot >= BackupSlots {
		return fmt.Errorf("%w: slot %d", ErrSlotOutOfRange, slot)
	}
	if c.slots[slot] == nil {
		return fmt.Errorf("%w: slot %d", ErrNoSnapshotAvailable, slot)
	}
	return c.LoadState(c.slots[slot])
}

// BackupDefault snapshots into the default slot.
func (c *Console) BackupDefault() error {
	data, err := c.DumpState()
	if err != nil {
		return err
	}
	c.defaultSlot = data
	return nil
}

// RestoreDefault rewinds to the default slot snapshot.
func (c *Console) RestoreDefault() error {
	if c.defaultSlot == nil {
		return fmt.Errorf("%w: default slot", ErrNoSnapshotAvailable)
	}
	return c.LoadState(c.defaultSlot)
}
