package nes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderingROM builds a program that enables background rendering and then
// spins, so frames exercise the full fetch pipeline.
func renderingROM() []byte {
	rom := buildROM(romConfig{prgBanks: 1, chrBanks: 1})
	prg := prgSlice(rom)
	code := []byte{
		0xA9, 0x1E, // LDA #$1E  show background and sprites
		0x8D, 0x01, 0x20, // STA $2001
		0x4C, 0x05, 0x80, // JMP $8005
	}
	copy(prg, code)
	prg[0x3FFC] = 0x00
	prg[0x3FFD] = 0x80
	// Give the pattern tables some texture.
	chr := chrSlice(rom)
	for i := range chr {
		chr[i] = byte(i * 7)
	}
	return rom
}

func TestNewConsoleRejectsBadROM(t *testing.T) {
	_, err := NewConsole([]byte("not a rom"))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestFrameAdvance(t *testing.T) {
	console := newTestConsole(t, buildProgramROM(spin...))
	before := console.PPU.Frame()
	require.NoError(t, console.FrameAdvance(0, 0))
	assert.Equal(t, before+1, console.PPU.Frame())

	fb := console.FrameBuffer()
	assert.Equal(t, 256, fb.Rect.Dx())
	assert.Equal(t, 240, fb.Rect.Dy())
}

func TestFrameAdvanceStopsOnIllegalOpcode(t *testing.T) {
	console := newTestConsole(t, buildProgramROM(0x02))
	err := console.FrameAdvance(0, 0)
	assert.ErrorIs(t, err, ErrIllegalOpcode)
}

func TestFrameAdvanceLatchesButtons(t *testing.T) {
	console := newTestConsole(t, buildProgramROM(spin...))
	require.NoError(t, console.FrameAdvance(ButtonA|ButtonDown, ButtonStart))
	assert.Equal(t, ButtonA|ButtonDown, console.Controller(1).Buttons())
	assert.Equal(t, ButtonStart, console.Controller(2).Buttons())
}

func TestFrameDeterminism(t *testing.T) {
	a := newTestConsole(t, renderingROM())
	b := newTestConsole(t, renderingROM())
	for i := 0; i < 5; i++ {
		require.NoError(t, a.FrameAdvance(ButtonA, 0))
		require.NoError(t, b.FrameAdvance(ButtonA, 0))
	}
	assert.Equal(t, a.FrameBuffer().Pix, b.FrameBuffer().Pix)
	assert.Equal(t, a.RAM(), b.RAM())
}

func TestRAMLiveView(t *testing.T) {
	// The program copies $00 to $01 every frame via the zero page.
	rom := buildProgramROM(
		0xA5, 0x00, // LDA $00
		0x85, 0x01, // STA $01
		0x4C, 0x00, 0x80, // JMP $8000
	)
	console := newTestConsole(t, rom)
	ram := console.RAM()
	ram[0x00] = 0x5A
	require.NoError(t, console.FrameAdvance(0, 0))
	assert.Equal(t, byte(0x5A), ram[0x01])
}

func TestConsoleReset(t *testing.T) {
	console := newTestConsole(t, renderingROM())
	fresh, err := console.DumpState()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, console.FrameAdvance(ButtonStart, 0))
	}
	console.Reset()
	again, err := console.DumpState()
	require.NoError(t, err)
	assert.Equal(t, fresh, again)
}

func TestSnapshotRoundTrip(t *testing.T) {
	console := newTestConsole(t, renderingROM())
	for i := 0; i < 2; i++ {
		require.NoError(t, console.FrameAdvance(0, 0))
	}
	saved, err := console.DumpState()
	require.NoError(t, err)

	// Diverge, then rewind.
	for i := 0; i < 3; i++ {
		require.NoError(t, console.FrameAdvance(ButtonRight, 0))
	}
	require.NoError(t, console.LoadState(saved))
	restored, err := console.DumpState()
	require.NoError(t, err)
	assert.Equal(t, saved, restored)
}

func TestSnapshotReplayDeterminism(t *testing.T) {
	console := newTestConsole(t, renderingROM())
	require.NoError(t, console.FrameAdvance(0, 0))
	saved, err := console.DumpState()
	require.NoError(t, err)

	play := func() []byte {
		require.NoError(t, console.LoadState(saved))
		for i := 0; i < 3; i++ {
			require.NoError(t, console.FrameAdvance(ButtonA, 0))
		}
		pix := make([]byte, len(console.FrameBuffer().Pix))
		copy(pix, console.FrameBuffer().Pix)
		return pix
	}
	first := play()
	second := play()
	assert.Equal(t, first, second)
}

func TestLoadStateRejectsGarbage(t *testing.T) {
	console := newTestConsole(t, buildProgramROM(spin...))
	err := console.LoadState([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestLoadStateRejectsOtherCartridge(t *testing.T) {
	a := newTestConsole(t, buildProgramROM(spin...))
	b := newTestConsole(t, renderingROM())
	saved, err := a.DumpState()
	require.NoError(t, err)
	err = b.LoadState(saved)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	// The failed load did not disturb b.
	before, err := b.DumpState()
	require.NoError(t, err)
	require.NoError(t, b.FrameAdvance(0, 0))
	require.NoError(t, b.LoadState(before))
	after, err := b.DumpState()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBackupSlots(t *testing.T) {
	console := newTestConsole(t, buildProgramROM(spin...))

	t.Run("out of range", func(t *testing.T) {
		assert.ErrorIs(t, console.Backup(-1), ErrSlotOutOfRange)
		assert.ErrorIs(t, console.Backup(BackupSlots), ErrSlotOutOfRange)
		assert.ErrorIs(t, console.Restore(-1), ErrSlotOutOfRange)
		assert.ErrorIs(t, console.Restore(BackupSlots), ErrSlotOutOfRange)
	})

	t.Run("empty slot", func(t *testing.T) {
		assert.ErrorIs(t, console.Restore(3), ErrNoSnapshotAvailable)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, console.Backup(0))
		want, err := console.DumpState()
		require.NoError(t, err)
		require.NoError(t, console.FrameAdvance(0, 0))
		require.NoError(t, console.Restore(0))
		got, err := console.DumpState()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, console.Backup(1))
		require.NoError(t, console.FrameAdvance(0, 0))
		require.NoError(t, console.Backup(1))
		want, err := console.DumpState()
		require.NoError(t, err)
		require.NoError(t, console.FrameAdvance(0, 0))
		require.NoError(t, console.Restore(1))
		got, err := console.DumpState()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestDefaultSlot(t *testing.T) {
	console := newTestConsole(t, buildProgramROM(spin...))
	// Empty until the first backup.
	assert.ErrorIs(t, console.RestoreDefault(), ErrNoSnapshotAvailable)

	require.NoError(t, console.BackupDefault())
	// The default slot is not slot 0.
	assert.ErrorIs(t, console.Restore(0), ErrNoSnapshotAvailable)

	want, err := console.DumpState()
	require.NoError(t, err)
	require.NoError(t, console.FrameAdvance(0, 0))
	require.NoError(t, console.RestoreDefault())
	got, err := console.DumpState()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBackupSlotsSurviveReset(t *testing.T) {
	console := newTestConsole(t, buildProgramROM(spin...))
	require.NoError(t, console.FrameAdvance(0, 0))
	require.NoError(t, console.Backup(2))
	want, err := console.DumpState()
	require.NoError(t, err)

	console.Reset()
	require.NoError(t, console.Restore(2))
	got, err := console.DumpState()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
