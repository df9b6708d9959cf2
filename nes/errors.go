package nes

import "errors"

// Load-time validation errors. A failed load creates no console state.
var (
	ErrMalformedHeader     = errors.New("malformed iNES header")
	ErrUnsupportedRegion   = errors.New("PAL region not supported")
	ErrUnsupportedMapper   = errors.New("unsupported mapper")
	ErrTrainerNotSupported = errors.New("trainer not supported")
)

// Runtime protocol errors. The console state is unaffected when these are
// returned.
var (
	ErrInvalidSnapshot     = errors.New("invalid snapshot")
	ErrSlotOutOfRange      = errors.New("backup slot out of range")
	ErrNoSnapshotAvailable = errors.New("no snapshot available")
)

// ErrIllegalOpcode signals that the CPU fetched an undocumented opcode. The
// session is unusable afterwards and has to be reset or reloaded.
var ErrIllegalOpcode = errors.New("illegal opcode")
