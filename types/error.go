package types

import (
	"fmt"
)

// ErrDevice is returned when a call to the device interface fails.
type ErrDevice struct {
	Op       string
	PathKind PathKind
	Err      error
}

func (e ErrDevice) Error() string {
	if e.PathKind == PathKindUndefined {
		return fmt.Sprintf("device operation '%s' failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("device operation '%s' failed on path %s: %v", e.Op, e.PathKind, e.Err)
}

func (e ErrDevice) Unwrap() error {
	return e.Err
}

// ErrFormat is returned when the device rejects a format.
type ErrFormat struct {
	Op       string
	PathKind PathKind
	Format   Format
	Err      error
}

func (e ErrFormat) Error() string {
	return fmt.Sprintf("the device rejected format %s on path %s (%s): %v", e.Format, e.PathKind, e.Op, e.Err)
}

func (e ErrFormat) Unwrap() error {
	return e.Err
}

// ErrFormatMismatch is returned when the format read back from the device
// differs from the requested one in any of its fields.
type ErrFormatMismatch struct {
	PathKind  PathKind
	Requested Format
	Actual    Format
}

func (e ErrFormatMismatch) Error() string {
	return fmt.Sprintf("format mismatch on path %s: requested %s, got %s", e.PathKind, e.Requested, e.Actual)
}

// ErrAllocation is returned when the buffer allocator fails.
type ErrAllocation struct {
	Index int
	Count int
	Err   error
}

func (e ErrAllocation) Error() string {
	return fmt.Sprintf("unable to allocate buffer %d/%d: %v", e.Index+1, e.Count, e.Err)
}

func (e ErrAllocation) Unwrap() error {
	return e.Err
}

type ErrUnsupportedFormat struct {
	PixelFormat PixelFormat
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported pixel format '%s' (0x%08x)", e.PixelFormat, uint32(e.PixelFormat))
}

// ErrUnsupportedDevice is returned when the device does not advertise a
// capability the pipeline requires.
type ErrUnsupportedDevice struct {
	Capabilities Capabilities
	Reason       string
}

func (e ErrUnsupportedDevice) Error() string {
	return fmt.Sprintf("unsupported device '%s' (capabilities 0x%08x): %s", e.Capabilities.Card, e.Capabilities.Capabilities, e.Reason)
}

type ErrUnsupportedMemoryMode struct {
	MemoryMode MemoryMode
}

func (e ErrUnsupportedMemoryMode) Error() string {
	return fmt.Sprintf("memory mode %s has no buffer submission path", e.MemoryMode)
}

// ErrDoubleQueue is returned on an attempt to queue a slot which is
// already owned by the device.
type ErrDoubleQueue struct {
	Slot SlotIndex
}

func (e ErrDoubleQueue) Error() string {
	return fmt.Sprintf("slot %d is already queued to the device", e.Slot)
}

// ErrNotQueued is returned when the device hands back a slot that the
// process already owns.
type ErrNotQueued struct {
	Slot SlotIndex
}

func (e ErrNotQueued) Error() string {
	return fmt.Sprintf("slot %d was not queued to the device", e.Slot)
}

type ErrInvalidStateTransition struct {
	PathKind PathKind
	From     StreamState
	To       StreamState
}

func (e ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("path %s: invalid state transition %s -> %s", e.PathKind, e.From, e.To)
}

type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid option '%s': %s", e.Field, e.Reason)
}

// ErrHelpRequested is the sentinel returned when the help text was
// requested instead of a run.
type ErrHelpRequested struct{}

func (ErrHelpRequested) Error() string {
	return "help requested"
}

// ErrOpenDevice is returned when a device node cannot be opened.
type ErrOpenDevice struct {
	Path string
	Err  error
}

func (e ErrOpenDevice) Error() string {
	return fmt.Sprintf("unable to open '%s': %v", e.Path, e.Err)
}

func (e ErrOpenDevice) Unwrap() error {
	return e.Err
}
