// Package device defines the interface to the kernel video device the
// pipeline drives. Every call is blocking; dequeue blocks until the device
// completes a buffer.
package device

import (
	"context"
	"errors"

	"github.com/xaionaro-go/v4l2pipeline/types"
)

// ErrNoMoreEntries is returned by EnumerateFormat when the index is past
// the last supported format.
var ErrNoMoreEntries = errors.New("no more entries")

// QueuedBuffer is what is handed to the device on queue.
type QueuedBuffer struct {
	Slot   types.SlotIndex
	Planes []types.Plane
}

// Driver is a video device node with buffer-queue semantics.
type Driver interface {
	QueryCapabilities(ctx context.Context) (types.Capabilities, error)
	EnumerateFormat(ctx context.Context, index uint32, kind types.PathKind) (types.FormatDescriptor, error)
	TryFormat(ctx context.Context, kind types.PathKind, format types.Format) error
	SetFormat(ctx context.Context, kind types.PathKind, format types.Format, layout types.PlaneLayout) error
	GetFormat(ctx context.Context, kind types.PathKind) (types.Format, error)

	RequestBuffers(ctx context.Context, kind types.PathKind, memory types.MemoryMode, count uint32) error
	QueueBuffer(ctx context.Context, kind types.PathKind, memory types.MemoryMode, buf QueuedBuffer) error
	DequeueBuffer(ctx context.Context, kind types.PathKind, memory types.MemoryMode, numPlanes int) (types.SlotIndex, error)
	StreamOn(ctx context.Context, kind types.PathKind) error
	StreamOff(ctx context.Context, kind types.PathKind) error
}

// Subdevice is an in-line format/crop/scale pixel pipeline stage.
type Subdevice interface {
	SetFormat(ctx context.Context, format types.Format, field types.Field) error
	SetDstFormat(ctx context.Context, format types.Format, field types.Field) error
	SetCrop(ctx context.Context, crop types.Rect) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
