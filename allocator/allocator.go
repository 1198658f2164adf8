// Package allocator defines the interface to the graphics buffer allocator
// which provides the DMA-shareable memory backing the pool slots.
package allocator

import (
	"context"

	"github.com/xaionaro-go/v4l2pipeline/types"
)

type Allocator interface {
	// Allocate returns a buffer sized for a frame of the given geometry
	// and pixel format; every plane carries its own handle.
	Allocate(ctx context.Context, width, height uint32, pf types.PixelFormat) (types.Buffer, error)

	// Free releases one plane handle returned by Allocate.
	Free(ctx context.Context, handle types.Handle) error
}
