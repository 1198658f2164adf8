// plane.go defines the memory planes backing a buffer.

package types

import (
	"fmt"
)

// MaxPlanes is the maximal amount of memory planes of a single buffer.
const MaxPlanes = 3

// Handle is a DMA-shareable buffer handle (a dma-buf file descriptor).
type Handle int

const InvalidHandle = Handle(-1)

func (h Handle) IsValid() bool {
	return h >= 0
}

// PlaneGeometry is the stride and the size of one memory plane.
type PlaneGeometry struct {
	Stride uint32
	Size   uint32
}

// PlaneLayout is the per-plane geometry of a buffer, used to commit a format.
type PlaneLayout []PlaneGeometry

func (l PlaneLayout) TotalSize() uint64 {
	var total uint64
	for _, p := range l {
		total += uint64(p.Size)
	}
	return total
}

func (l PlaneLayout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("the plane layout is empty")
	}
	if len(l) > MaxPlanes {
		return fmt.Errorf("too many planes: %d > %d", len(l), MaxPlanes)
	}
	for idx, p := range l {
		if p.Size == 0 {
			return fmt.Errorf("plane #%d has zero size", idx)
		}
	}
	return nil
}

// Plane is one memory plane of an allocated buffer.
type Plane struct {
	PlaneGeometry
	Handle Handle
}

// Buffer is one physical memory block backing one pool slot.
type Buffer struct {
	Planes []Plane
}

func (b Buffer) Layout() PlaneLayout {
	result := make(PlaneLayout, 0, len(b.Planes))
	for _, p := range b.Planes {
		result = append(result, p.PlaneGeometry)
	}
	return result
}

func (b Buffer) Size() uint64 {
	return b.Layout().TotalSize()
}
