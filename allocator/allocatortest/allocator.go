// Package allocatortest provides an in-memory allocator.Allocator for tests.
package allocatortest

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/pixfmt"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

var ErrInjected = errors.New("injected allocation failure")

// Allocator hands out fake handles with the geometry computed by pixfmt.
type Allocator struct {
	// FailAt makes the FailAt-th Allocate call (1-based) fail; zero disables.
	FailAt int

	Allocations int
	Live        map[types.Handle]struct{}
	Freed       []types.Handle

	nextHandle types.Handle
}

var _ allocator.Allocator = (*Allocator)(nil)

func New() *Allocator {
	return &Allocator{
		Live:       map[types.Handle]struct{}{},
		nextHandle: 100,
	}
}

func (a *Allocator) Allocate(
	ctx context.Context,
	width, height uint32,
	pf types.PixelFormat,
) (types.Buffer, error) {
	a.Allocations++
	if a.FailAt > 0 && a.Allocations == a.FailAt {
		return types.Buffer{}, ErrInjected
	}
	layout, err := pixfmt.Layout(pf, width, height)
	if err != nil {
		return types.Buffer{}, err
	}
	var buf types.Buffer
	for _, geom := range layout {
		h := a.nextHandle
		a.nextHandle++
		a.Live[h] = struct{}{}
		buf.Planes = append(buf.Planes, types.Plane{PlaneGeometry: geom, Handle: h})
	}
	return buf, nil
}

func (a *Allocator) Free(ctx context.Context, handle types.Handle) error {
	if _, ok := a.Live[handle]; !ok {
		return fmt.Errorf("handle %d is not allocated", handle)
	}
	delete(a.Live, handle)
	a.Freed = append(a.Freed, handle)
	return nil
}
