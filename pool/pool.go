// pool.go implements the fixed-capacity pool of buffers exchanged with the device.

// Package pool provides the buffer pool: a fixed set of allocated buffers
// addressed by a stable slot index, each owned either by the process or by
// the device.
package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

type slot struct {
	Buffer types.Buffer
	Owner  types.Owner
}

type Pool struct {
	Format types.Format

	allocator allocator.Allocator
	slots     []slot
	released  bool
}

// Allocate allocates count buffers for the given format. If any allocation
// fails, the buffers allocated so far are freed before the error is returned.
func Allocate(
	ctx context.Context,
	alloc allocator.Allocator,
	count int,
	format types.Format,
) (_ret *Pool, _err error) {
	logger.Debugf(ctx, "Allocate(%d, %s)", count, format)
	defer func() { logger.Debugf(ctx, "/Allocate(%d, %s): %v", count, format, _err) }()

	if count < 1 || count > types.MaxBufferCount {
		return nil, types.ErrInvalidConfig{
			Field:  "buffer-count",
			Reason: fmt.Sprintf("must be in [1, %d], got %d", types.MaxBufferCount, count),
		}
	}

	p := &Pool{
		Format:    format,
		allocator: alloc,
		slots:     make([]slot, 0, count),
	}
	for idx := 0; idx < count; idx++ {
		buf, err := alloc.Allocate(ctx, format.Width, format.Height, format.PixelFormat)
		if err == nil && len(buf.Planes) == 0 {
			err = errors.New("the allocator returned a buffer without planes")
		}
		if err != nil {
			if releaseErr := p.Release(ctx); releaseErr != nil {
				logger.Errorf(ctx, "unable to release the partially allocated pool: %v", releaseErr)
			}
			return nil, types.ErrAllocation{Index: idx, Count: count, Err: err}
		}
		p.slots = append(p.slots, slot{Buffer: buf, Owner: types.OwnerProcess})
	}
	logger.Debugf(ctx, "allocated %d buffers, %s in total", count, humanize.IBytes(p.TotalSize()))
	return p, nil
}

// Release frees every plane handle of every buffer. It is safe to call it
// more than once and on a nil or empty pool.
func (p *Pool) Release(ctx context.Context) error {
	if p == nil || p.released {
		return nil
	}
	p.released = true

	var result []error
	for idx, s := range p.slots {
		for planeIdx, plane := range s.Buffer.Planes {
			if err := p.allocator.Free(ctx, plane.Handle); err != nil {
				result = append(result, fmt.Errorf("unable to free plane #%d of slot %d: %w", planeIdx, idx, err))
			}
		}
	}
	p.slots = nil
	return errors.Join(result...)
}

func (p *Pool) IsReleased() bool {
	return p.released
}

func (p *Pool) Len() int {
	return len(p.slots)
}

func (p *Pool) TotalSize() uint64 {
	var total uint64
	for _, s := range p.slots {
		total += s.Buffer.Size()
	}
	return total
}

func (p *Pool) mustIndex(idx types.SlotIndex) *slot {
	if int(idx) >= len(p.slots) {
		panic(fmt.Sprintf("pool: slot index %d is out of range [0, %d)", idx, len(p.slots)))
	}
	return &p.slots[idx]
}

// Contains reports whether idx addresses a slot of the pool. Indices coming
// from the device must be checked with it before use.
func (p *Pool) Contains(idx types.SlotIndex) bool {
	return int(idx) < len(p.slots)
}

// Slot returns the buffer of the slot; it panics if idx is out of range.
func (p *Pool) Slot(idx types.SlotIndex) types.Buffer {
	return p.mustIndex(idx).Buffer
}

func (p *Pool) Owner(idx types.SlotIndex) types.Owner {
	return p.mustIndex(idx).Owner
}

// Primary returns the plane layout of the first slot. All slots share
// the same geometry.
func (p *Pool) Primary() types.PlaneLayout {
	return p.mustIndex(0).Buffer.Layout()
}

// MarkQueued transfers the slot to the device.
func (p *Pool) MarkQueued(idx types.SlotIndex) error {
	s := p.mustIndex(idx)
	if s.Owner == types.OwnerDevice {
		return types.ErrDoubleQueue{Slot: idx}
	}
	s.Owner = types.OwnerDevice
	return nil
}

// MarkDequeued transfers the slot back to the process.
func (p *Pool) MarkDequeued(idx types.SlotIndex) error {
	s := p.mustIndex(idx)
	if s.Owner != types.OwnerDevice {
		return types.ErrNotQueued{Slot: idx}
	}
	s.Owner = types.OwnerProcess
	return nil
}

// ReclaimAll returns every slot to the process; the device gives all
// buffers back on stream-off.
func (p *Pool) ReclaimAll() {
	for idx := range p.slots {
		p.slots[idx].Owner = types.OwnerProcess
	}
}

func (p *Pool) DeviceOwned() int {
	count := 0
	for _, s := range p.slots {
		if s.Owner == types.OwnerDevice {
			count++
		}
	}
	return count
}
