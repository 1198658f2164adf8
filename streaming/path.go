// path.go implements one device path: a buffer pool bound to a buffer
// type of the device, and its streaming state machine.

package streaming

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/config"
	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/negotiator"
	"github.com/xaionaro-go/v4l2pipeline/pool"
	"github.com/xaionaro-go/v4l2pipeline/types"
	"github.com/xaionaro-go/xcontext"
)

type Path struct {
	Config config.PathConfig
	Memory types.MemoryMode

	driver     device.Driver
	negotiator *negotiator.Negotiator
	pool       *pool.Pool
	cursor     types.SlotIndex
	counters   *pathCounters
}

func newPath(
	drv device.Driver,
	neg *negotiator.Negotiator,
	cfg config.PathConfig,
	mem types.MemoryMode,
) *Path {
	return &Path{
		Config:     cfg,
		Memory:     mem,
		driver:     drv,
		negotiator: neg,
		counters:   newPathCounters(),
	}
}

func (p *Path) Kind() types.PathKind {
	return p.Config.PathKind
}

func (p *Path) State() types.StreamState {
	return types.StreamState(p.counters.State.Load())
}

// Cursor is the slot the round-robin policy queues next.
func (p *Path) Cursor() types.SlotIndex {
	return p.cursor
}

// Pool is nil until the path is set up and after it is torn down.
func (p *Path) Pool() *pool.Pool {
	return p.pool
}

func (p *Path) Stats() PathStatistics {
	return p.counters.Convert(p.Kind())
}

func (p *Path) transition(ctx context.Context, to types.StreamState) error {
	from := p.State()
	if !from.CanTransitionTo(to) {
		return types.ErrInvalidStateTransition{PathKind: p.Kind(), From: from, To: to}
	}
	logger.Tracef(ctx, "path %s: %s -> %s", p.Kind(), from, to)
	p.counters.State.Store(int32(to))
	return nil
}

// setup allocates the pool and commits the format with the geometry of
// the allocated buffers.
func (p *Path) setup(ctx context.Context, alloc allocator.Allocator) (_err error) {
	logger.Debugf(ctx, "setup[%s]", p.Kind())
	defer func() { logger.Debugf(ctx, "/setup[%s]: %v", p.Kind(), _err) }()

	if p.pool != nil || p.State() != types.StreamStateConfigured {
		return fmt.Errorf("path %s is already set up (state: %s)", p.Kind(), p.State())
	}

	pl, err := pool.Allocate(ctx, alloc, p.Config.BufferCount, p.Config.Format)
	if err != nil {
		return err
	}
	p.pool = pl
	p.counters.PoolBytes.Store(pl.TotalSize())

	return p.negotiator.Negotiate(ctx, p.Kind(), p.Config.Format, pl.Primary())
}

func (p *Path) requestBuffers(ctx context.Context) error {
	if err := p.driver.RequestBuffers(ctx, p.Kind(), p.Memory, uint32(p.pool.Len())); err != nil {
		return types.ErrDevice{Op: "request-buffers", PathKind: p.Kind(), Err: err}
	}
	return p.transition(ctx, types.StreamStateBuffersRequested)
}

// queue hands the slot over to the device.
func (p *Path) queue(ctx context.Context, slot types.SlotIndex) error {
	logger.Tracef(ctx, "queue[%s](%d)", p.Kind(), slot)
	if err := p.pool.MarkQueued(slot); err != nil {
		return err
	}
	err := p.driver.QueueBuffer(ctx, p.Kind(), p.Memory, device.QueuedBuffer{
		Slot:   slot,
		Planes: p.pool.Slot(slot).Planes,
	})
	if err != nil {
		if revertErr := p.pool.MarkDequeued(slot); revertErr != nil {
			logger.Errorf(ctx, "unable to revert the ownership of slot %d: %v", slot, revertErr)
		}
		return types.ErrDevice{Op: "queue-buffer", PathKind: p.Kind(), Err: err}
	}
	p.counters.Queued.Inc()
	return nil
}

// queueNext queues the slot at the cursor and advances the cursor.
func (p *Path) queueNext(ctx context.Context) error {
	if err := p.queue(ctx, p.cursor); err != nil {
		return err
	}
	p.cursor = types.SlotIndex((int(p.cursor) + 1) % p.pool.Len())
	return nil
}

// dequeue blocks until the device hands a buffer back. The slot reported
// by the device is validated before it is used.
func (p *Path) dequeue(ctx context.Context) (types.SlotIndex, error) {
	slot, err := p.driver.DequeueBuffer(ctx, p.Kind(), p.Memory, len(p.pool.Primary()))
	if err != nil {
		return 0, types.ErrDevice{Op: "dequeue-buffer", PathKind: p.Kind(), Err: err}
	}
	logger.Tracef(ctx, "dequeued[%s](%d)", p.Kind(), slot)
	if !p.pool.Contains(slot) {
		return 0, types.ErrDevice{
			Op:       "dequeue-buffer",
			PathKind: p.Kind(),
			Err:      fmt.Errorf("the device returned slot %d, out of range [0, %d)", slot, p.pool.Len()),
		}
	}
	if err := p.pool.MarkDequeued(slot); err != nil {
		return 0, types.ErrDevice{Op: "dequeue-buffer", PathKind: p.Kind(), Err: err}
	}
	p.counters.Dequeued.Inc()
	p.counters.LastDequeued.Store(int64(slot))
	return slot, nil
}

func (p *Path) streamOn(ctx context.Context) error {
	if err := p.driver.StreamOn(ctx, p.Kind()); err != nil {
		return types.ErrDevice{Op: "stream-on", PathKind: p.Kind(), Err: err}
	}
	return p.transition(ctx, types.StreamStateStreaming)
}

// teardown stops streaming (if it was started) and releases the pool.
// Buffers still owned by the device are given back by the stream-off.
func (p *Path) teardown(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "teardown[%s]", p.Kind())
	defer func() { logger.Debugf(ctx, "/teardown[%s]: %v", p.Kind(), _err) }()

	if p.State() == types.StreamStateStopped {
		return nil
	}

	var result []error
	if p.State() == types.StreamStateStreaming {
		if err := p.driver.StreamOff(ctx, p.Kind()); err != nil {
			result = append(result, types.ErrDevice{Op: "stream-off", PathKind: p.Kind(), Err: err})
		}
	}
	if p.pool != nil {
		p.pool.ReclaimAll()
		if err := p.pool.Release(ctx); err != nil {
			result = append(result, fmt.Errorf("unable to release the pool of %s: %w", p.Kind(), err))
		}
		p.pool = nil
	}
	if err := p.transition(ctx, types.StreamStateStopped); err != nil {
		result = append(result, err)
	}
	return errors.Join(result...)
}

// abort tears the paths down after a failure. The context is detached
// from cancellation; errors are logged, the caller returns the original one.
func abort(ctx context.Context, paths ...*Path) {
	ctx = xcontext.DetachDone(ctx)
	for _, p := range paths {
		if err := p.teardown(ctx); err != nil {
			logger.Errorf(ctx, "unable to tear down path %s: %v", p.Kind(), err)
		}
	}
}

func checkMemoryMode(mem types.MemoryMode) error {
	switch mem {
	case types.MemoryModeDMABuf, types.MemoryModeMMAP:
		return nil
	default:
		return types.ErrUnsupportedMemoryMode{MemoryMode: mem}
	}
}

func probe(ctx context.Context, neg *negotiator.Negotiator) (types.Capabilities, error) {
	caps, err := neg.QueryCapabilities(ctx)
	if err != nil {
		return types.Capabilities{}, err
	}
	negotiator.LogCapabilities(ctx, caps)
	return caps, nil
}
