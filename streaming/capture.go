package streaming

import (
	"context"

	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/config"
	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/negotiator"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

// Capture keeps every buffer of the pool queued to the device: each
// dequeued buffer is immediately queued back.
type Capture struct {
	Path      *Path
	LoopCount int

	negotiator *negotiator.Negotiator
	allocator  allocator.Allocator
}

func NewCapture(
	drv device.Driver,
	alloc allocator.Allocator,
	cfg config.PipelineConfig,
) *Capture {
	neg := negotiator.New(drv)
	return &Capture{
		Path:       newPath(drv, neg, cfg.Primary, cfg.MemoryMode),
		LoopCount:  cfg.LoopCount,
		negotiator: neg,
		allocator:  alloc,
	}
}

func (c *Capture) Stats() Statistics {
	return Statistics{Paths: []PathStatistics{c.Path.Stats()}}
}

func (c *Capture) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Capture.Run(%d loops)", c.LoopCount)
	defer func() { logger.Debugf(ctx, "/Capture.Run(%d loops): %v", c.LoopCount, _err) }()

	if err := checkMemoryMode(c.Path.Memory); err != nil {
		return err
	}
	defer func() {
		if _err != nil {
			abort(ctx, c.Path)
		}
	}()

	if _, err := probe(ctx, c.negotiator); err != nil {
		return err
	}
	if err := c.Path.setup(ctx, c.allocator); err != nil {
		return err
	}
	if err := c.Path.requestBuffers(ctx); err != nil {
		return err
	}
	for idx := 0; idx < c.Path.pool.Len(); idx++ {
		if err := c.Path.queue(ctx, types.SlotIndex(idx)); err != nil {
			return err
		}
	}
	if err := c.Path.streamOn(ctx); err != nil {
		return err
	}

	for i := 0; i < c.LoopCount; i++ {
		slot, err := c.Path.dequeue(ctx)
		if err != nil {
			return err
		}
		if err := c.Path.queue(ctx, slot); err != nil {
			return err
		}
	}

	return c.Path.teardown(ctx)
}
