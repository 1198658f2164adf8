package streaming

import (
	"context"
	"errors"

	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/config"
	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/negotiator"
)

// Transform drives a memory-to-memory device: the source frames are
// queued on the output path and the processed ones come back on the
// capture path.
type Transform struct {
	Src       *Path
	Dst       *Path
	LoopCount int

	negotiator *negotiator.Negotiator
	allocator  allocator.Allocator
}

func NewTransform(
	drv device.Driver,
	alloc allocator.Allocator,
	cfg config.PipelineConfig,
) *Transform {
	neg := negotiator.New(drv)
	return &Transform{
		Src:        newPath(drv, neg, cfg.Primary, cfg.MemoryMode),
		Dst:        newPath(drv, neg, cfg.Secondary, cfg.MemoryMode),
		LoopCount:  cfg.LoopCount,
		negotiator: neg,
		allocator:  alloc,
	}
}

func (t *Transform) Stats() Statistics {
	return Statistics{Paths: []PathStatistics{t.Src.Stats(), t.Dst.Stats()}}
}

func (t *Transform) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Transform.Run(%d loops)", t.LoopCount)
	defer func() { logger.Debugf(ctx, "/Transform.Run(%d loops): %v", t.LoopCount, _err) }()

	if err := checkMemoryMode(t.Src.Memory); err != nil {
		return err
	}
	defer func() {
		if _err != nil {
			abort(ctx, t.Src, t.Dst)
		}
	}()

	caps, err := probe(ctx, t.negotiator)
	if err != nil {
		return err
	}
	if err := negotiator.RequireM2M(caps); err != nil {
		return err
	}

	for _, p := range []*Path{t.Src, t.Dst} {
		if err := p.setup(ctx, t.allocator); err != nil {
			return err
		}
	}
	for _, p := range []*Path{t.Src, t.Dst} {
		if err := p.requestBuffers(ctx); err != nil {
			return err
		}
	}

	for i := 0; i < t.LoopCount; i++ {
		if err := t.Src.queueNext(ctx); err != nil {
			return err
		}
		if err := t.Dst.queueNext(ctx); err != nil {
			return err
		}
		if i == 0 {
			if err := t.Src.streamOn(ctx); err != nil {
				return err
			}
			if err := t.Dst.streamOn(ctx); err != nil {
				return err
			}
		}
		if _, err := t.Src.dequeue(ctx); err != nil {
			return err
		}
		if _, err := t.Dst.dequeue(ctx); err != nil {
			return err
		}
	}

	return errors.Join(t.Src.teardown(ctx), t.Dst.teardown(ctx))
}
