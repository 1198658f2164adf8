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

// LookAhead is how many buffers must be queued and not yet dequeued before
// the render engine starts dequeuing.
const LookAhead = 2

// Render feeds the device round-robin, keeping up to LookAhead buffers in
// flight. Streaming is started lazily, after the first queue.
type Render struct {
	Path      *Path
	LoopCount int

	negotiator  *negotiator.Negotiator
	allocator   allocator.Allocator
	outstanding int
}

func NewRender(
	drv device.Driver,
	alloc allocator.Allocator,
	cfg config.PipelineConfig,
) *Render {
	neg := negotiator.New(drv)
	return &Render{
		Path:       newPath(drv, neg, cfg.Primary, cfg.MemoryMode),
		LoopCount:  cfg.LoopCount,
		negotiator: neg,
		allocator:  alloc,
	}
}

func (r *Render) Stats() Statistics {
	return Statistics{Paths: []PathStatistics{r.Path.Stats()}}
}

// Outstanding is the amount of buffers queued and not yet dequeued.
func (r *Render) Outstanding() int {
	return r.outstanding
}

func (r *Render) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Render.Run(%d loops)", r.LoopCount)
	defer func() { logger.Debugf(ctx, "/Render.Run(%d loops): %v", r.LoopCount, _err) }()

	if err := checkMemoryMode(r.Path.Memory); err != nil {
		return err
	}
	if r.Path.Config.BufferCount < LookAhead {
		return types.ErrInvalidConfig{Field: "buffer-count", Reason: "render needs at least 2 buffers"}
	}
	defer func() {
		if _err != nil {
			abort(ctx, r.Path)
		}
	}()

	if _, err := probe(ctx, r.negotiator); err != nil {
		return err
	}
	if err := r.Path.setup(ctx, r.allocator); err != nil {
		return err
	}
	if err := r.Path.requestBuffers(ctx); err != nil {
		return err
	}

	for i := 0; i < r.LoopCount; i++ {
		if err := r.Path.queueNext(ctx); err != nil {
			return err
		}
		r.outstanding++

		if r.Path.State() != types.StreamStateStreaming {
			if err := r.Path.streamOn(ctx); err != nil {
				return err
			}
		}

		if r.outstanding >= LookAhead {
			if _, err := r.Path.dequeue(ctx); err != nil {
				return err
			}
			r.outstanding--
		}
	}

	logger.Debugf(ctx, "stopping with %d buffers outstanding", r.outstanding)
	return r.Path.teardown(ctx)
}
