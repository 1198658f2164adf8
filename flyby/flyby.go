// Package flyby drives a subdevice-only pipeline: no buffers are exchanged,
// the subdevice processes pixels in line between its neighbours while it
// is started.
package flyby

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/xaionaro-go/v4l2pipeline/config"
	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

// Interval is the duration of one iteration of the wait loop.
const Interval = 10 * time.Millisecond

type Controller struct {
	Subdevice device.Subdevice
	Config    config.PipelineConfig

	// Sleep is called once per iteration; time.Sleep if nil.
	Sleep func(time.Duration)

	iterations atomic.Uint64
	running    atomic.Bool
}

func New(subdev device.Subdevice, cfg config.PipelineConfig) *Controller {
	return &Controller{
		Subdevice: subdev,
		Config:    cfg,
	}
}

// Iterations is the amount of wait iterations done so far.
func (c *Controller) Iterations() uint64 {
	return c.iterations.Load()
}

func (c *Controller) IsRunning() bool {
	return c.running.Load()
}

// Run configures and starts the subdevice, keeps it running for
// LoopCount+1 intervals, and stops it. A failure to stop is returned even
// if everything before succeeded.
func (c *Controller) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Flyby.Run(%d loops)", c.Config.LoopCount)
	defer func() { logger.Debugf(ctx, "/Flyby.Run(%d loops): %v", c.Config.LoopCount, _err) }()

	cfg := c.Config
	if err := c.Subdevice.SetFormat(ctx, cfg.Primary.Format, types.FieldNone); err != nil {
		return types.ErrFormat{Op: "subdev-set", Format: cfg.Primary.Format, Err: err}
	}
	if !cfg.Secondary.IsZero() {
		if err := c.Subdevice.SetDstFormat(ctx, cfg.Secondary.Format, types.FieldNone); err != nil {
			return types.ErrFormat{Op: "subdev-set-dst", Format: cfg.Secondary.Format, Err: err}
		}
	}
	if !cfg.Crop.IsZero() {
		if err := c.Subdevice.SetCrop(ctx, cfg.Crop); err != nil {
			return types.ErrDevice{Op: "subdev-set-crop", Err: err}
		}
	}

	if err := c.Subdevice.Start(ctx); err != nil {
		return types.ErrDevice{Op: "subdev-start", Err: err}
	}
	c.running.Store(true)

	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	// The counter is checked before it is decremented, so a LoopCount of N
	// keeps the subdevice running for N+1 intervals.
	for count := cfg.LoopCount; count >= 0; count-- {
		sleep(Interval)
		c.iterations.Inc()
	}

	err := c.Subdevice.Stop(ctx)
	c.running.Store(false)
	if err != nil {
		return types.ErrDevice{Op: "subdev-stop", Err: err}
	}
	return nil
}
