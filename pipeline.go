// Package v4l2pipeline runs a video pipeline through a V4L2-style device:
// capture, render (output), transform (memory-to-memory) or subdevice
// flyby, as selected by the configuration.
package v4l2pipeline

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/config"
	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/flyby"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/streaming"
	"github.com/xaionaro-go/v4l2pipeline/types"
	"github.com/xaionaro-go/xsync"
)

type Pipeline struct {
	Config    config.PipelineConfig
	Driver    device.Driver
	Subdevice device.Subdevice
	Allocator allocator.Allocator

	locker xsync.Mutex
	engine streaming.Engine
	flyby  *flyby.Controller
}

// New returns a pipeline for cfg. The flyby mode needs only subdev, the
// other modes need only drv and alloc.
func New(
	cfg config.PipelineConfig,
	drv device.Driver,
	subdev device.Subdevice,
	alloc allocator.Allocator,
) *Pipeline {
	return &Pipeline{
		Config:    cfg,
		Driver:    drv,
		Subdevice: subdev,
		Allocator: alloc,
	}
}

func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(%s)", p.Config.Mode)
}

// Run executes the pipeline on the calling goroutine until the configured
// amount of loops is done or the first failure.
func (p *Pipeline) Run(ctx context.Context) (_err error) {
	ctx = logger.CtxWithField(ctx, "mode", p.Config.Mode.String())
	logger.Debugf(ctx, "Run[%s]", p)
	defer func() { logger.Debugf(ctx, "/Run[%s]: %v", p, _err) }()

	LogConfig(ctx, p.Config)
	logger.Debugf(ctx, "config: %s", spew.Sdump(p.Config))

	if p.Config.Mode == types.ModeFlyby {
		assert(ctx, p.Subdevice != nil, "flyby requires a subdevice")
		c := flyby.New(p.Subdevice, p.Config)
		p.locker.Do(ctx, func() {
			p.flyby = c
		})
		return c.Run(ctx)
	}

	assert(ctx, p.Driver != nil && p.Allocator != nil, "streaming requires a device and an allocator")
	var engine streaming.Engine
	switch p.Config.Mode {
	case types.ModeCapture:
		engine = streaming.NewCapture(p.Driver, p.Allocator, p.Config)
	case types.ModeRender:
		engine = streaming.NewRender(p.Driver, p.Allocator, p.Config)
	case types.ModeTransform:
		engine = streaming.NewTransform(p.Driver, p.Allocator, p.Config)
	default:
		return types.ErrInvalidConfig{Field: "mode", Reason: fmt.Sprintf("unknown mode %s", p.Config.Mode)}
	}
	p.locker.Do(ctx, func() {
		p.engine = engine
	})
	return engine.Run(ctx)
}

// LogConfig prints the resolved options.
func LogConfig(ctx context.Context, cfg config.PipelineConfig) {
	primary := cfg.Primary
	logger.Infof(ctx, "mode: %s", cfg.Mode)
	logger.Infof(ctx, "width: %d, height: %d, format: %s, buffer count: %d",
		primary.Format.Width, primary.Format.Height, primary.Format.PixelFormat, primary.BufferCount)
	if !cfg.Secondary.IsZero() {
		dst := cfg.Secondary
		logger.Infof(ctx, "dst width: %d, dst height: %d, dst format: %s, dst buffer count: %d",
			dst.Format.Width, dst.Format.Height, dst.Format.PixelFormat, dst.BufferCount)
	}
	logger.Infof(ctx, "loop count: %d", cfg.LoopCount)
	if cfg.Mode != types.ModeFlyby {
		logger.Infof(ctx, "memory: %s", cfg.MemoryMode)
		logger.Infof(ctx, "buf_type: %s", primary.PathKind)
		if !cfg.Secondary.IsZero() {
			logger.Infof(ctx, "dst buf_type: %s", cfg.Secondary.PathKind)
		}
	}
	if !cfg.Crop.IsZero() {
		logger.Infof(ctx, "crop: [%s]", cfg.Crop)
	}
	logger.Infof(ctx, "display: %s", onOff(cfg.Display))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
