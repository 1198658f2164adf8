package config

import (
	"fmt"

	"github.com/xaionaro-go/v4l2pipeline/pixfmt"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

// PathConfig is the resolved configuration of one device path.
type PathConfig struct {
	Format      types.Format
	BufferCount int
	PathKind    types.PathKind
}

func (c PathConfig) IsZero() bool {
	return c.Format.Width == 0
}

// PipelineConfig is the resolved configuration of one run. It is built
// once by New and passed by value; nothing modifies it afterwards.
type PipelineConfig struct {
	Mode types.Mode

	// Primary is the only path of capture and render, the source (output)
	// path of m2m, and the sink geometry of flyby.
	Primary PathConfig

	// Secondary is the destination (capture) path of m2m and the scaled
	// destination geometry of flyby; zero otherwise.
	Secondary PathConfig

	MemoryMode types.MemoryMode
	LoopCount  int
	Crop       types.Rect
	Display    bool
}

// New validates the options and resolves them into a PipelineConfig for
// the given mode, deriving the path kinds from the pixel formats.
func New(mode types.Mode, opts Options) (PipelineConfig, error) {
	cfg := PipelineConfig{
		Mode:       mode,
		MemoryMode: opts.Memory,
		LoopCount:  opts.LoopCount,
		Crop:       opts.Crop,
		Display:    opts.Display,
		Primary: PathConfig{
			Format: types.Format{
				Width:       opts.Width,
				Height:      opts.Height,
				PixelFormat: opts.Format,
			},
			BufferCount: opts.BufferCount,
		},
	}
	if opts.DstWidth != 0 {
		cfg.Secondary = PathConfig{
			Format: types.Format{
				Width:       opts.DstWidth,
				Height:      opts.DstHeight,
				PixelFormat: opts.DstFormat,
			},
			BufferCount: opts.DstBufferCount,
		}
	}

	if cfg.LoopCount < 0 {
		return PipelineConfig{}, types.ErrInvalidConfig{Field: "loop-count", Reason: "must not be negative"}
	}
	if cfg.Primary.Format.Width == 0 || cfg.Primary.Format.Height == 0 {
		return PipelineConfig{}, types.ErrInvalidConfig{Field: "width/height", Reason: "must be set"}
	}
	for _, path := range []struct {
		prefix string
		format types.Format
	}{{"", cfg.Primary.Format}, {"dst-", cfg.Secondary.Format}} {
		if path.format.Width > pixfmt.MaxDimension || path.format.Height > pixfmt.MaxDimension {
			return PipelineConfig{}, types.ErrInvalidConfig{
				Field:  path.prefix + "width/" + path.prefix + "height",
				Reason: fmt.Sprintf("%dx%d exceeds the maximum of %d", path.format.Width, path.format.Height, pixfmt.MaxDimension),
			}
		}
	}
	if !cfg.Crop.IsZero() && cfg.Crop.Height == 0 {
		return PipelineConfig{}, types.ErrInvalidConfig{Field: "crop", Reason: "the height must be set together with the width"}
	}

	if mode != types.ModeFlyby {
		switch cfg.MemoryMode {
		case types.MemoryModeDMABuf, types.MemoryModeMMAP, types.MemoryModeUserPtr:
		default:
			return PipelineConfig{}, types.ErrInvalidConfig{Field: "memory", Reason: fmt.Sprintf("unknown memory type %d", uint32(cfg.MemoryMode))}
		}
	}

	var err error
	switch mode {
	case types.ModeCapture:
		err = cfg.Primary.resolve("", types.DirectionCapture, 1)
	case types.ModeRender:
		err = cfg.Primary.resolve("", types.DirectionOutput, 2)
	case types.ModeTransform:
		if cfg.Secondary.IsZero() {
			return PipelineConfig{}, types.ErrInvalidConfig{Field: "dst-width", Reason: "m2m requires the destination geometry"}
		}
		if err = cfg.Primary.resolve("", types.DirectionOutput, 1); err != nil {
			break
		}
		err = cfg.Secondary.resolve("dst-", types.DirectionCapture, 1)
	case types.ModeFlyby:
		if _, err = pixfmt.Lookup(cfg.Primary.Format.PixelFormat); err != nil {
			break
		}
		if !cfg.Secondary.IsZero() {
			if cfg.Secondary.Format.Height == 0 {
				return PipelineConfig{}, types.ErrInvalidConfig{Field: "dst-height", Reason: "must be set"}
			}
			_, err = pixfmt.Lookup(cfg.Secondary.Format.PixelFormat)
		}
	default:
		return PipelineConfig{}, types.ErrInvalidConfig{Field: "mode", Reason: fmt.Sprintf("unknown mode %s", mode)}
	}
	if err != nil {
		return PipelineConfig{}, err
	}
	return cfg, nil
}

func (c *PathConfig) resolve(prefix string, dir types.Direction, minBuffers int) error {
	if c.Format.Width == 0 || c.Format.Height == 0 {
		return types.ErrInvalidConfig{Field: prefix + "width/" + prefix + "height", Reason: "must be set"}
	}
	if c.BufferCount < minBuffers || c.BufferCount > types.MaxBufferCount {
		return types.ErrInvalidConfig{
			Field:  prefix + "buffer-count",
			Reason: fmt.Sprintf("must be in [%d, %d], got %d", minBuffers, types.MaxBufferCount, c.BufferCount),
		}
	}
	kind, err := pixfmt.PathKindFor(dir, c.Format.PixelFormat)
	if err != nil {
		return err
	}
	c.PathKind = kind
	return nil
}
