package v4l2pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/v4l2pipeline/allocator/allocatortest"
	"github.com/xaionaro-go/v4l2pipeline/config"
	"github.com/xaionaro-go/v4l2pipeline/device/devicetest"
	"github.com/xaionaro-go/v4l2pipeline/pixfmt"
	"github.com/xaionaro-go/v4l2pipeline/types"
	"golang.org/x/sys/unix"
)

func newConfig(t *testing.T, mode types.Mode, modify func(*config.Options)) config.PipelineConfig {
	opts := config.Default()
	opts.Width, opts.Height = 640, 480
	opts.LoopCount = 4
	if modify != nil {
		modify(&opts)
	}
	cfg, err := config.New(mode, opts)
	require.NoError(t, err)
	return cfg
}

func TestPipelineRunsEveryStreamingMode(t *testing.T) {
	for _, mode := range []types.Mode{types.ModeCapture, types.ModeRender, types.ModeTransform} {
		t.Run(mode.String(), func(t *testing.T) {
			ctx := context.Background()
			cfg := newConfig(t, mode, func(o *config.Options) {
				o.DstWidth, o.DstHeight = 320, 240
				o.DstFormat = pixfmt.NV21
			})
			drv := devicetest.NewDriver()
			alloc := allocatortest.New()

			p := New(cfg, drv, nil, alloc)
			require.Equal(t, &Statistics{Mode: mode.String()}, p.GetStats(ctx))

			require.NoError(t, p.Run(ctx))
			require.Empty(t, alloc.Live)

			stats := p.GetStats(ctx)
			require.Equal(t, mode.String(), stats.Mode)
			require.NotEmpty(t, stats.Paths)
			for _, path := range stats.Paths {
				require.Equal(t, types.StreamStateStopped.String(), path.State)
				require.NotZero(t, path.Queued)
			}
		})
	}
}

func TestPipelineFlyby(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, types.ModeFlyby, func(o *config.Options) { o.LoopCount = 0 })
	subdev := &devicetest.Subdevice{}

	p := New(cfg, nil, subdev, nil)
	require.NoError(t, p.Run(ctx))
	require.Equal(t, devicetest.OpSubdevStop, subdev.Calls[len(subdev.Calls)-1])

	stats := p.GetStats(ctx)
	require.Equal(t, uint64(1), stats.FlybyIterations)
	require.False(t, stats.FlybyRunning)
}

func TestStatusCode(t *testing.T) {
	errIO := errors.New("EIO")
	for _, tc := range []struct {
		err      error
		expected int
	}{
		{nil, 0},
		{types.ErrHelpRequested{}, -int(unix.EBUSY)},
		{fmt.Errorf("unable to open the device: %w", types.ErrOpenDevice{Path: "/dev/video0", Err: unix.ENOENT}), -int(unix.ENODEV)},
		{types.ErrAllocation{Index: 2, Count: 8, Err: errIO}, -int(unix.ENOMEM)},
		{types.ErrFormat{Op: "set", Err: errIO}, -int(unix.EINVAL)},
		{types.ErrFormatMismatch{}, -int(unix.EINVAL)},
		{types.ErrUnsupportedFormat{PixelFormat: types.FourCC('M', 'J', 'P', 'G')}, -int(unix.EINVAL)},
		{types.ErrUnsupportedDevice{Reason: "no m2m"}, -int(unix.EINVAL)},
		{types.ErrUnsupportedMemoryMode{MemoryMode: types.MemoryModeUserPtr}, -int(unix.EINVAL)},
		{types.ErrInvalidConfig{Field: "width"}, -int(unix.EINVAL)},
		{types.ErrDevice{Op: "dequeue-buffer", Err: errIO}, -int(unix.EIO)},
		{errIO, -int(unix.EIO)},
	} {
		require.Equal(t, tc.expected, StatusCode(tc.err), "%v", tc.err)
	}
}

func TestStatusCodeOfFailedRun(t *testing.T) {
	ctx := context.Background()
	drv := devicetest.NewDriver()
	drv.FormatOverride[types.PathKindVideoCaptureMPlane] = types.Format{Width: 1, Height: 1, PixelFormat: pixfmt.YUV420}
	err := New(newConfig(t, types.ModeCapture, nil), drv, nil, allocatortest.New()).Run(ctx)
	require.Equal(t, -int(unix.EINVAL), StatusCode(err))
}
