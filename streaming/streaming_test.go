package streaming

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
)

func newConfig(t *testing.T, mode types.Mode, modify func(*config.Options)) config.PipelineConfig {
	opts := config.Default()
	opts.Width, opts.Height = 320, 240
	if modify != nil {
		modify(&opts)
	}
	cfg, err := config.New(mode, opts)
	require.NoError(t, err)
	return cfg
}

// callsAfter returns the calls recorded after the first call of op.
func callsAfter(calls []devicetest.Call, op devicetest.Op) []devicetest.Call {
	for idx, c := range calls {
		if c.Op == op {
			return calls[idx+1:]
		}
	}
	return nil
}

func TestCaptureKeepsAllBuffersQueued(t *testing.T) {
	for _, bufferCount := range []int{1, 3, 16} {
		for _, loopCount := range []int{0, 1, 7} {
			t.Run(fmt.Sprintf("buffers=%d/loops=%d", bufferCount, loopCount), func(t *testing.T) {
				ctx := context.Background()
				drv := devicetest.NewDriver()
				alloc := allocatortest.New()
				cfg := newConfig(t, types.ModeCapture, func(o *config.Options) {
					o.BufferCount = bufferCount
					o.LoopCount = loopCount
				})

				c := NewCapture(drv, alloc, cfg)
				require.NoError(t, c.Run(ctx))

				dequeues := drv.CallsOf(devicetest.OpDequeueBuffer)
				require.Len(t, dequeues, loopCount)
				for _, call := range dequeues {
					require.Equal(t, bufferCount, call.DeviceOwned)
				}
				for _, call := range callsAfter(drv.Calls, devicetest.OpStreamOn) {
					if call.Op == devicetest.OpQueueBuffer {
						require.Equal(t, bufferCount-1, call.DeviceOwned)
					}
				}

				require.Len(t, drv.CallsOf(devicetest.OpStreamOn), 1)
				require.Len(t, drv.CallsOf(devicetest.OpStreamOff), 1)
				require.False(t, drv.IsStreaming(cfg.Primary.PathKind))
				require.Equal(t, types.StreamStateStopped, c.Path.State())
				require.Nil(t, c.Path.Pool())
				require.Empty(t, alloc.Live)

				stats := c.Stats().Paths[0]
				require.Equal(t, uint64(bufferCount+loopCount), stats.Queued)
				require.Equal(t, uint64(loopCount), stats.Dequeued)
			})
		}
	}
}

func TestCaptureCommitsPoolGeometry(t *testing.T) {
	ctx := context.Background()
	drv := devicetest.NewDriver()
	cfg := newConfig(t, types.ModeCapture, func(o *config.Options) {
		o.Format = pixfmt.YUV420M
		o.LoopCount = 1
	})

	require.NoError(t, NewCapture(drv, allocatortest.New(), cfg).Run(ctx))

	expected, err := pixfmt.Layout(pixfmt.YUV420M, 320, 240)
	require.NoError(t, err)
	require.Equal(t, expected, drv.CommittedLayout(types.PathKindVideoCaptureMPlane))
}

func TestRenderLookAhead(t *testing.T) {
	for _, loopCount := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprintf("loops=%d", loopCount), func(t *testing.T) {
			ctx := context.Background()
			drv := devicetest.NewDriver()
			alloc := allocatortest.New()
			cfg := newConfig(t, types.ModeRender, func(o *config.Options) {
				o.BufferCount = 3
				o.LoopCount = loopCount
			})

			r := NewRender(drv, alloc, cfg)
			require.NoError(t, r.Run(ctx))

			queued := 0
			for _, call := range drv.Calls {
				switch call.Op {
				case devicetest.OpQueueBuffer:
					queued++
				case devicetest.OpDequeueBuffer:
					require.GreaterOrEqual(t, queued, LookAhead)
					require.Equal(t, LookAhead, call.DeviceOwned)
				}
			}
			require.Equal(t, loopCount, queued)
			require.Len(t, drv.CallsOf(devicetest.OpDequeueBuffer), max(0, loopCount-1))
			require.Equal(t, 1, r.Outstanding())

			require.Len(t, drv.CallsOf(devicetest.OpStreamOn), 1)
			afterRequest := callsAfter(drv.Calls, devicetest.OpRequestBuffers)
			require.Equal(t, devicetest.OpQueueBuffer, afterRequest[0].Op)
			require.Equal(t, devicetest.OpStreamOn, afterRequest[1].Op)
			require.Empty(t, alloc.Live)
		})
	}
}

func TestRenderSingleLoopNeverDequeues(t *testing.T) {
	drv := devicetest.NewDriver()
	cfg := newConfig(t, types.ModeRender, func(o *config.Options) { o.LoopCount = 1 })
	require.NoError(t, NewRender(drv, allocatortest.New(), cfg).Run(context.Background()))
	require.Empty(t, drv.CallsOf(devicetest.OpDequeueBuffer))
	require.Len(t, drv.CallsOf(devicetest.OpQueueBuffer), 1)
}

func TestRenderZeroLoopsNeverStreams(t *testing.T) {
	drv := devicetest.NewDriver()
	alloc := allocatortest.New()
	cfg := newConfig(t, types.ModeRender, func(o *config.Options) { o.LoopCount = 0 })

	r := NewRender(drv, alloc, cfg)
	require.NoError(t, r.Run(context.Background()))
	require.Empty(t, drv.CallsOf(devicetest.OpStreamOn))
	require.Empty(t, drv.CallsOf(devicetest.OpStreamOff))
	require.Equal(t, types.StreamStateStopped, r.Path.State())
	require.Empty(t, alloc.Live)
}

func TestRenderRequiresTwoBuffers(t *testing.T) {
	drv := devicetest.NewDriver()
	cfg := newConfig(t, types.ModeRender, nil)
	r := NewRender(drv, allocatortest.New(), cfg)
	r.Path.Config.BufferCount = 1

	var errCfg types.ErrInvalidConfig
	require.ErrorAs(t, r.Run(context.Background()), &errCfg)
	require.Empty(t, drv.Calls)
}

func newTransformConfig(t *testing.T, loopCount int) config.PipelineConfig {
	return newConfig(t, types.ModeTransform, func(o *config.Options) {
		o.Format = pixfmt.YUYV
		o.BufferCount = 3
		o.DstWidth, o.DstHeight = 160, 120
		o.DstFormat = pixfmt.NV12M
		o.DstBufferCount = 4
		o.LoopCount = loopCount
	})
}

func TestTransformCursorsAdvanceIndependently(t *testing.T) {
	ctx := context.Background()
	drv := devicetest.NewDriver()
	alloc := allocatortest.New()
	cfg := newTransformConfig(t, 10)

	tr := NewTransform(drv, alloc, cfg)
	require.NoError(t, tr.Run(ctx))

	require.Equal(t, types.SlotIndex(1), tr.Src.Cursor())
	require.Equal(t, types.SlotIndex(2), tr.Dst.Cursor())

	require.Len(t, drv.CallsOf(devicetest.OpDequeueBuffer), 20)
	require.Empty(t, alloc.Live)
	require.Equal(t, types.StreamStateStopped, tr.Src.State())
	require.Equal(t, types.StreamStateStopped, tr.Dst.State())

	stats := tr.Stats()
	require.Len(t, stats.Paths, 2)
	require.Equal(t, uint64(10), stats.Paths[0].Queued)
	require.Equal(t, uint64(10), stats.Paths[1].Dequeued)
}

func TestTransformOrdering(t *testing.T) {
	drv := devicetest.NewDriver()
	cfg := newTransformConfig(t, 2)
	src, dst := cfg.Primary.PathKind, cfg.Secondary.PathKind
	require.NoError(t, NewTransform(drv, allocatortest.New(), cfg).Run(context.Background()))

	type step struct {
		Op       devicetest.Op
		PathKind types.PathKind
	}
	var streaming []step
	for _, call := range callsAfter(drv.Calls, devicetest.OpRequestBuffers) {
		if call.Op == devicetest.OpRequestBuffers {
			continue
		}
		streaming = append(streaming, step{call.Op, call.PathKind})
	}
	require.Equal(t, []step{
		{devicetest.OpQueueBuffer, src},
		{devicetest.OpQueueBuffer, dst},
		{devicetest.OpStreamOn, src},
		{devicetest.OpStreamOn, dst},
		{devicetest.OpDequeueBuffer, src},
		{devicetest.OpDequeueBuffer, dst},
		{devicetest.OpQueueBuffer, src},
		{devicetest.OpQueueBuffer, dst},
		{devicetest.OpDequeueBuffer, src},
		{devicetest.OpDequeueBuffer, dst},
		{devicetest.OpStreamOff, src},
		{devicetest.OpStreamOff, dst},
	}, streaming)

	dstLayout, err := pixfmt.Layout(pixfmt.NV12M, 160, 120)
	require.NoError(t, err)
	require.Equal(t, dstLayout, drv.CommittedLayout(dst))
}

func TestTransformRequiresM2M(t *testing.T) {
	drv := devicetest.NewDriver()
	drv.Capabilities.Capabilities = types.CapVideoCapture | types.CapStreaming
	drv.Capabilities.DeviceCaps = drv.Capabilities.Capabilities
	alloc := allocatortest.New()

	err := NewTransform(drv, alloc, newTransformConfig(t, 1)).Run(context.Background())
	var errDev types.ErrUnsupportedDevice
	require.ErrorAs(t, err, &errDev)
	require.Zero(t, alloc.Allocations)
}

func TestUserPtrFailsFast(t *testing.T) {
	for _, mode := range []types.Mode{types.ModeCapture, types.ModeRender, types.ModeTransform} {
		t.Run(mode.String(), func(t *testing.T) {
			drv := devicetest.NewDriver()
			alloc := allocatortest.New()
			cfg := newTransformConfig(t, 3)
			cfg.Mode = mode
			cfg.MemoryMode = types.MemoryModeUserPtr

			var engine Engine
			switch mode {
			case types.ModeCapture:
				engine = NewCapture(drv, alloc, cfg)
			case types.ModeRender:
				engine = NewRender(drv, alloc, cfg)
			case types.ModeTransform:
				engine = NewTransform(drv, alloc, cfg)
			}
			err := engine.Run(context.Background())
			require.ErrorIs(t, err, types.ErrUnsupportedMemoryMode{MemoryMode: types.MemoryModeUserPtr})
			require.Empty(t, drv.Calls)
			require.Zero(t, alloc.Allocations)
		})
	}
}

func TestFailureTearsDown(t *testing.T) {
	errInjected := errors.New("injected")
	type testCase struct {
		name      string
		failOn    devicetest.Op
		nth       int
		streamOff bool
	}
	for _, tc := range []testCase{
		{"request-buffers", devicetest.OpRequestBuffers, 1, false},
		{"queue", devicetest.OpQueueBuffer, 2, false},
		{"stream-on", devicetest.OpStreamOn, 1, false},
		{"dequeue", devicetest.OpDequeueBuffer, 3, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			drv := devicetest.NewDriver()
			count := 0
			drv.FailFn = func(call devicetest.Call) error {
				if call.Op != tc.failOn {
					return nil
				}
				count++
				if count == tc.nth {
					return errInjected
				}
				return nil
			}
			alloc := allocatortest.New()
			cfg := newConfig(t, types.ModeCapture, func(o *config.Options) { o.BufferCount = 4 })

			c := NewCapture(drv, alloc, cfg)
			err := c.Run(ctx)
			require.ErrorIs(t, err, errInjected)
			var errDev types.ErrDevice
			require.ErrorAs(t, err, &errDev)

			require.Equal(t, tc.streamOff, len(drv.CallsOf(devicetest.OpStreamOff)) == 1)
			require.Empty(t, alloc.Live)
			require.Equal(t, types.StreamStateStopped, c.Path.State())
		})
	}
}

func TestTransformFailureTearsDown(t *testing.T) {
	errInjected := errors.New("injected")
	type testCase struct {
		failOn     devicetest.Op
		streamOffs int
	}
	for _, tc := range []testCase{
		{devicetest.OpSetFormat, 0},
		{devicetest.OpRequestBuffers, 0},
		{devicetest.OpQueueBuffer, 0},
		{devicetest.OpStreamOn, 1},
		{devicetest.OpDequeueBuffer, 2},
	} {
		t.Run(string(tc.failOn), func(t *testing.T) {
			ctx := context.Background()
			cfg := newTransformConfig(t, 5)
			dst := cfg.Secondary.PathKind
			drv := devicetest.NewDriver()
			drv.FailFn = func(call devicetest.Call) error {
				if call.Op == tc.failOn && call.PathKind == dst {
					return errInjected
				}
				return nil
			}
			alloc := allocatortest.New()

			tr := NewTransform(drv, alloc, cfg)
			err := tr.Run(ctx)
			require.ErrorIs(t, err, errInjected)

			require.Len(t, drv.CallsOf(devicetest.OpStreamOff), tc.streamOffs)
			for _, call := range drv.CallsOf(devicetest.OpStreamOff) {
				require.False(t, drv.IsStreaming(call.PathKind))
			}
			require.NotZero(t, alloc.Allocations)
			require.Empty(t, alloc.Live)
			require.Equal(t, types.StreamStateStopped, tr.Src.State())
			require.Equal(t, types.StreamStateStopped, tr.Dst.State())
			require.Nil(t, tr.Src.Pool())
			require.Nil(t, tr.Dst.Pool())
		})
	}
}

func TestOversizedGeometryFailsAllocation(t *testing.T) {
	drv := devicetest.NewDriver()
	alloc := allocatortest.New()
	c := NewCapture(drv, alloc, newConfig(t, types.ModeCapture, func(o *config.Options) { o.Format = pixfmt.YUYV }))
	c.Path.Config.Format.Width, c.Path.Config.Format.Height = 70000, 70000

	var errAlloc types.ErrAllocation
	require.ErrorAs(t, c.Run(context.Background()), &errAlloc)
	require.Empty(t, drv.CallsOf(devicetest.OpSetFormat))
	require.Empty(t, alloc.Live)
}

func TestFormatMismatchReleasesPool(t *testing.T) {
	drv := devicetest.NewDriver()
	drv.FormatOverride[types.PathKindVideoCaptureMPlane] = types.Format{Width: 320, Height: 240, PixelFormat: pixfmt.NV12}
	alloc := allocatortest.New()

	err := NewCapture(drv, alloc, newConfig(t, types.ModeCapture, nil)).Run(context.Background())
	var errMismatch types.ErrFormatMismatch
	require.ErrorAs(t, err, &errMismatch)
	require.Equal(t, pixfmt.YUV420, errMismatch.Requested.PixelFormat)
	require.Equal(t, 8, alloc.Allocations)
	require.Empty(t, alloc.Live)
	require.Empty(t, drv.CallsOf(devicetest.OpRequestBuffers))
}

func TestAllocationFailureStopsBeforeDevice(t *testing.T) {
	alloc := allocatortest.New()
	alloc.FailAt = 3
	drv := devicetest.NewDriver()

	err := NewCapture(drv, alloc, newConfig(t, types.ModeCapture, nil)).Run(context.Background())
	var errAlloc types.ErrAllocation
	require.ErrorAs(t, err, &errAlloc)
	require.Empty(t, alloc.Live)
	require.Empty(t, drv.CallsOf(devicetest.OpSetFormat))
}

type outOfRangeDriver struct {
	*devicetest.Driver
}

func (d outOfRangeDriver) DequeueBuffer(
	ctx context.Context,
	kind types.PathKind,
	memory types.MemoryMode,
	numPlanes int,
) (types.SlotIndex, error) {
	return types.MaxBufferCount + 1, nil
}

func TestOutOfRangeSlotFromDevice(t *testing.T) {
	drv := outOfRangeDriver{Driver: devicetest.NewDriver()}
	alloc := allocatortest.New()

	err := NewCapture(drv, alloc, newConfig(t, types.ModeCapture, nil)).Run(context.Background())
	var errDev types.ErrDevice
	require.ErrorAs(t, err, &errDev)
	require.Equal(t, "dequeue-buffer", errDev.Op)
	require.Empty(t, alloc.Live)
	require.Len(t, drv.CallsOf(devicetest.OpStreamOff), 1)
}
