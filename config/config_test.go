package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/v4l2pipeline/pixfmt"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	return fs
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := ParseFlags(newFlagSet(), nil)
	require.NoError(t, err)
	require.Equal(t, Default(), opts)
	require.Equal(t, pixfmt.YUV420, opts.Format)
	require.Equal(t, 8, opts.BufferCount)
	require.Equal(t, 100, opts.LoopCount)
	require.Equal(t, types.MemoryModeDMABuf, opts.Memory)
}

func TestParseFlagsShortAndLong(t *testing.T) {
	opts, err := ParseFlags(newFlagSet(), []string{
		"-w", "1920", "-h", "1080", "-f", "NV12", "-b", "4",
		"--dst-width=1280", "-H", "720", "-F", "YUYV", "-B", "3",
		"-l", "7", "-m", "mmap", "-c", "10:20:640:480", "-d",
	})
	require.NoError(t, err)
	require.Equal(t, Options{
		Width:          1920,
		Height:         1080,
		Format:         pixfmt.NV12,
		BufferCount:    4,
		DstWidth:       1280,
		DstHeight:      720,
		DstFormat:      pixfmt.YUYV,
		DstBufferCount: 3,
		LoopCount:      7,
		Memory:         types.MemoryModeMMAP,
		Crop:           types.Rect{X: 10, Y: 20, Width: 640, Height: 480},
		Display:        true,
	}, opts)
}

func TestParseFlagsInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"-f", "NV1"},
		{"-m", "shm"},
		{"-c", "1:2:3"},
		{"--no-such-flag"},
	} {
		_, err := ParseFlags(newFlagSet(), args)
		var errCfg types.ErrInvalidConfig
		require.ErrorAs(t, err, &errCfg, "%v", args)
	}
}

func TestParseFlagsHelp(t *testing.T) {
	fs := newFlagSet()
	_, err := ParseFlags(fs, []string{"-q"})
	require.ErrorIs(t, err, types.ErrHelpRequested{})

	var out bytes.Buffer
	PrintHelp(&out, fs)
	require.Contains(t, out.String(), "--loop-count")
	require.Contains(t, out.String(), "NM12")
	require.Contains(t, out.String(), "V4L2_MEMORY_DMABUF")
}

func TestParseFlagsConfigFileOverriddenByFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
width: 640
height: 480
format: NM12
buffer_count: 2
memory: mmap
crop:
  x: 1
  y: 2
  width: 100
  height: 50
`), 0o644))

	opts, err := ParseFlags(newFlagSet(), []string{"--config", path, "-b", "5"})
	require.NoError(t, err)
	require.Equal(t, uint32(640), opts.Width)
	require.Equal(t, uint32(480), opts.Height)
	require.Equal(t, pixfmt.NV12M, opts.Format)
	require.Equal(t, 5, opts.BufferCount)
	require.Equal(t, types.MemoryModeMMAP, opts.Memory)
	require.Equal(t, types.Rect{X: 1, Y: 2, Width: 100, Height: 50}, opts.Crop)
	require.Equal(t, 100, opts.LoopCount)
}

func TestParseFlagsMissingConfigFile(t *testing.T) {
	_, err := ParseFlags(newFlagSet(), []string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func validOptions() Options {
	opts := Default()
	opts.Width = 640
	opts.Height = 480
	return opts
}

func TestNewResolvesPathKinds(t *testing.T) {
	opts := validOptions()
	opts.Format = pixfmt.YUYV

	cfg, err := New(types.ModeCapture, opts)
	require.NoError(t, err)
	require.Equal(t, types.PathKindVideoCapture, cfg.Primary.PathKind)
	require.True(t, cfg.Secondary.IsZero())

	cfg, err = New(types.ModeRender, opts)
	require.NoError(t, err)
	require.Equal(t, types.PathKindVideoOutput, cfg.Primary.PathKind)

	opts.DstWidth, opts.DstHeight, opts.DstFormat = 320, 240, pixfmt.NV12M
	cfg, err = New(types.ModeTransform, opts)
	require.NoError(t, err)
	require.Equal(t, types.PathKindVideoOutput, cfg.Primary.PathKind)
	require.Equal(t, types.PathKindVideoCaptureMPlane, cfg.Secondary.PathKind)
	require.Equal(t, types.Format{Width: 320, Height: 240, PixelFormat: pixfmt.NV12M}, cfg.Secondary.Format)
}

func TestNewRejects(t *testing.T) {
	type testCase struct {
		name   string
		mode   types.Mode
		modify func(*Options)
		field  string
	}
	for _, tc := range []testCase{
		{"no-geometry", types.ModeCapture, func(o *Options) { o.Width = 0 }, "width/height"},
		{"negative-loop", types.ModeCapture, func(o *Options) { o.LoopCount = -1 }, "loop-count"},
		{"too-many-buffers", types.ModeCapture, func(o *Options) { o.BufferCount = 17 }, "buffer-count"},
		{"render-single-buffer", types.ModeRender, func(o *Options) { o.BufferCount = 1 }, "buffer-count"},
		{"m2m-without-dst", types.ModeTransform, func(o *Options) {}, "dst-width"},
		{"m2m-dst-buffers", types.ModeTransform, func(o *Options) {
			o.DstWidth, o.DstHeight, o.DstBufferCount = 320, 240, 0
		}, "dst-buffer-count"},
		{"crop-without-height", types.ModeFlyby, func(o *Options) { o.Crop = types.Rect{Width: 10} }, "crop"},
		{"unknown-memory", types.ModeCapture, func(o *Options) { o.Memory = types.MemoryModeUndefined }, "memory"},
		{"unknown-mode", types.ModeUndefined, func(o *Options) {}, "mode"},
		{"too-wide", types.ModeCapture, func(o *Options) { o.Width = 70000 }, "width/height"},
		{"too-tall", types.ModeCapture, func(o *Options) { o.Height = pixfmt.MaxDimension + 1 }, "width/height"},
		{"dst-too-large", types.ModeTransform, func(o *Options) {
			o.DstWidth, o.DstHeight = 70000, 70000
		}, "dst-width/dst-height"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := validOptions()
			tc.modify(&opts)
			_, err := New(tc.mode, opts)
			var errCfg types.ErrInvalidConfig
			require.ErrorAs(t, err, &errCfg)
			require.Equal(t, tc.field, errCfg.Field)
		})
	}
}

func TestNewUnsupportedFormat(t *testing.T) {
	opts := validOptions()
	opts.Format = types.FourCC('M', 'J', 'P', 'G')
	_, err := New(types.ModeCapture, opts)
	var errFmt types.ErrUnsupportedFormat
	require.ErrorAs(t, err, &errFmt)
	require.Equal(t, opts.Format, errFmt.PixelFormat)
}

func TestNewAcceptsUserPtr(t *testing.T) {
	opts := validOptions()
	opts.Memory = types.MemoryModeUserPtr
	cfg, err := New(types.ModeCapture, opts)
	require.NoError(t, err)
	require.Equal(t, types.MemoryModeUserPtr, cfg.MemoryMode)
}
