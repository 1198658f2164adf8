// options.go defines the raw, flag-bound options and their defaults.

// Package config turns command-line flags and an optional YAML file into
// the immutable configuration of a pipeline run.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/xaionaro-go/v4l2pipeline/pixfmt"
	"github.com/xaionaro-go/v4l2pipeline/types"
	"gopkg.in/yaml.v3"
)

// Options are the raw options as given by the user. Only Default, the
// flag parser and LoadFile write to it; the pipeline consumes the
// PipelineConfig built from it by New.
type Options struct {
	Width          uint32            `yaml:"width"`
	Height         uint32            `yaml:"height"`
	Format         types.PixelFormat `yaml:"format"`
	BufferCount    int               `yaml:"buffer_count"`
	DstWidth       uint32            `yaml:"dst_width"`
	DstHeight      uint32            `yaml:"dst_height"`
	DstFormat      types.PixelFormat `yaml:"dst_format"`
	DstBufferCount int               `yaml:"dst_buffer_count"`
	LoopCount      int               `yaml:"loop_count"`
	Memory         types.MemoryMode  `yaml:"memory"`
	Crop           types.Rect        `yaml:"crop"`
	Display        bool              `yaml:"display"`
}

func Default() Options {
	return Options{
		Format:         pixfmt.YUV420,
		BufferCount:    8,
		DstFormat:      pixfmt.YUV420,
		DstBufferCount: 8,
		LoopCount:      100,
		Memory:         types.MemoryModeDMABuf,
	}
}

// LoadFile overlays the YAML file on top of opts.
func LoadFile(path string, opts *Options) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(b, opts); err != nil {
		return fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	return nil
}

// AddFlags binds the options to the flag set, using the current values as
// the defaults.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.Uint32VarP(&o.Width, "width", "w", o.Width, "width")
	fs.Uint32VarP(&o.Height, "height", "h", o.Height, "height")
	fs.VarP((*pixelFormatValue)(&o.Format), "format", "f", "pixel format (fourcc)")
	fs.IntVarP(&o.BufferCount, "buffer-count", "b", o.BufferCount, "buffer count")
	fs.Uint32VarP(&o.DstWidth, "dst-width", "W", o.DstWidth, "dst width")
	fs.Uint32VarP(&o.DstHeight, "dst-height", "H", o.DstHeight, "dst height")
	fs.VarP((*pixelFormatValue)(&o.DstFormat), "dst-format", "F", "dst pixel format (fourcc)")
	fs.IntVarP(&o.DstBufferCount, "dst-buffer-count", "B", o.DstBufferCount, "dst buffer count")
	fs.IntVarP(&o.LoopCount, "loop-count", "l", o.LoopCount, "loop count")
	fs.VarP((*memoryModeValue)(&o.Memory), "memory", "m", "v4l2 memory type: dmabuf, mmap or userptr")
	fs.VarP((*rectValue)(&o.Crop), "crop", "c", "source crop 'x:y:width:height'")
	fs.BoolVarP(&o.Display, "display", "d", o.Display, "display on")
}

// ParseFlags parses args: the optional --config YAML file is loaded first,
// then the flags override it. -q returns ErrHelpRequested; the caller is
// expected to print PrintHelp then.
func ParseFlags(fs *pflag.FlagSet, args []string) (Options, error) {
	pre := pflag.NewFlagSet("config", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	configPath := pre.String("config", "", "")
	pre.BoolP("help", "q", false, "")
	_ = pre.Parse(args)

	opts := Default()
	if *configPath != "" {
		if err := LoadFile(*configPath, &opts); err != nil {
			return Options{}, err
		}
	}

	opts.AddFlags(fs)
	fs.String("config", "", "YAML file with the options; flags take precedence")
	help := fs.BoolP("help", "q", false, "print this")
	if err := fs.Parse(args); err != nil {
		return Options{}, types.ErrInvalidConfig{Field: "flags", Reason: err.Error()}
	}
	if *help {
		return Options{}, types.ErrHelpRequested{}
	}
	return opts, nil
}

// PrintHelp prints the options and the supported pixel formats and memory types.
func PrintHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Options:\n%s\n", fs.FlagUsages())

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "Available formats:\n")
	for _, info := range pixfmt.All() {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", info.PixelFormat, info.Family, info.Description)
	}
	fmt.Fprintf(tw, "\nAvailable memory types:\n")
	for _, m := range []types.MemoryMode{types.MemoryModeDMABuf, types.MemoryModeMMAP, types.MemoryModeUserPtr} {
		fmt.Fprintf(tw, "  %s\tV4L2_MEMORY_%s\n", strings.ToLower(m.String()), m)
	}
	tw.Flush()
}

type pixelFormatValue types.PixelFormat

func (v *pixelFormatValue) String() string { return types.PixelFormat(*v).String() }
func (v *pixelFormatValue) Type() string   { return "fourcc" }
func (v *pixelFormatValue) Set(s string) error {
	pf, err := types.ParsePixelFormat(s)
	if err != nil {
		return err
	}
	*v = pixelFormatValue(pf)
	return nil
}

type memoryModeValue types.MemoryMode

func (v *memoryModeValue) String() string { return strings.ToLower(types.MemoryMode(*v).String()) }
func (v *memoryModeValue) Type() string   { return "memory" }
func (v *memoryModeValue) Set(s string) error {
	m, err := types.ParseMemoryMode(s)
	if err != nil {
		return err
	}
	*v = memoryModeValue(m)
	return nil
}

type rectValue types.Rect

func (v *rectValue) String() string { return types.Rect(*v).String() }
func (v *rectValue) Type() string   { return "rect" }
func (v *rectValue) Set(s string) error {
	r, err := types.ParseRect(s)
	if err != nil {
		return err
	}
	*v = rectValue(r)
	return nil
}
