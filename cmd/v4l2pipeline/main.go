package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/v4l2pipeline"
	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/config"
	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

const defaultDRMDevicePath = "/dev/dri/card0"

// devices are the opened device nodes a pipeline runs on.
type devices struct {
	Driver    device.Driver
	Subdevice device.Subdevice
	Allocator allocator.Allocator

	closers []io.Closer
}

func (d *devices) Close() error {
	var result []error
	for idx := len(d.closers) - 1; idx >= 0; idx-- {
		if err := d.closers[idx].Close(); err != nil {
			result = append(result, err)
		}
	}
	return errors.Join(result...)
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	usage := func() {
		fmt.Fprintf(os.Stderr, "syntax: %s <capture|render|m2m|flyby> <device-path> [options]\n", os.Args[0])
		config.PrintHelp(os.Stderr, fs)
	}

	loggerLevel := logger.LevelInfo
	fs.Var(&loggerLevel, "log-level", "Log level")
	drmDevicePath := fs.String("drm-device", defaultDRMDevicePath, "the DRM device to allocate the dma-buf buffers on")
	netPprofAddr := fs.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	opts, err := config.ParseFlags(fs, os.Args[1:])
	if err != nil {
		if !errors.As(err, &types.ErrHelpRequested{}) {
			fmt.Fprintln(os.Stderr, err)
		}
		usage()
		return v4l2pipeline.StatusCode(err)
	}
	if fs.NArg() != 2 {
		usage()
		return v4l2pipeline.StatusCode(types.ErrInvalidConfig{Field: "arguments", Reason: "expected the mode and the device path"})
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.SetDefault(func() logger.Logger {
		return l
	})
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	mode, err := types.ParseMode(fs.Arg(0))
	if err != nil {
		l.Error(err)
		return v4l2pipeline.StatusCode(types.ErrInvalidConfig{Field: "mode", Reason: err.Error()})
	}
	cfg, err := config.New(mode, opts)
	if err != nil {
		l.Error(err)
		return v4l2pipeline.StatusCode(err)
	}

	devicePath := fs.Arg(1)
	l.Debugf("opening '%s'...", devicePath)
	devs, err := openDevices(ctx, mode, devicePath, *drmDevicePath)
	if err != nil {
		l.Error(err)
		return v4l2pipeline.StatusCode(err)
	}
	defer func() {
		if err := devs.Close(); err != nil {
			l.Errorf("unable to close the devices: %v", err)
		}
	}()

	pipeline := v4l2pipeline.New(cfg, devs.Driver, devs.Subdevice, devs.Allocator)
	errCh := make(chan error, 1)
	observability.Go(ctx, func(context.Context) {
		errCh <- pipeline.Run(ctx)
	})

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case err := <-errCh:
			printStats(ctx, pipeline)
			if err != nil {
				l.Errorf("the pipeline failed: %v", err)
			}
			return v4l2pipeline.StatusCode(err)
		case <-t.C:
			printStats(ctx, pipeline)
		}
	}
}

func printStats(ctx context.Context, pipeline *v4l2pipeline.Pipeline) {
	stats := pipeline.GetStats(ctx)
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		logger.Error(ctx, err)
		return
	}
	var poolBytes uint64
	for _, path := range stats.Paths {
		poolBytes += path.PoolBytes
	}
	fmt.Printf("%s (buffers: %s)\n", statsJSON, humanize.IBytes(poolBytes))
}
