//go:build linux && (amd64 || arm64)

package main

import (
	"context"

	"github.com/xaionaro-go/v4l2pipeline/allocator/drm"
	"github.com/xaionaro-go/v4l2pipeline/device/v4l2"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

func openDevices(
	ctx context.Context,
	mode types.Mode,
	devicePath string,
	drmDevicePath string,
) (_ret *devices, _err error) {
	devs := &devices{}
	defer func() {
		if _err != nil {
			_ = devs.Close()
		}
	}()

	if mode == types.ModeFlyby {
		subdev, err := v4l2.OpenSubdevice(ctx, devicePath)
		if err != nil {
			return nil, err
		}
		devs.Subdevice = subdev
		devs.closers = append(devs.closers, subdev)
		return devs, nil
	}

	dev, err := v4l2.Open(ctx, devicePath)
	if err != nil {
		return nil, err
	}
	devs.Driver = dev
	devs.closers = append(devs.closers, dev)

	alloc, err := drm.Open(ctx, drmDevicePath)
	if err != nil {
		return nil, err
	}
	devs.Allocator = alloc
	devs.closers = append(devs.closers, alloc)
	return devs, nil
}
