//go:build !(linux && (amd64 || arm64))

package main

import (
	"context"
	"errors"

	"github.com/xaionaro-go/v4l2pipeline/types"
)

func openDevices(
	ctx context.Context,
	mode types.Mode,
	devicePath string,
	drmDevicePath string,
) (*devices, error) {
	return nil, types.ErrOpenDevice{
		Path: devicePath,
		Err:  errors.New("V4L2 devices are supported on linux/amd64 and linux/arm64 only"),
	}
}
