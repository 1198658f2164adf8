//go:build linux && (amd64 || arm64)

package v4l2

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/types"
	"golang.org/x/sys/unix"
)

// Subdevice is an opened sub-device node of an in-line pixel pipeline.
//
// The pad 0 is the sink pad, the pad 1 is the source pad. The pixel format
// fourcc is passed as the media bus code, which is what vendor pixel
// pipelines of this kind expect.
//
// Start and Stop rely on vendor behaviour too: vendor pipelines accept
// STREAMON/STREAMOFF on the subdev node, mainline subdevice nodes reject
// them.
type Subdevice struct {
	Path string
	fd   int
}

var _ device.Subdevice = (*Subdevice)(nil)

func OpenSubdevice(ctx context.Context, path string) (_ret *Subdevice, _err error) {
	logger.Debugf(ctx, "OpenSubdevice(%s)", path)
	defer func() { logger.Debugf(ctx, "/OpenSubdevice(%s): %v", path, _err) }()

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, types.ErrOpenDevice{Path: path, Err: err}
	}
	return &Subdevice{Path: path, fd: fd}, nil
}

func (s *Subdevice) Close() error {
	return unix.Close(s.fd)
}

func (s *Subdevice) setPadFormat(pad uint32, format types.Format, field types.Field) error {
	f := v4l2SubdevFormat{
		which: v4l2SubdevFormatActive,
		pad:   pad,
		format: v4l2MbusFramefmt{
			width:  format.Width,
			height: format.Height,
			code:   uint32(format.PixelFormat),
			field:  uint32(field),
		},
	}
	if err := ioctl(s.fd, vidiocSubdevSFmt, unsafe.Pointer(&f)); err != nil {
		return fmt.Errorf("VIDIOC_SUBDEV_S_FMT(pad:%d): %w", pad, err)
	}
	return nil
}

func (s *Subdevice) SetFormat(ctx context.Context, format types.Format, field types.Field) error {
	return s.setPadFormat(subdevPadSink, format, field)
}

func (s *Subdevice) SetDstFormat(ctx context.Context, format types.Format, field types.Field) error {
	return s.setPadFormat(subdevPadSource, format, field)
}

func (s *Subdevice) SetCrop(ctx context.Context, crop types.Rect) error {
	sel := v4l2SubdevSelection{
		which:  v4l2SubdevFormatActive,
		pad:    subdevPadSink,
		target: v4l2SelTgtCrop,
		r: v4l2Rect{
			left:   int32(crop.X),
			top:    int32(crop.Y),
			width:  crop.Width,
			height: crop.Height,
		},
	}
	if err := ioctl(s.fd, vidiocSubdevSSel, unsafe.Pointer(&sel)); err != nil {
		return fmt.Errorf("VIDIOC_SUBDEV_S_SELECTION: %w", err)
	}
	return nil
}

// Start starts the pipeline by issuing a stream-on request on the node.
func (s *Subdevice) Start(ctx context.Context) error {
	typ := int32(types.PathKindVideoCapture)
	if err := ioctl(s.fd, vidiocStreamon, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("unable to start the subdevice pipeline: %w", err)
	}
	return nil
}

func (s *Subdevice) Stop(ctx context.Context) error {
	typ := int32(types.PathKindVideoCapture)
	if err := ioctl(s.fd, vidiocStreamoff, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("unable to stop the subdevice pipeline: %w", err)
	}
	return nil
}
