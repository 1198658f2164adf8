//go:build linux && (amd64 || arm64)

// Package v4l2 implements the device interfaces on top of a Linux
// Video4Linux2 device node using raw ioctls.
package v4l2

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/types"
	"golang.org/x/sys/unix"
)

// Device is an opened video device node.
type Device struct {
	Path string
	fd   int
}

var _ device.Driver = (*Device)(nil)

func Open(ctx context.Context, path string) (_ret *Device, _err error) {
	logger.Debugf(ctx, "Open(%s)", path)
	defer func() { logger.Debugf(ctx, "/Open(%s): %v", path, _err) }()

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, types.ErrOpenDevice{Path: path, Err: err}
	}
	return &Device{Path: path, fd: fd}, nil
}

func (d *Device) String() string {
	return fmt.Sprintf("v4l2(%s)", d.Path)
}

func (d *Device) Close() error {
	return unix.Close(d.fd)
}

func (d *Device) QueryCapabilities(ctx context.Context) (types.Capabilities, error) {
	var c v4l2Capability
	if err := ioctl(d.fd, vidiocQuerycap, unsafe.Pointer(&c)); err != nil {
		return types.Capabilities{}, fmt.Errorf("VIDIOC_QUERYCAP: %w", err)
	}
	return types.Capabilities{
		Driver:       str(c.driver[:]),
		Card:         str(c.card[:]),
		BusInfo:      str(c.busInfo[:]),
		Version:      c.version,
		Capabilities: c.capabilities,
		DeviceCaps:   c.deviceCaps,
	}, nil
}

func (d *Device) EnumerateFormat(
	ctx context.Context,
	index uint32,
	kind types.PathKind,
) (types.FormatDescriptor, error) {
	desc := v4l2Fmtdesc{
		index: index,
		typ:   uint32(kind),
	}
	if err := ioctl(d.fd, vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
		if errors.Is(err, unix.EINVAL) {
			return types.FormatDescriptor{}, device.ErrNoMoreEntries
		}
		return types.FormatDescriptor{}, fmt.Errorf("VIDIOC_ENUM_FMT #%d: %w", index, err)
	}
	return types.FormatDescriptor{
		Index:       desc.index,
		PathKind:    types.PathKind(desc.typ),
		Flags:       desc.flags,
		Description: str(desc.description[:]),
		PixelFormat: types.PixelFormat(desc.pixelformat),
	}, nil
}

func buildFormat(
	kind types.PathKind,
	format types.Format,
	layout types.PlaneLayout,
) (*v4l2Format, error) {
	f := &v4l2Format{typ: uint32(kind)}
	if kind.IsMultiPlane() {
		if len(layout) > len(f.pixMP().planeFmt) {
			return nil, fmt.Errorf("too many planes: %d", len(layout))
		}
		pix := f.pixMP()
		pix.width = format.Width
		pix.height = format.Height
		pix.pixelformat = uint32(format.PixelFormat)
		pix.field = v4l2FieldNone
		pix.numPlanes = uint8(len(layout))
		for idx, p := range layout {
			pix.planeFmt[idx].bytesperline = p.Stride
			pix.planeFmt[idx].sizeimage = p.Size
		}
		return f, nil
	}

	pix := f.pix()
	pix.width = format.Width
	pix.height = format.Height
	pix.pixelformat = uint32(format.PixelFormat)
	pix.field = v4l2FieldNone
	if len(layout) > 0 {
		pix.bytesperline = layout[0].Stride
		pix.sizeimage = uint32(layout.TotalSize())
	}
	return f, nil
}

func (d *Device) TryFormat(ctx context.Context, kind types.PathKind, format types.Format) error {
	f, err := buildFormat(kind, format, nil)
	if err != nil {
		return err
	}
	if err := ioctl(d.fd, vidiocTryFmt, unsafe.Pointer(f)); err != nil {
		return fmt.Errorf("VIDIOC_TRY_FMT: %w", err)
	}
	return nil
}

func (d *Device) SetFormat(
	ctx context.Context,
	kind types.PathKind,
	format types.Format,
	layout types.PlaneLayout,
) error {
	f, err := buildFormat(kind, format, layout)
	if err != nil {
		return err
	}
	if err := ioctl(d.fd, vidiocSFmt, unsafe.Pointer(f)); err != nil {
		return fmt.Errorf("VIDIOC_S_FMT: %w", err)
	}
	return nil
}

func (d *Device) GetFormat(ctx context.Context, kind types.PathKind) (types.Format, error) {
	f := &v4l2Format{typ: uint32(kind)}
	if err := ioctl(d.fd, vidiocGFmt, unsafe.Pointer(f)); err != nil {
		return types.Format{}, fmt.Errorf("VIDIOC_G_FMT: %w", err)
	}
	if kind.IsMultiPlane() {
		pix := f.pixMP()
		return types.Format{Width: pix.width, Height: pix.height, PixelFormat: types.PixelFormat(pix.pixelformat)}, nil
	}
	pix := f.pix()
	return types.Format{Width: pix.width, Height: pix.height, PixelFormat: types.PixelFormat(pix.pixelformat)}, nil
}

func (d *Device) RequestBuffers(
	ctx context.Context,
	kind types.PathKind,
	memory types.MemoryMode,
	count uint32,
) error {
	req := v4l2RequestBuffers{
		count:  count,
		typ:    uint32(kind),
		memory: uint32(memory),
	}
	if err := ioctl(d.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("VIDIOC_REQBUFS(%d): %w", count, err)
	}
	if req.count != count {
		logger.Warnf(ctx, "requested %d buffers on %s, the device provided %d", count, kind, req.count)
	}
	return nil
}

func (d *Device) QueueBuffer(
	ctx context.Context,
	kind types.PathKind,
	memory types.MemoryMode,
	buf device.QueuedBuffer,
) error {
	b := &v4l2Buffer{
		index:  uint32(buf.Slot),
		typ:    uint32(kind),
		memory: uint32(memory),
	}

	var planes [types.MaxPlanes]v4l2Plane
	switch {
	case kind.IsMultiPlane():
		if len(buf.Planes) > len(planes) {
			return fmt.Errorf("too many planes: %d", len(buf.Planes))
		}
		for idx, p := range buf.Planes {
			planes[idx].length = p.Size
			if memory == types.MemoryModeDMABuf {
				planes[idx].bytesused = p.Size
				planes[idx].m = uint64(uint32(int32(p.Handle)))
			}
		}
		b.length = uint32(len(buf.Planes))
		*(*unsafe.Pointer)(unsafe.Pointer(&b.m)) = unsafe.Pointer(&planes[0])
	case memory == types.MemoryModeDMABuf:
		if len(buf.Planes) != 1 {
			return fmt.Errorf("a single-plane path expects exactly one plane, got %d", len(buf.Planes))
		}
		b.m = uint64(uint32(int32(buf.Planes[0].Handle)))
		b.length = buf.Planes[0].Size
		b.bytesused = buf.Planes[0].Size
	}

	err := ioctl(d.fd, vidiocQbuf, unsafe.Pointer(b))
	runtime.KeepAlive(&planes)
	if err != nil {
		return fmt.Errorf("VIDIOC_QBUF(%d): %w", buf.Slot, err)
	}
	return nil
}

func (d *Device) DequeueBuffer(
	ctx context.Context,
	kind types.PathKind,
	memory types.MemoryMode,
	numPlanes int,
) (types.SlotIndex, error) {
	b := &v4l2Buffer{
		typ:    uint32(kind),
		memory: uint32(memory),
	}

	var planes [types.MaxPlanes]v4l2Plane
	if kind.IsMultiPlane() {
		if numPlanes <= 0 || numPlanes > len(planes) {
			numPlanes = len(planes)
		}
		b.length = uint32(numPlanes)
		*(*unsafe.Pointer)(unsafe.Pointer(&b.m)) = unsafe.Pointer(&planes[0])
	}

	err := ioctl(d.fd, vidiocDqbuf, unsafe.Pointer(b))
	runtime.KeepAlive(&planes)
	if err != nil {
		return 0, fmt.Errorf("VIDIOC_DQBUF: %w", err)
	}
	return types.SlotIndex(b.index), nil
}

func (d *Device) StreamOn(ctx context.Context, kind types.PathKind) error {
	typ := int32(kind)
	if err := ioctl(d.fd, vidiocStreamon, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("VIDIOC_STREAMON: %w", err)
	}
	return nil
}

func (d *Device) StreamOff(ctx context.Context, kind types.PathKind) error {
	typ := int32(kind)
	if err := ioctl(d.fd, vidiocStreamoff, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("VIDIOC_STREAMOFF: %w", err)
	}
	return nil
}
