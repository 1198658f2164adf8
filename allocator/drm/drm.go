//go:build linux && (amd64 || arm64)

// Package drm allocates DMA-BUF backed buffers as DRM dumb buffers.
package drm

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/v4l2pipeline/allocator"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/pixfmt"
	"github.com/xaionaro-go/v4l2pipeline/types"
	"golang.org/x/sys/unix"
)

const DefaultDevicePath = "/dev/dri/card0"

type drmModeCreateDumb struct {
	height uint32
	width  uint32
	bpp    uint32
	flags  uint32
	handle uint32
	pitch  uint32
	size   uint64
}

type drmPrimeHandle struct {
	handle uint32
	flags  uint32
	fd     int32
}

type drmGemClose struct {
	handle uint32
	pad    uint32
}

var (
	_ [0]struct{} = [unsafe.Sizeof(drmModeCreateDumb{}) - 32]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(drmPrimeHandle{}) - 12]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(drmGemClose{}) - 8]struct{}{}
)

func drmIOC(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | 'd'<<8 | nr
}

var (
	drmIoctlGemClose        = drmIOC(1, 0x09, unsafe.Sizeof(drmGemClose{}))
	drmIoctlPrimeHandleToFD = drmIOC(3, 0x2d, unsafe.Sizeof(drmPrimeHandle{}))
	drmIoctlModeCreateDumb  = drmIOC(3, 0xb2, unsafe.Sizeof(drmModeCreateDumb{}))
)

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}

// Allocator allocates one dumb buffer per memory plane and exports each
// of them as a dma-buf file descriptor; the GEM handle is closed right
// away, the dma-buf keeps the memory alive until Free.
type Allocator struct {
	Path string
	fd   int
}

var _ allocator.Allocator = (*Allocator)(nil)

func Open(ctx context.Context, path string) (*Allocator, error) {
	if path == "" {
		path = DefaultDevicePath
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, types.ErrOpenDevice{Path: path, Err: err}
	}
	return &Allocator{Path: path, fd: fd}, nil
}

func (a *Allocator) Close() error {
	return unix.Close(a.fd)
}

func (a *Allocator) Allocate(
	ctx context.Context,
	width, height uint32,
	pf types.PixelFormat,
) (_ret types.Buffer, _err error) {
	logger.Tracef(ctx, "Allocate(%dx%d %s)", width, height, pf)
	defer func() { logger.Tracef(ctx, "/Allocate(%dx%d %s): %v", width, height, pf, _err) }()

	layout, err := pixfmt.Layout(pf, width, height)
	if err != nil {
		return types.Buffer{}, err
	}

	var buf types.Buffer
	defer func() {
		if _err == nil {
			return
		}
		for _, p := range buf.Planes {
			_ = unix.Close(int(p.Handle))
		}
	}()
	for idx, geom := range layout {
		plane, err := a.allocatePlane(geom)
		if err != nil {
			return types.Buffer{}, fmt.Errorf("unable to allocate plane #%d (%s): %w", idx, humanize.IBytes(uint64(geom.Size)), err)
		}
		buf.Planes = append(buf.Planes, plane)
	}
	return buf, nil
}

func (a *Allocator) allocatePlane(geom types.PlaneGeometry) (types.Plane, error) {
	if geom.Stride == 0 {
		return types.Plane{}, errors.New("zero stride")
	}
	create := drmModeCreateDumb{
		width:  geom.Stride,
		height: (geom.Size + geom.Stride - 1) / geom.Stride,
		bpp:    8,
	}
	if err := ioctl(a.fd, drmIoctlModeCreateDumb, unsafe.Pointer(&create)); err != nil {
		return types.Plane{}, fmt.Errorf("DRM_IOCTL_MODE_CREATE_DUMB: %w", err)
	}
	defer func() {
		closeReq := drmGemClose{handle: create.handle}
		_ = ioctl(a.fd, drmIoctlGemClose, unsafe.Pointer(&closeReq))
	}()

	prime := drmPrimeHandle{
		handle: create.handle,
		flags:  unix.O_CLOEXEC | unix.O_RDWR,
	}
	if err := ioctl(a.fd, drmIoctlPrimeHandleToFD, unsafe.Pointer(&prime)); err != nil {
		return types.Plane{}, fmt.Errorf("DRM_IOCTL_PRIME_HANDLE_TO_FD: %w", err)
	}

	if create.pitch > geom.Stride {
		geom.Stride = create.pitch
	}
	if uint64(geom.Size) < create.size {
		geom.Size = uint32(create.size)
	}
	return types.Plane{PlaneGeometry: geom, Handle: types.Handle(prime.fd)}, nil
}

func (a *Allocator) Free(ctx context.Context, handle types.Handle) error {
	if !handle.IsValid() {
		return nil
	}
	if err := unix.Close(int(handle)); err != nil {
		return fmt.Errorf("unable to close dma-buf %d: %w", handle, err)
	}
	return nil
}
