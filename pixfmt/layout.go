package pixfmt

import (
	"fmt"
	"math"

	"github.com/xaionaro-go/v4l2pipeline/types"
)

// StrideAlignment is the byte alignment of the first (luma or packed) plane stride.
const StrideAlignment = 32

// MaxDimension is the largest accepted width or height.
const MaxDimension = 16384

func align(v, a uint64) uint64 {
	return (v + a - 1) / a * a
}

func ceilShift(v, shift uint32) uint64 {
	return (uint64(v) + (1 << shift) - 1) >> shift
}

// geometry returns the plane geometry of rows lines of stride bytes, failing
// if either value does not fit the 32-bit plane fields.
func geometry(stride, rows uint64) (types.PlaneGeometry, error) {
	size := stride * rows
	if stride > math.MaxUint32 || size > math.MaxUint32 {
		return types.PlaneGeometry{}, fmt.Errorf("a plane of %d lines of %d bytes exceeds %d bytes", rows, stride, uint64(math.MaxUint32))
	}
	return types.PlaneGeometry{Stride: uint32(stride), Size: uint32(size)}, nil
}

// ColorPlanes returns the geometry of every colour plane of a frame of the
// given format, regardless of how they are grouped into memory planes.
func ColorPlanes(pf PixelFormat, width, height uint32) (types.PlaneLayout, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("invalid geometry %dx%d", width, height)
	}
	info, err := Lookup(pf)
	if err != nil {
		return nil, err
	}

	var (
		lumaStride   uint64
		chromaStride uint64
		chromaPlanes int
	)
	switch info.Family {
	case FamilyPacked:
		lumaStride = align(uint64(width)*uint64(info.BitsPerPixel)/8, StrideAlignment)
	case FamilyPlanar:
		lumaStride = align(uint64(width), StrideAlignment)
		chromaStride = lumaStride >> info.ChromaShiftX
		chromaPlanes = 2
	case FamilySemiPlanar:
		lumaStride = align(uint64(width), StrideAlignment)
		chromaStride = (lumaStride >> info.ChromaShiftX) * 2
		chromaPlanes = 1
	default:
		return nil, fmt.Errorf("internal error: unexpected family %s of %s", info.Family, pf)
	}

	luma, err := geometry(lumaStride, uint64(height))
	if err != nil {
		return nil, fmt.Errorf("%s %dx%d: %w", pf, width, height, err)
	}
	result := types.PlaneLayout{luma}
	if chromaPlanes == 0 {
		return result, nil
	}
	chroma, err := geometry(chromaStride, ceilShift(height, info.ChromaShiftY))
	if err != nil {
		return nil, fmt.Errorf("%s %dx%d: %w", pf, width, height, err)
	}
	for i := 0; i < chromaPlanes; i++ {
		result = append(result, chroma)
	}
	return result, nil
}

// Layout returns the memory plane layout of a buffer of the given format:
// colour planes are grouped into Info.MemoryPlanes memory planes, the last
// memory plane holding all the remaining colour planes contiguously.
func Layout(pf PixelFormat, width, height uint32) (types.PlaneLayout, error) {
	info, err := Lookup(pf)
	if err != nil {
		return nil, err
	}
	colorPlanes, err := ColorPlanes(pf, width, height)
	if err != nil {
		return nil, err
	}

	result := make(types.PlaneLayout, 0, info.MemoryPlanes)
	for idx, p := range colorPlanes {
		if idx < info.MemoryPlanes {
			result = append(result, p)
			continue
		}
		last := &result[len(result)-1]
		total := uint64(last.Size) + uint64(p.Size)
		if total > math.MaxUint32 {
			return nil, fmt.Errorf("%s %dx%d: memory plane #%d exceeds %d bytes", pf, width, height, len(result)-1, uint64(math.MaxUint32))
		}
		last.Size = uint32(total)
	}
	return result, nil
}
