// Package pixfmt is the single table of pixel formats known to the
// pipeline: how each maps to a path kind and how its buffers are laid out.
package pixfmt

import (
	"fmt"
	"sort"

	"github.com/xaionaro-go/v4l2pipeline/types"
)

var fourcc = types.FourCC

var (
	ARGB555 = fourcc('A', 'R', '1', '5')
	XRGB555 = fourcc('X', 'R', '1', '5')
	RGB565  = fourcc('R', 'G', 'B', 'P')
	BGR24   = fourcc('B', 'G', 'R', '3')
	RGB24   = fourcc('R', 'G', 'B', '3')
	BGR32   = fourcc('B', 'G', 'R', '4')
	ABGR32  = fourcc('A', 'R', '2', '4')
	XBGR32  = fourcc('X', 'R', '2', '4')
	RGB32   = fourcc('R', 'G', 'B', '4')
	ARGB32  = fourcc('B', 'A', '2', '4')
	XRGB32  = fourcc('B', 'X', '2', '4')
	YUYV    = fourcc('Y', 'U', 'Y', 'V')
	YYUV    = fourcc('Y', 'Y', 'U', 'V')
	YVYU    = fourcc('Y', 'V', 'Y', 'U')
	UYVY    = fourcc('U', 'Y', 'V', 'Y')
	VYUY    = fourcc('V', 'Y', 'U', 'Y')

	YVU420  = fourcc('Y', 'V', '1', '2')
	YUV422P = fourcc('4', '2', '2', 'P')
	YUV420  = fourcc('Y', 'U', '1', '2')
	NV12    = fourcc('N', 'V', '1', '2')
	NV21    = fourcc('N', 'V', '2', '1')
	NV16    = fourcc('N', 'V', '1', '6')
	NV61    = fourcc('N', 'V', '6', '1')
	NV24    = fourcc('N', 'V', '2', '4')
	NV42    = fourcc('N', 'V', '4', '2')
	NV12M   = fourcc('N', 'M', '1', '2')
	NV21M   = fourcc('N', 'M', '2', '1')
	NV16M   = fourcc('N', 'M', '1', '6')
	NV61M   = fourcc('N', 'M', '6', '1')
	YUV420M = fourcc('Y', 'M', '1', '2')
	YVU420M = fourcc('Y', 'M', '2', '1')
)

// Family is the memory organization of a pixel format.
type Family int

const (
	FamilyPacked = Family(iota + 1)
	FamilyPlanar
	FamilySemiPlanar
)

func (f Family) String() string {
	switch f {
	case FamilyPacked:
		return "packed"
	case FamilyPlanar:
		return "planar"
	case FamilySemiPlanar:
		return "semi-planar"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Info describes one pixel format.
type Info struct {
	PixelFormat PixelFormat
	Description string
	Family      Family

	// BitsPerPixel is only meaningful for packed formats.
	BitsPerPixel uint32

	// ChromaShiftX/ChromaShiftY are the log2 horizontal/vertical chroma
	// subsampling factors of (semi-)planar formats.
	ChromaShiftX uint32
	ChromaShiftY uint32

	// MemoryPlanes is the amount of separate memory planes a buffer of
	// this format consists of.
	MemoryPlanes int
}

type PixelFormat = types.PixelFormat

var table = map[PixelFormat]Info{
	ARGB555: {Description: "ARGB-1-5-5-5 16bit", Family: FamilyPacked, BitsPerPixel: 16},
	XRGB555: {Description: "XRGB-1-5-5-5 16bit", Family: FamilyPacked, BitsPerPixel: 16},
	RGB565:  {Description: "RGB-5-6-5 16bit", Family: FamilyPacked, BitsPerPixel: 16},
	BGR24:   {Description: "BGR-8-8-8 24bit", Family: FamilyPacked, BitsPerPixel: 24},
	RGB24:   {Description: "RGB-8-8-8 24bit", Family: FamilyPacked, BitsPerPixel: 24},
	BGR32:   {Description: "BGR-8-8-8-8 32bit", Family: FamilyPacked, BitsPerPixel: 32},
	ABGR32:  {Description: "BGRA-8-8-8-8 32bit", Family: FamilyPacked, BitsPerPixel: 32},
	XBGR32:  {Description: "BGRX-8-8-8-8 32bit", Family: FamilyPacked, BitsPerPixel: 32},
	RGB32:   {Description: "RGB-8-8-8-8 32bit", Family: FamilyPacked, BitsPerPixel: 32},
	ARGB32:  {Description: "ARGB-8-8-8-8 32bit", Family: FamilyPacked, BitsPerPixel: 32},
	XRGB32:  {Description: "XRGB-8-8-8-8 32bit", Family: FamilyPacked, BitsPerPixel: 32},
	YUYV:    {Description: "YUV 4:2:2", Family: FamilyPacked, BitsPerPixel: 16},
	YYUV:    {Description: "YUV 4:2:2", Family: FamilyPacked, BitsPerPixel: 16},
	YVYU:    {Description: "YVU 4:2:2", Family: FamilyPacked, BitsPerPixel: 16},
	UYVY:    {Description: "YUV 4:2:2", Family: FamilyPacked, BitsPerPixel: 16},
	VYUY:    {Description: "YUV 4:2:2", Family: FamilyPacked, BitsPerPixel: 16},

	YVU420:  {Description: "YVU 4:2:0", Family: FamilyPlanar, ChromaShiftX: 1, ChromaShiftY: 1},
	YUV422P: {Description: "YUV422 planar", Family: FamilyPlanar, ChromaShiftX: 1},
	YUV420:  {Description: "YUV 4:2:0", Family: FamilyPlanar, ChromaShiftX: 1, ChromaShiftY: 1},
	NV12:    {Description: "Y/CbCr 4:2:0", Family: FamilySemiPlanar, ChromaShiftX: 1, ChromaShiftY: 1},
	NV21:    {Description: "Y/CrCb 4:2:0", Family: FamilySemiPlanar, ChromaShiftX: 1, ChromaShiftY: 1},
	NV16:    {Description: "Y/CbCr 4:2:2", Family: FamilySemiPlanar, ChromaShiftX: 1},
	NV61:    {Description: "Y/CrCb 4:2:2", Family: FamilySemiPlanar, ChromaShiftX: 1},
	NV24:    {Description: "Y/CbCr 4:4:4", Family: FamilySemiPlanar},
	NV42:    {Description: "Y/CrCb 4:4:4", Family: FamilySemiPlanar},
	NV12M:   {Description: "Y/CbCr 4:2:0 (2 memory planes)", Family: FamilySemiPlanar, ChromaShiftX: 1, ChromaShiftY: 1, MemoryPlanes: 2},
	NV21M:   {Description: "Y/CrCb 4:2:0 (2 memory planes)", Family: FamilySemiPlanar, ChromaShiftX: 1, ChromaShiftY: 1, MemoryPlanes: 2},
	NV16M:   {Description: "Y/CbCr 4:2:2 (2 memory planes)", Family: FamilySemiPlanar, ChromaShiftX: 1, MemoryPlanes: 2},
	NV61M:   {Description: "Y/CrCb 4:2:2 (2 memory planes)", Family: FamilySemiPlanar, ChromaShiftX: 1, MemoryPlanes: 2},
	YUV420M: {Description: "YUV 4:2:0 (3 memory planes)", Family: FamilyPlanar, ChromaShiftX: 1, ChromaShiftY: 1, MemoryPlanes: 3},
	YVU420M: {Description: "YVU 4:2:0 (3 memory planes)", Family: FamilyPlanar, ChromaShiftX: 1, ChromaShiftY: 1, MemoryPlanes: 3},
}

func init() {
	for pf, info := range table {
		info.PixelFormat = pf
		if info.MemoryPlanes == 0 {
			info.MemoryPlanes = 1
		}
		table[pf] = info
	}
}

// Lookup returns the description of the pixel format.
func Lookup(pf PixelFormat) (Info, error) {
	info, ok := table[pf]
	if !ok {
		return Info{}, types.ErrUnsupportedFormat{PixelFormat: pf}
	}
	return info, nil
}

// All returns every supported pixel format, sorted by fourcc string.
func All() []Info {
	result := make([]Info, 0, len(table))
	for _, info := range table {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PixelFormat.String() < result[j].PixelFormat.String()
	})
	return result
}

// PathKindFor returns the path kind a buffer of the given pixel format
// travels on in the given direction: packed formats use the single-plane
// path kinds, (semi-)planar formats use the multi-plane ones.
func PathKindFor(dir types.Direction, pf PixelFormat) (types.PathKind, error) {
	info, err := Lookup(pf)
	if err != nil {
		return types.PathKindUndefined, err
	}
	multiPlane := info.Family != FamilyPacked
	switch dir {
	case types.DirectionCapture:
		if multiPlane {
			return types.PathKindVideoCaptureMPlane, nil
		}
		return types.PathKindVideoCapture, nil
	case types.DirectionOutput:
		if multiPlane {
			return types.PathKindVideoOutputMPlane, nil
		}
		return types.PathKindVideoOutput, nil
	default:
		return types.PathKindUndefined, fmt.Errorf("unknown direction %s", dir)
	}
}
