//go:build linux && (amd64 || arm64)

package v4l2

import (
	"unsafe"
)

// The layouts below must match the kernel ABI of 64-bit architectures.
// The assertions fail the build if a struct size drifts.
var (
	_ [0]struct{} = [unsafe.Sizeof(v4l2Capability{}) - 104]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Fmtdesc{}) - 64]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2PixFormat{}) - 48]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2PixFormatMPlane{}) - 192]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Format{}) - 208]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2RequestBuffers{}) - 20]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Plane{}) - 64]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2Buffer{}) - 88]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2MbusFramefmt{}) - 48]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2SubdevFormat{}) - 88]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2SubdevSelection{}) - 64]struct{}{}

	_ [0]struct{} = [unsafe.Offsetof(v4l2Buffer{}.m) - 64]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(v4l2PixFormatMPlane{}.numPlanes) - 180]struct{}{}
)

const (
	v4l2FieldNone = 1

	v4l2SubdevFormatActive = 1
	v4l2SelTgtCrop         = 0

	subdevPadSink   = 0
	subdevPadSource = 1
)

var (
	vidiocQuerycap   = ior('V', 0, unsafe.Sizeof(v4l2Capability{}))
	vidiocEnumFmt    = iowr('V', 2, unsafe.Sizeof(v4l2Fmtdesc{}))
	vidiocGFmt       = iowr('V', 4, unsafe.Sizeof(v4l2Format{}))
	vidiocSFmt       = iowr('V', 5, unsafe.Sizeof(v4l2Format{}))
	vidiocReqbufs    = iowr('V', 8, unsafe.Sizeof(v4l2RequestBuffers{}))
	vidiocQbuf       = iowr('V', 15, unsafe.Sizeof(v4l2Buffer{}))
	vidiocDqbuf      = iowr('V', 17, unsafe.Sizeof(v4l2Buffer{}))
	vidiocStreamon   = iow('V', 18, unsafe.Sizeof(int32(0)))
	vidiocStreamoff  = iow('V', 19, unsafe.Sizeof(int32(0)))
	vidiocTryFmt     = iowr('V', 64, unsafe.Sizeof(v4l2Format{}))
	vidiocSubdevSFmt = iowr('V', 5, unsafe.Sizeof(v4l2SubdevFormat{}))
	vidiocSubdevSSel = iowr('V', 62, unsafe.Sizeof(v4l2SubdevSelection{}))
)

type v4l2Capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	reserved     [3]uint32
}

type v4l2Fmtdesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbusCode    uint32
	reserved    [3]uint32
}

type v4l2PixFormat struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
	flags        uint32
	ycbcrEnc     uint32
	quantization uint32
	xferFunc     uint32
}

type v4l2PlanePixFormat struct {
	sizeimage    uint32
	bytesperline uint32
	reserved     [6]uint16
}

type v4l2PixFormatMPlane struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	colorspace   uint32
	planeFmt     [8]v4l2PlanePixFormat
	numPlanes    uint8
	flags        uint8
	ycbcrEnc     uint8
	quantization uint8
	xferFunc     uint8
	reserved     [7]uint8
}

// v4l2Format keeps the 200 byte union raw; it is 8-byte aligned in the kernel.
type v4l2Format struct {
	typ uint32
	_   [4]byte
	fmt [200]byte
}

func (f *v4l2Format) pix() *v4l2PixFormat {
	return (*v4l2PixFormat)(unsafe.Pointer(&f.fmt[0]))
}

func (f *v4l2Format) pixMP() *v4l2PixFormatMPlane {
	return (*v4l2PixFormatMPlane)(unsafe.Pointer(&f.fmt[0]))
}

type v4l2RequestBuffers struct {
	count        uint32
	typ          uint32
	memory       uint32
	capabilities uint32
	flags        uint8
	reserved     [3]uint8
}

type v4l2Timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

type v4l2Timeval struct {
	sec  int64
	usec int64
}

type v4l2Plane struct {
	bytesused  uint32
	length     uint32
	m          uint64
	dataOffset uint32
	reserved   [11]uint32
}

type v4l2Buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	_         [4]byte
	timestamp v4l2Timeval
	timecode  v4l2Timecode
	sequence  uint32
	memory    uint32
	m         uint64
	length    uint32
	reserved2 uint32
	requestFD int32
	_         [4]byte
}

type v4l2MbusFramefmt struct {
	width        uint32
	height       uint32
	code         uint32
	field        uint32
	colorspace   uint32
	ycbcrEnc     uint16
	quantization uint16
	xferFunc     uint16
	flags        uint16
	reserved     [10]uint16
}

type v4l2SubdevFormat struct {
	which    uint32
	pad      uint32
	format   v4l2MbusFramefmt
	stream   uint32
	reserved [7]uint32
}

type v4l2Rect struct {
	left   int32
	top    int32
	width  uint32
	height uint32
}

type v4l2SubdevSelection struct {
	which    uint32
	pad      uint32
	target   uint32
	flags    uint32
	r        v4l2Rect
	stream   uint32
	reserved [7]uint32
}
