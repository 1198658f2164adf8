package types

import (
	"fmt"
)

// Capability bits reported by the device.
const (
	CapVideoCapture       = uint32(0x00000001)
	CapVideoOutput        = uint32(0x00000002)
	CapVideoCaptureMPlane = uint32(0x00001000)
	CapVideoOutputMPlane  = uint32(0x00002000)
	CapVideoM2MMPlane     = uint32(0x00004000)
	CapVideoM2M           = uint32(0x00008000)
	CapStreaming          = uint32(0x04000000)
	CapDeviceCaps         = uint32(0x80000000)
)

type Capabilities struct {
	Driver       string
	Card         string
	BusInfo      string
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
}

func (c Capabilities) Has(bits uint32) bool {
	return (c.Capabilities|c.DeviceCaps)&bits != 0
}

func (c Capabilities) IsM2M() bool {
	return c.Has(CapVideoM2M | CapVideoM2MMPlane)
}

func (c Capabilities) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", byte(c.Version>>16), byte(c.Version>>8), byte(c.Version))
}

// FormatDescriptor is one entry of the device's format enumeration.
type FormatDescriptor struct {
	Index       uint32
	PathKind    PathKind
	Flags       uint32
	Description string
	PixelFormat PixelFormat
}

// Format is the width/height/pixel-format tuple of a path.
type Format struct {
	Width       uint32
	Height      uint32
	PixelFormat PixelFormat
}

func (f Format) String() string {
	return fmt.Sprintf("%dx%d %s", f.Width, f.Height, f.PixelFormat)
}

// Field is the field order of a subdevice format.
type Field uint32

const (
	FieldAny  = Field(0)
	FieldNone = Field(1)
)
