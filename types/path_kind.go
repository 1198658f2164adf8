package types

import (
	"fmt"
)

// PathKind is a device-transfer direction/layout. The values are the
// kernel buffer-type values.
type PathKind uint32

const (
	PathKindUndefined          = PathKind(0)
	PathKindVideoCapture       = PathKind(1)
	PathKindVideoOutput        = PathKind(2)
	PathKindVideoCaptureMPlane = PathKind(9)
	PathKindVideoOutputMPlane  = PathKind(10)
)

func PathKinds() []PathKind {
	return []PathKind{
		PathKindVideoCapture,
		PathKindVideoCaptureMPlane,
		PathKindVideoOutput,
		PathKindVideoOutputMPlane,
	}
}

func (k PathKind) IsMultiPlane() bool {
	return k == PathKindVideoCaptureMPlane || k == PathKindVideoOutputMPlane
}

func (k PathKind) IsCapture() bool {
	return k == PathKindVideoCapture || k == PathKindVideoCaptureMPlane
}

func (k PathKind) IsOutput() bool {
	return k == PathKindVideoOutput || k == PathKindVideoOutputMPlane
}

func (k PathKind) String() string {
	switch k {
	case PathKindUndefined:
		return "undefined"
	case PathKindVideoCapture:
		return "CAPTURE SINGLE"
	case PathKindVideoCaptureMPlane:
		return "CAPTURE MPLANE"
	case PathKindVideoOutput:
		return "OUTPUT SINGLE"
	case PathKindVideoOutputMPlane:
		return "OUTPUT MPLANE"
	default:
		return fmt.Sprintf("PathKind(%d)", uint32(k))
	}
}

// Direction is the data direction of a path, before the plane layout is
// taken into account.
type Direction int

const (
	DirectionCapture = Direction(iota + 1)
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionCapture:
		return "capture"
	case DirectionOutput:
		return "output"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}
