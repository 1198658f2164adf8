package types

import (
	"fmt"
	"strings"
)

// Mode is the shape of the pipeline to run.
type Mode int

const (
	ModeUndefined = Mode(iota)
	ModeCapture
	ModeRender
	ModeTransform
	ModeFlyby
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "capture":
		return ModeCapture, nil
	case "render", "output":
		return ModeRender, nil
	case "m2m", "transform":
		return ModeTransform, nil
	case "flyby":
		return ModeFlyby, nil
	default:
		return ModeUndefined, fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeCapture:
		return "capture"
	case ModeRender:
		return "render"
	case ModeTransform:
		return "m2m"
	case ModeFlyby:
		return "flyby"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}
