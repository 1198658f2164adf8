// memory_mode.go defines how buffer memory is backed when exchanged with the device.

package types

import (
	"fmt"
	"strings"
)

type MemoryMode uint32

const (
	MemoryModeUndefined = MemoryMode(0)
	MemoryModeMMAP      = MemoryMode(1)
	MemoryModeUserPtr   = MemoryMode(2)
	MemoryModeDMABuf    = MemoryMode(4)
)

func ParseMemoryMode(s string) (MemoryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dmabuf":
		return MemoryModeDMABuf, nil
	case "mmap":
		return MemoryModeMMAP, nil
	case "userptr":
		return MemoryModeUserPtr, nil
	default:
		return MemoryModeUndefined, fmt.Errorf("unknown memory type %q", s)
	}
}

func (m MemoryMode) String() string {
	switch m {
	case MemoryModeDMABuf:
		return "DMABUF"
	case MemoryModeMMAP:
		return "MMAP"
	case MemoryModeUserPtr:
		return "USERPTR"
	default:
		return "UNKNOWN"
	}
}

func (m MemoryMode) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(m.String())), nil
}

func (m *MemoryMode) UnmarshalText(b []byte) error {
	v, err := ParseMemoryMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
