package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a crop rectangle. A zero Width means "not configured".
type Rect struct {
	X      uint32 `yaml:"x"`
	Y      uint32 `yaml:"y"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

func (r Rect) IsZero() bool {
	return r.Width == 0
}

func (r Rect) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", r.X, r.Y, r.Width, r.Height)
}

// ParseRect parses "x:y:width:height".
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("expected 'x:y:width:height', got %q", s)
	}
	var v [4]uint32
	for idx, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return Rect{}, fmt.Errorf("unable to parse component #%d of %q: %w", idx, s, err)
		}
		v[idx] = uint32(n)
	}
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
