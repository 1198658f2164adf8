// pixel_format.go defines the PixelFormat fourcc and its helpers.

// Package types provides the common data model shared by the v4l2pipeline packages.
package types

import (
	"fmt"
)

// PixelFormat is a little-endian four character code as used by the
// kernel video interface (e.g. 'Y','U','1','2').
type PixelFormat uint32

func FourCC(a, b, c, d byte) PixelFormat {
	return PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

func ParsePixelFormat(s string) (PixelFormat, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("a pixel format must be exactly 4 characters, got %q", s)
	}
	return FourCC(s[0], s[1], s[2], s[3]), nil
}

func (f PixelFormat) String() string {
	return string([]byte{
		byte(f),
		byte(f >> 8),
		byte(f >> 16),
		byte(f >> 24),
	})
}

func (f PixelFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *PixelFormat) UnmarshalText(b []byte) error {
	v, err := ParsePixelFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
