package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPixelFormat(t *testing.T) {
	pf, err := ParsePixelFormat("NM12")
	require.NoError(t, err)
	require.Equal(t, FourCC('N', 'M', '1', '2'), pf)
	require.Equal(t, PixelFormat(0x32314d4e), pf)
	require.Equal(t, "NM12", pf.String())

	_, err = ParsePixelFormat("NM1")
	require.Error(t, err)
	_, err = ParsePixelFormat("NM122")
	require.Error(t, err)

	var decoded PixelFormat
	require.NoError(t, decoded.UnmarshalText([]byte("YUYV")))
	require.Equal(t, FourCC('Y', 'U', 'Y', 'V'), decoded)
}

func TestParseMemoryMode(t *testing.T) {
	for s, expected := range map[string]MemoryMode{
		"dmabuf":  MemoryModeDMABuf,
		"MMAP":    MemoryModeMMAP,
		"userptr": MemoryModeUserPtr,
	} {
		m, err := ParseMemoryMode(s)
		require.NoError(t, err)
		require.Equal(t, expected, m)
	}
	_, err := ParseMemoryMode("overlay")
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for s, expected := range map[string]Mode{
		"capture":   ModeCapture,
		"render":    ModeRender,
		"output":    ModeRender,
		"m2m":       ModeTransform,
		"transform": ModeTransform,
		"flyby":     ModeFlyby,
	} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		require.Equal(t, expected, m)
	}
	_, err := ParseMode("decode")
	require.Error(t, err)
}

func TestParseRect(t *testing.T) {
	r, err := ParseRect("1:2:640:480")
	require.NoError(t, err)
	require.Equal(t, Rect{X: 1, Y: 2, Width: 640, Height: 480}, r)
	require.Equal(t, "1:2:640:480", r.String())
	require.False(t, r.IsZero())
	require.True(t, Rect{X: 5}.IsZero())

	for _, s := range []string{"", "1:2:3", "1:2:3:4:5", "a:2:3:4", "-1:2:3:4"} {
		_, err := ParseRect(s)
		require.Error(t, err, s)
	}
}

func TestPathKind(t *testing.T) {
	require.Len(t, PathKinds(), 4)
	for _, kind := range PathKinds() {
		require.NotEqual(t, kind.IsCapture(), kind.IsOutput(), kind)
	}
	require.True(t, PathKindVideoCaptureMPlane.IsMultiPlane())
	require.False(t, PathKindVideoOutput.IsMultiPlane())
	require.Equal(t, "OUTPUT MPLANE", PathKindVideoOutputMPlane.String())
}

func TestStreamStateTransitions(t *testing.T) {
	all := []StreamState{StreamStateConfigured, StreamStateBuffersRequested, StreamStateStreaming, StreamStateStopped}
	allowed := map[[2]StreamState]bool{
		{StreamStateConfigured, StreamStateBuffersRequested}: true,
		{StreamStateConfigured, StreamStateStopped}:          true,
		{StreamStateBuffersRequested, StreamStateStreaming}:  true,
		{StreamStateBuffersRequested, StreamStateStopped}:    true,
		{StreamStateStreaming, StreamStateStopped}:           true,
	}
	for _, from := range all {
		for _, to := range all {
			require.Equal(t, allowed[[2]StreamState{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestPlaneLayoutValidate(t *testing.T) {
	require.Error(t, PlaneLayout{}.Validate())
	require.Error(t, PlaneLayout{{Stride: 1, Size: 1}, {Stride: 1, Size: 1}, {Stride: 1, Size: 1}, {Stride: 1, Size: 1}}.Validate())
	require.Error(t, PlaneLayout{{Stride: 64, Size: 0}}.Validate())

	l := PlaneLayout{{Stride: 64, Size: 64 * 48}, {Stride: 64, Size: 64 * 24}}
	require.NoError(t, l.Validate())
	require.Equal(t, uint64(64*72), l.TotalSize())

	buf := Buffer{Planes: []Plane{{PlaneGeometry: l[0], Handle: 3}, {PlaneGeometry: l[1], Handle: 4}}}
	require.Equal(t, l, buf.Layout())
	require.Equal(t, l.TotalSize(), buf.Size())
	require.False(t, InvalidHandle.IsValid())
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities{Capabilities: CapVideoCapture | CapDeviceCaps, DeviceCaps: CapVideoM2MMPlane, Version: 0x050a03}
	require.True(t, caps.IsM2M())
	require.Equal(t, "5.10.3", caps.VersionString())
	require.False(t, Capabilities{Capabilities: CapVideoOutput}.IsM2M())
}
