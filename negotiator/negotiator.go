// Package negotiator commits formats on the device: it queries the device
// capabilities, lists the supported formats, and sets a format verifying
// that the device actually accepted it.
package negotiator

import (
	"context"
	"errors"
	"iter"

	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/logger"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

type Negotiator struct {
	Driver device.Driver
}

func New(drv device.Driver) *Negotiator {
	return &Negotiator{Driver: drv}
}

func (n *Negotiator) QueryCapabilities(ctx context.Context) (types.Capabilities, error) {
	caps, err := n.Driver.QueryCapabilities(ctx)
	if err != nil {
		return types.Capabilities{}, types.ErrDevice{Op: "query-capabilities", Err: err}
	}
	return caps, nil
}

// RequireM2M fails unless the device advertises memory-to-memory support.
func RequireM2M(caps types.Capabilities) error {
	if !caps.IsM2M() {
		return types.ErrUnsupportedDevice{
			Capabilities: caps,
			Reason:       "an m2m device must support V4L2_CAP_VIDEO_M2M or V4L2_CAP_VIDEO_M2M_MPLANE",
		}
	}
	return nil
}

// EnumerateFormats lists the formats supported on the path. The sequence is
// finite; iterating it again starts over from index 0. The end of the
// device's list is not an error; any other failure is yielded once and
// ends the sequence.
func (n *Negotiator) EnumerateFormats(
	ctx context.Context,
	kind types.PathKind,
) iter.Seq2[types.FormatDescriptor, error] {
	return func(yield func(types.FormatDescriptor, error) bool) {
		for idx := uint32(0); ; idx++ {
			desc, err := n.Driver.EnumerateFormat(ctx, idx, kind)
			switch {
			case errors.Is(err, device.ErrNoMoreEntries):
				return
			case err != nil:
				yield(types.FormatDescriptor{}, types.ErrDevice{Op: "enumerate-format", PathKind: kind, Err: err})
				return
			}
			if !yield(desc, nil) {
				return
			}
		}
	}
}

func (n *Negotiator) TryFormat(ctx context.Context, kind types.PathKind, format types.Format) error {
	if err := n.Driver.TryFormat(ctx, kind, format); err != nil {
		return types.ErrFormat{Op: "try", PathKind: kind, Format: format, Err: err}
	}
	return nil
}

// SetFormat commits the format; layout must describe every plane of the
// buffers that will be queued.
func (n *Negotiator) SetFormat(
	ctx context.Context,
	kind types.PathKind,
	format types.Format,
	layout types.PlaneLayout,
) error {
	if err := layout.Validate(); err != nil {
		return types.ErrFormat{Op: "set", PathKind: kind, Format: format, Err: err}
	}
	if err := n.Driver.SetFormat(ctx, kind, format, layout); err != nil {
		return types.ErrFormat{Op: "set", PathKind: kind, Format: format, Err: err}
	}
	return nil
}

func (n *Negotiator) GetFormat(ctx context.Context, kind types.PathKind) (types.Format, error) {
	f, err := n.Driver.GetFormat(ctx, kind)
	if err != nil {
		return types.Format{}, types.ErrDevice{Op: "get-format", PathKind: kind, Err: err}
	}
	return f, nil
}

// CheckFormat returns ErrFormatMismatch if actual differs from requested
// in any field.
func CheckFormat(kind types.PathKind, requested, actual types.Format) error {
	if actual.Width != requested.Width ||
		actual.Height != requested.Height ||
		actual.PixelFormat != requested.PixelFormat {
		return types.ErrFormatMismatch{PathKind: kind, Requested: requested, Actual: actual}
	}
	return nil
}

// Negotiate lists the supported formats, then tries, commits and reads
// back the requested format.
func (n *Negotiator) Negotiate(
	ctx context.Context,
	kind types.PathKind,
	requested types.Format,
	layout types.PlaneLayout,
) (_err error) {
	logger.Debugf(ctx, "Negotiate(%s, %s)", kind, requested)
	defer func() { logger.Debugf(ctx, "/Negotiate(%s, %s): %v", kind, requested, _err) }()

	for desc, err := range n.EnumerateFormats(ctx, kind) {
		if err != nil {
			return err
		}
		logger.Infof(ctx, "supported format on %s: #%d '%s' (%s) flags:0x%x", kind, desc.Index, desc.PixelFormat, desc.Description, desc.Flags)
	}

	if err := n.TryFormat(ctx, kind, requested); err != nil {
		return err
	}
	if err := n.SetFormat(ctx, kind, requested, layout); err != nil {
		return err
	}
	actual, err := n.GetFormat(ctx, kind)
	if err != nil {
		return err
	}
	if err := CheckFormat(kind, requested, actual); err != nil {
		return err
	}
	return nil
}

// LogCapabilities prints the device identification.
func LogCapabilities(ctx context.Context, caps types.Capabilities) {
	logger.Infof(ctx, "driver: %s; card: %s; bus_info: %s; version: %s; capabilities: 0x%08x; device_caps: 0x%08x",
		caps.Driver, caps.Card, caps.BusInfo, caps.VersionString(), caps.Capabilities, caps.DeviceCaps)
}
