package devicetest

import (
	"context"

	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

// Subdevice is a fake device.Subdevice recording every call.
type Subdevice struct {
	FailFn func(op Op) error

	Calls     []Op
	Format    *types.Format
	DstFormat *types.Format
	Field     types.Field
	Crop      *types.Rect
	Running   bool
}

var _ device.Subdevice = (*Subdevice)(nil)

func (s *Subdevice) record(op Op) error {
	s.Calls = append(s.Calls, op)
	if s.FailFn != nil {
		return s.FailFn(op)
	}
	return nil
}

func (s *Subdevice) SetFormat(ctx context.Context, format types.Format, field types.Field) error {
	if err := s.record(OpSubdevSetFormat); err != nil {
		return err
	}
	s.Format = &format
	s.Field = field
	return nil
}

func (s *Subdevice) SetDstFormat(ctx context.Context, format types.Format, field types.Field) error {
	if err := s.record(OpSubdevSetDstFormat); err != nil {
		return err
	}
	s.DstFormat = &format
	return nil
}

func (s *Subdevice) SetCrop(ctx context.Context, crop types.Rect) error {
	if err := s.record(OpSubdevSetCrop); err != nil {
		return err
	}
	s.Crop = &crop
	return nil
}

func (s *Subdevice) Start(ctx context.Context) error {
	if err := s.record(OpSubdevStart); err != nil {
		return err
	}
	s.Running = true
	return nil
}

func (s *Subdevice) Stop(ctx context.Context) error {
	if err := s.record(OpSubdevStop); err != nil {
		return err
	}
	s.Running = false
	return nil
}
