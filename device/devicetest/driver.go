// Package devicetest provides in-memory implementations of the device
// interfaces for tests.
package devicetest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/xaionaro-go/v4l2pipeline/device"
	"github.com/xaionaro-go/v4l2pipeline/types"
)

// ErrWouldBlock is returned by Driver.DequeueBuffer when nothing is queued:
// a real device would block forever.
var ErrWouldBlock = errors.New("dequeue would block forever: nothing is queued")

type Op string

const (
	OpQueryCapabilities = Op("QueryCapabilities")
	OpEnumerateFormat   = Op("EnumerateFormat")
	OpTryFormat         = Op("TryFormat")
	OpSetFormat         = Op("SetFormat")
	OpGetFormat         = Op("GetFormat")
	OpRequestBuffers    = Op("RequestBuffers")
	OpQueueBuffer       = Op("QueueBuffer")
	OpDequeueBuffer     = Op("DequeueBuffer")
	OpStreamOn          = Op("StreamOn")
	OpStreamOff         = Op("StreamOff")

	OpSubdevSetFormat    = Op("SubdevSetFormat")
	OpSubdevSetDstFormat = Op("SubdevSetDstFormat")
	OpSubdevSetCrop      = Op("SubdevSetCrop")
	OpSubdevStart        = Op("SubdevStart")
	OpSubdevStop         = Op("SubdevStop")
)

// Call is one recorded call to the fake.
type Call struct {
	Op       Op
	PathKind types.PathKind
	Slot     types.SlotIndex

	// DeviceOwned is the amount of buffers owned by the device on this
	// path right before the call.
	DeviceOwned int
}

func (c Call) String() string {
	switch c.Op {
	case OpQueueBuffer, OpDequeueBuffer:
		return fmt.Sprintf("%s(%s, %d)", c.Op, c.PathKind, c.Slot)
	default:
		return fmt.Sprintf("%s(%s)", c.Op, c.PathKind)
	}
}

type path struct {
	format    *types.Format
	layout    types.PlaneLayout
	requested uint32
	queue     []types.SlotIndex
	streaming bool
}

// Driver is a fake device.Driver. Dequeue returns buffers in the order
// they were queued.
type Driver struct {
	Capabilities types.Capabilities
	Formats      map[types.PathKind][]types.FormatDescriptor

	// FormatOverride, if set for a path, is returned by GetFormat instead
	// of the committed format.
	FormatOverride map[types.PathKind]types.Format

	// FailFn may inject an error into any call.
	FailFn func(call Call) error

	Calls []Call

	paths map[types.PathKind]*path
}

var _ device.Driver = (*Driver)(nil)

func NewDriver() *Driver {
	return &Driver{
		Capabilities: types.Capabilities{
			Driver:       "devicetest",
			Card:         "fake video device",
			BusInfo:      "platform:devicetest",
			Version:      0x060100,
			Capabilities: types.CapVideoM2MMPlane | types.CapVideoM2M | types.CapStreaming | types.CapDeviceCaps,
			DeviceCaps:   types.CapVideoM2MMPlane | types.CapStreaming,
		},
		Formats:        map[types.PathKind][]types.FormatDescriptor{},
		FormatOverride: map[types.PathKind]types.Format{},
		paths:          map[types.PathKind]*path{},
	}
}

func (d *Driver) path(kind types.PathKind) *path {
	p := d.paths[kind]
	if p == nil {
		p = &path{}
		d.paths[kind] = p
	}
	return p
}

func (d *Driver) record(op Op, kind types.PathKind, slot types.SlotIndex) error {
	call := Call{
		Op:          op,
		PathKind:    kind,
		Slot:        slot,
		DeviceOwned: len(d.path(kind).queue),
	}
	d.Calls = append(d.Calls, call)
	if d.FailFn != nil {
		return d.FailFn(call)
	}
	return nil
}

// CallsOf returns the recorded calls of the given operation.
func (d *Driver) CallsOf(op Op) []Call {
	var result []Call
	for _, c := range d.Calls {
		if c.Op == op {
			result = append(result, c)
		}
	}
	return result
}

// Queued returns the slots currently owned by the device on the path.
func (d *Driver) Queued(kind types.PathKind) []types.SlotIndex {
	return slices.Clone(d.path(kind).queue)
}

func (d *Driver) IsStreaming(kind types.PathKind) bool {
	return d.path(kind).streaming
}

// CommittedLayout returns the plane layout passed to the last SetFormat.
func (d *Driver) CommittedLayout(kind types.PathKind) types.PlaneLayout {
	return d.path(kind).layout
}

func (d *Driver) QueryCapabilities(ctx context.Context) (types.Capabilities, error) {
	if err := d.record(OpQueryCapabilities, types.PathKindUndefined, 0); err != nil {
		return types.Capabilities{}, err
	}
	return d.Capabilities, nil
}

func (d *Driver) EnumerateFormat(
	ctx context.Context,
	index uint32,
	kind types.PathKind,
) (types.FormatDescriptor, error) {
	if err := d.record(OpEnumerateFormat, kind, types.SlotIndex(index)); err != nil {
		return types.FormatDescriptor{}, err
	}
	formats := d.Formats[kind]
	if int(index) >= len(formats) {
		return types.FormatDescriptor{}, device.ErrNoMoreEntries
	}
	desc := formats[index]
	desc.Index = index
	desc.PathKind = kind
	return desc, nil
}

func (d *Driver) TryFormat(ctx context.Context, kind types.PathKind, format types.Format) error {
	return d.record(OpTryFormat, kind, 0)
}

func (d *Driver) SetFormat(
	ctx context.Context,
	kind types.PathKind,
	format types.Format,
	layout types.PlaneLayout,
) error {
	if err := d.record(OpSetFormat, kind, 0); err != nil {
		return err
	}
	p := d.path(kind)
	p.format = &format
	p.layout = slices.Clone(layout)
	return nil
}

func (d *Driver) GetFormat(ctx context.Context, kind types.PathKind) (types.Format, error) {
	if err := d.record(OpGetFormat, kind, 0); err != nil {
		return types.Format{}, err
	}
	if f, ok := d.FormatOverride[kind]; ok {
		return f, nil
	}
	p := d.path(kind)
	if p.format == nil {
		return types.Format{}, fmt.Errorf("no format was set on path %s", kind)
	}
	return *p.format, nil
}

func (d *Driver) RequestBuffers(
	ctx context.Context,
	kind types.PathKind,
	memory types.MemoryMode,
	count uint32,
) error {
	if err := d.record(OpRequestBuffers, kind, types.SlotIndex(count)); err != nil {
		return err
	}
	d.path(kind).requested = count
	return nil
}

func (d *Driver) QueueBuffer(
	ctx context.Context,
	kind types.PathKind,
	memory types.MemoryMode,
	buf device.QueuedBuffer,
) error {
	if err := d.record(OpQueueBuffer, kind, buf.Slot); err != nil {
		return err
	}
	p := d.path(kind)
	if uint32(buf.Slot) >= p.requested {
		return fmt.Errorf("slot %d is out of the requested range [0, %d)", buf.Slot, p.requested)
	}
	if slices.Contains(p.queue, buf.Slot) {
		return fmt.Errorf("slot %d is already queued", buf.Slot)
	}
	if memory == types.MemoryModeDMABuf {
		if len(buf.Planes) == 0 {
			return fmt.Errorf("slot %d: no planes", buf.Slot)
		}
		for idx, plane := range buf.Planes {
			if !plane.Handle.IsValid() {
				return fmt.Errorf("slot %d: plane %d has an invalid handle", buf.Slot, idx)
			}
		}
	}
	p.queue = append(p.queue, buf.Slot)
	return nil
}

func (d *Driver) DequeueBuffer(
	ctx context.Context,
	kind types.PathKind,
	memory types.MemoryMode,
	numPlanes int,
) (types.SlotIndex, error) {
	p := d.path(kind)
	var next types.SlotIndex
	if len(p.queue) > 0 {
		next = p.queue[0]
	}
	if err := d.record(OpDequeueBuffer, kind, next); err != nil {
		return 0, err
	}
	if !p.streaming {
		return 0, fmt.Errorf("path %s is not streaming", kind)
	}
	if len(p.queue) == 0 {
		return 0, ErrWouldBlock
	}
	p.queue = p.queue[1:]
	return next, nil
}

func (d *Driver) StreamOn(ctx context.Context, kind types.PathKind) error {
	if err := d.record(OpStreamOn, kind, 0); err != nil {
		return err
	}
	d.path(kind).streaming = true
	return nil
}

func (d *Driver) StreamOff(ctx context.Context, kind types.PathKind) error {
	if err := d.record(OpStreamOff, kind, 0); err != nil {
		return err
	}
	p := d.path(kind)
	p.streaming = false
	p.queue = nil
	return nil
}
