package types

// MaxBufferCount is the hard capacity limit of a buffer pool.
const MaxBufferCount = 16

// SlotIndex identifies a buffer within its pool; it is stable for the
// lifetime of the pool and is what the device reports back on dequeue.
type SlotIndex uint32

// Owner is the current owner of a pool slot.
type Owner int

const (
	OwnerProcess = Owner(iota)
	OwnerDevice
)

func (o Owner) String() string {
	switch o {
	case OwnerProcess:
		return "process"
	case OwnerDevice:
		return "device"
	default:
		return "unknown"
	}
}
