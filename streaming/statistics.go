package streaming

import (
	"go.uber.org/atomic"

	"github.com/xaionaro-go/v4l2pipeline/types"
)

// PathStatistics is a snapshot of the counters of one path.
type PathStatistics struct {
	Path         string `json:"path"`
	State        string `json:"state"`
	Queued       uint64 `json:"queued"`
	Dequeued     uint64 `json:"dequeued"`
	LastDequeued int64  `json:"last_dequeued"`
	PoolBytes    uint64 `json:"pool_bytes"`
}

// Statistics is a snapshot of the counters of every path of an engine.
type Statistics struct {
	Paths []PathStatistics `json:"paths"`
}

// pathCounters may be read from any goroutine while the engine runs.
type pathCounters struct {
	State        atomic.Int32
	Queued       atomic.Uint64
	Dequeued     atomic.Uint64
	LastDequeued atomic.Int64
	PoolBytes    atomic.Uint64
}

func newPathCounters() *pathCounters {
	c := &pathCounters{}
	c.State.Store(int32(types.StreamStateConfigured))
	c.LastDequeued.Store(-1)
	return c
}

func (c *pathCounters) Convert(kind types.PathKind) PathStatistics {
	return PathStatistics{
		Path:         kind.String(),
		State:        types.StreamState(c.State.Load()).String(),
		Queued:       c.Queued.Load(),
		Dequeued:     c.Dequeued.Load(),
		LastDequeued: c.LastDequeued.Load(),
		PoolBytes:    c.PoolBytes.Load(),
	}
}
