// stream_state.go defines the per-path streaming state machine.

package types

import (
	"fmt"
)

type StreamState int

const (
	StreamStateConfigured = StreamState(iota)
	StreamStateBuffersRequested
	StreamStateStreaming
	StreamStateStopped
)

func (s StreamState) String() string {
	switch s {
	case StreamStateConfigured:
		return "configured"
	case StreamStateBuffersRequested:
		return "buffers-requested"
	case StreamStateStreaming:
		return "streaming"
	case StreamStateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("StreamState(%d)", int(s))
	}
}

// CanTransitionTo reports whether "s -> next" is allowed. Transitions are
// monotonic: a path moves one step forward at a time, and any state but
// Stopped may go directly to Stopped (teardown). There is no restart.
func (s StreamState) CanTransitionTo(next StreamState) bool {
	switch {
	case s == StreamStateStopped:
		return false
	case next == StreamStateStopped:
		return true
	default:
		return next == s+1
	}
}
