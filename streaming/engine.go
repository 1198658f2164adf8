// Package streaming implements the streaming engines: capture, render and
// transform (memory-to-memory). Each engine runs synchronously on the
// calling goroutine for a bounded amount of iterations; only the
// statistics may be read concurrently.
package streaming

import (
	"context"
)

type Engine interface {
	Run(ctx context.Context) error
	Stats() Statistics
}

var (
	_ Engine = (*Capture)(nil)
	_ Engine = (*Render)(nil)
	_ Engine = (*Transform)(nil)
)
