//go:build !debug_trace
// +build !debug_trace

package logger

import (
	"context"
)

// Tracef is a no-op unless built with the debug_trace tag: the streaming
// loops call it per buffer.
func Tracef(ctx context.Context, format string, args ...any) {}
