package v4l2pipeline

import (
	"context"

	"github.com/xaionaro-go/v4l2pipeline/logger"
)

// assert panics on a violated precondition: those are programming errors.
func assert(ctx context.Context, mustBeTrue bool, what string) {
	if !mustBeTrue {
		logger.Panicf(ctx, "assertion failed: %s", what)
	}
}
