package v4l2pipeline

import (
	"context"

	"github.com/xaionaro-go/v4l2pipeline/streaming"
	"github.com/xaionaro-go/xsync"
)

type Statistics struct {
	Mode            string                     `json:"mode"`
	Paths           []streaming.PathStatistics `json:"paths,omitempty"`
	FlybyIterations uint64                     `json:"flyby_iterations,omitempty"`
	FlybyRunning    bool                       `json:"flyby_running,omitempty"`
}

// GetStats may be called concurrently with Run; it returns the mode only
// until Run has started.
func (p *Pipeline) GetStats(ctx context.Context) *Statistics {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &p.locker, func() *Statistics {
		stats := Statistics{Mode: p.Config.Mode.String()}
		if p.engine != nil {
			stats.Paths = p.engine.Stats().Paths
		}
		if p.flyby != nil {
			stats.FlybyIterations = p.flyby.Iterations()
			stats.FlybyRunning = p.flyby.IsRunning()
		}
		return &stats
	})
}
