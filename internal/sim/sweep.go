package sim

import (
	"context"
	"sync"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/orbit"
)

// SweepResult is the outcome of one run in a step-size sweep.
type SweepResult struct {
	Step    float64
	Result  *dynamo.Result
	Err     error
	Elapsed time.Duration
}

// Sweep runs the same scenario once per step size, concurrently, with cfg.Dt
// replaced by each step. build must return a fresh system on every call since
// systems are not shared between goroutines. Results are in the order of
// steps; a failed run is reported in its SweepResult rather than aborting the
// others.
func Sweep(ctx context.Context, build func() *orbit.System, cfg dynamo.Config, steps []float64) []SweepResult {
	results := make([]SweepResult, len(steps))

	var wg sync.WaitGroup
	for i, h := range steps {
		wg.Add(1)
		go func(idx int, h float64) {
			defer wg.Done()

			sys := build()
			s := New(sys)
			for _, m := range metrics.Defaults(sys) {
				s.AddMetric(m)
			}

			run := cfg
			run.Dt = h
			start := time.Now()
			res, err := s.Run(ctx, run)
			results[idx] = SweepResult{Step: h, Result: res, Err: err, Elapsed: time.Since(start)}
		}(i, h)
	}

	wg.Wait()
	return results
}
