package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/san-kum/orbitsim/internal/orbit"
)

const instrumentationName = "github.com/san-kum/orbitsim/internal/sim"

// meter returns the global OTel meter; it is a no-op unless a provider is
// installed.
func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	steps    metric.Int64Counter
	failures metric.Int64Counter
	runTime  metric.Float64Histogram
}

func newInstruments(m metric.Meter) (*instruments, error) {
	var (
		inst instruments
		err  error
	)

	inst.steps, err = m.Int64Counter(
		"orbitsim.steps",
		metric.WithDescription("RK4 steps completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating steps counter: %w", err)
	}

	inst.failures, err = m.Int64Counter(
		"orbitsim.failures",
		metric.WithDescription("Runs stopped by an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	inst.runTime, err = m.Float64Histogram(
		"orbitsim.run.duration",
		metric.WithDescription("Wall time of a run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run duration histogram: %w", err)
	}

	return &inst, nil
}

func (i *instruments) stepped(ctx context.Context, n int64, bodies int) {
	if i == nil || n == 0 {
		return
	}
	i.steps.Add(ctx, n, metric.WithAttributes(attribute.Int("bodies", bodies)))
}

func (i *instruments) failed(ctx context.Context, err error) {
	if i == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, orbit.ErrCoincidentBodies):
		reason = "coincident"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "canceled"
	}
	i.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (i *instruments) finished(ctx context.Context, start time.Time) {
	if i == nil {
		return
	}
	i.runTime.Record(ctx, time.Since(start).Seconds())
}
