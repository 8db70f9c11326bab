package sim

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/orbit"
)

// Simulator drives an orbit.System forward in fixed RK4 steps and reports
// every recorded sample to its metrics and observers.
type Simulator struct {
	sys       *orbit.System
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	inst      *instruments
}

// New returns a Simulator reporting to the global OTel meter. If the
// instruments cannot be created the error goes to the global OTel error
// handler and the run is not instrumented.
func New(sys *orbit.System) *Simulator {
	return newSimulator(sys, meter())
}

func newSimulator(sys *orbit.System, m metric.Meter) *Simulator {
	inst, err := newInstruments(m)
	if err != nil {
		otel.Handle(err)
	}
	return &Simulator{
		sys:       sys,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		inst:      inst,
	}
}

// SetMeter replaces the OTel meter used for run telemetry.
func (s *Simulator) SetMeter(m metric.Meter) error {
	inst, err := newInstruments(m)
	if err != nil {
		return err
	}
	s.inst = inst
	return nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// System returns the system being simulated.
func (s *Simulator) System() *orbit.System { return s.sys }

// Run records the current condition, then steps until the system time
// reaches cfg.Duration, recording after each completed step. The last step
// is never shortened, so the final time may pass the duration by less than
// one step.
//
// On failure Run returns the samples recorded so far together with a
// *dynamo.SimulationError.
func (s *Simulator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	start := time.Now()
	result, err := s.run(ctx, cfg)

	if result != nil {
		s.inst.stepped(ctx, int64(result.StepsTaken), s.sys.NumBodies())
	}
	if err != nil {
		s.inst.failed(ctx, err)
	}
	s.inst.finished(ctx, start)
	return result, err
}

func (s *Simulator) run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	x, err := s.sys.SystemCondition()
	if err != nil {
		return nil, err
	}

	result := &dynamo.Result{Metrics: make(map[string]float64)}
	if !cfg.DiscardStates {
		n := sampleHint(cfg)
		result.States = make([]dynamo.State, 0, n)
		result.Times = make([]float64, 0, n)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	initialEnergy, _ := s.sys.Energy(x)

	if err := s.record(result, x, s.sys.CurrentTime(), !cfg.DiscardStates); err != nil {
		return result, s.fail(result, x, err)
	}

	for s.sys.CurrentTime() < cfg.Duration {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		if err := s.sys.StepRK4(cfg.Dt); err != nil {
			return result, s.fail(result, x, err)
		}
		result.StepsTaken++

		x, _ = s.sys.SystemCondition()
		if cfg.ValidateState && !x.IsValid() {
			return result, s.fail(result, x, dynamo.ErrInvalidState)
		}

		if err := s.record(result, x, s.sys.CurrentTime(), !cfg.DiscardStates); err != nil {
			return result, s.fail(result, x, err)
		}
	}

	if finalEnergy, err := s.sys.Energy(x); err == nil && initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	s.collect(result)
	return result, nil
}

// maxSampleHint caps the preallocated sample capacity. Longer runs grow
// the slices on demand.
const maxSampleHint = 4096

func sampleHint(cfg dynamo.Config) int {
	n := math.Ceil(cfg.Duration/cfg.Dt) + 1
	if n > maxSampleHint || math.IsNaN(n) {
		return maxSampleHint
	}
	return int(n)
}

func (s *Simulator) record(result *dynamo.Result, x dynamo.State, t float64, keep bool) error {
	if keep {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		if err := obs.OnStep(x, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) fail(result *dynamo.Result, x dynamo.State, err error) error {
	s.collect(result)
	return &dynamo.SimulationError{
		Step:    result.StepsTaken,
		Time:    s.sys.CurrentTime(),
		State:   x.Clone(),
		Wrapped: err,
	}
}
