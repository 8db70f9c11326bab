package storage

import (
	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Recorder streams samples into a run while a simulation is in progress.
// It implements dynamo.Observer and writes in batches.
type Recorder struct {
	store   *Store
	run     *Run
	seq     int
	pending []Sample
	batch   int
}

// NewRecorder creates the run row immediately so partial runs survive a
// failed simulation.
func (s *Store) NewRecorder(meta Meta) (*Recorder, error) {
	run := newRun(meta)
	if err := s.db.Create(run).Error; err != nil {
		return nil, err
	}
	return &Recorder{store: s, run: run, batch: batchSize}, nil
}

func (r *Recorder) RunID() string { return r.run.ID }

func (r *Recorder) OnStep(x dynamo.State, t float64) error {
	rows, err := sampleRows(r.run.ID, r.seq, t, x)
	if err != nil {
		return err
	}
	r.seq++
	r.pending = append(r.pending, rows...)
	if len(r.pending) >= r.batch {
		return r.Flush()
	}
	return nil
}

func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.store.db.CreateInBatches(r.pending, r.batch).Error; err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}

// Finish flushes remaining samples and stores the run summary. runErr, when
// non-nil, is kept on the run as its failure reason.
func (r *Recorder) Finish(result *dynamo.Result, runErr error) error {
	if err := r.Flush(); err != nil {
		return err
	}

	if result != nil {
		r.run.StepsTaken = result.StepsTaken
		r.run.EnergyDrift = result.EnergyDrift
		if result.Metrics != nil {
			r.run.Metrics = result.Metrics
		}
	}
	if runErr != nil {
		r.run.Failed = runErr.Error()
	}

	return r.store.db.Model(r.run).
		Select("steps_taken", "energy_drift", "metrics", "failed").
		Updates(r.run).Error
}
