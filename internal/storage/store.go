// Package storage keeps simulation runs in a SQLite database.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

const (
	DefaultFile = "runs.db"
	batchSize   = 2000
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrBadState    = errors.New("storage: state length is not a multiple of 4")
)

// Meta describes the inputs of a run.
type Meta struct {
	Name     string
	G        float64
	Step     float64
	Duration float64
	Masses   []float64
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
	"PRAGMA temp_store = MEMORY;",
}

type Store struct {
	db *gorm.DB
}

// Open opens the database at path. An empty path gives a private in-memory
// database.
func Open(path string) (*Store, error) {
	dsn := "file::memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// one connection keeps an in-memory database alive and serializes writers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Init creates or migrates the schema.
func (s *Store) Init() error {
	return s.db.AutoMigrate(Models...)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newRun(meta Meta) *Run {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	now := time.Now().UTC()
	return &Run{
		ID:        fmt.Sprintf("%s_%d", name, now.UnixNano()),
		Name:      name,
		CreatedAt: now,
		G:         meta.G,
		Step:      meta.Step,
		Duration:  meta.Duration,
		NumBodies: len(meta.Masses),
		Masses:    meta.Masses,
		Metrics:   map[string]float64{},
	}
}

// Save stores a finished result and returns the new run ID.
func (s *Store) Save(meta Meta, result *dynamo.Result) (string, error) {
	run := newRun(meta)
	run.StepsTaken = result.StepsTaken
	run.EnergyDrift = result.EnergyDrift
	if result.Metrics != nil {
		run.Metrics = result.Metrics
	}

	var samples []Sample
	for i, x := range result.States {
		rows, err := sampleRows(run.ID, i, result.Times[i], x)
		if err != nil {
			return "", err
		}
		samples = append(samples, rows...)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(samples) == 0 {
			return nil
		}
		return tx.CreateInBatches(samples, batchSize).Error
	})
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return run.ID, nil
}

// List returns all runs, newest first.
func (s *Store) List() ([]Run, error) {
	var runs []Run
	if err := s.db.Order("created_at desc, id desc").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*Run, error) {
	var run Run
	err := s.db.Where("id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LoadStates rebuilds the recorded condition vectors and their times.
func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	run, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	var samples []Sample
	err = s.db.Where("run_id = ?", runID).Order("seq asc, body asc").Find(&samples).Error
	if err != nil {
		return nil, nil, err
	}

	states := make([]dynamo.State, 0)
	times := make([]float64, 0)
	n := run.NumBodies
	for start := 0; start+n <= len(samples) && n > 0; start += n {
		x := make(dynamo.State, 4*n)
		for b, smp := range samples[start : start+n] {
			x[4*b] = smp.X
			x[4*b+1] = smp.Y
			x[4*b+2] = smp.XDot
			x[4*b+3] = smp.YDot
		}
		states = append(states, x)
		times = append(times, samples[start].Time)
	}
	return states, times, nil
}

// Delete removes a run and its samples.
func (s *Store) Delete(runID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&Sample{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", runID).Delete(&Run{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

func sampleRows(runID string, seq int, t float64, x dynamo.State) ([]Sample, error) {
	if len(x)%4 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadState, len(x))
	}
	rows := make([]Sample, len(x)/4)
	for b := range rows {
		rows[b] = Sample{
			RunID: runID,
			Seq:   seq,
			Body:  b + 1,
			Time:  t,
			X:     x[4*b],
			Y:     x[4*b+1],
			XDot:  x[4*b+2],
			YDot:  x[4*b+3],
		}
	}
	return rows, nil
}
