package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "runs", DefaultFile))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st
}

func testResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{0, 0, 0, 0, 1, 0, 0, 1},
			{0, 0, 0, 0, 0.9, 0.1, -0.1, 1},
		},
		Times:       []float64{0, 0.1},
		Metrics:     map[string]float64{"energy_drift": 1.5},
		EnergyDrift: 1.5,
		StepsTaken:  1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := openTestStore(t)

	meta := Meta{Name: "binary", G: 1, Step: 0.1, Duration: 0.1, Masses: []float64{1, 2}}
	runID, err := st.Save(meta, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	run, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if run.Name != "binary" || run.NumBodies != 2 {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(run.Masses) != 2 || run.Masses[1] != 2 {
		t.Errorf("masses not stored: %v", run.Masses)
	}
	if run.Metrics["energy_drift"] != 1.5 {
		t.Errorf("expected energy_drift 1.5, got %f", run.Metrics["energy_drift"])
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 samples, got %d states %d times", len(states), len(times))
	}
	if times[1] != 0.1 {
		t.Errorf("expected time 0.1, got %f", times[1])
	}
	if states[1][4] != 0.9 || states[1][6] != -0.1 {
		t.Errorf("state mismatch: %v", states[1])
	}
}

func TestStoreList(t *testing.T) {
	st := openTestStore(t)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, name := range []string{"a", "b"} {
		if _, err := st.Save(Meta{Name: name, Masses: []float64{1, 1}}, testResult()); err != nil {
			t.Fatal(err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Name != "b" {
		t.Errorf("expected newest first, got %s", runs[0].Name)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := openTestStore(t)

	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := st.Delete("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	st := openTestStore(t)

	runID, err := st.Save(Meta{Name: "x", Masses: []float64{1, 1}}, testResult())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(runID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := st.Load(runID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("run still present: %v", err)
	}
}

func TestStoreSaveBadState(t *testing.T) {
	st := openTestStore(t)
	result := &dynamo.Result{States: []dynamo.State{{1, 2, 3}}, Times: []float64{0}}

	if _, err := st.Save(Meta{Name: "bad"}, result); !errors.Is(err, ErrBadState) {
		t.Errorf("expected ErrBadState, got %v", err)
	}
}

func TestRecorder(t *testing.T) {
	st := openTestStore(t)

	rec, err := st.NewRecorder(Meta{Name: "live", Masses: []float64{1}})
	if err != nil {
		t.Fatalf("recorder failed: %v", err)
	}
	rec.batch = 4

	for i := 0; i < 10; i++ {
		if err := rec.OnStep(dynamo.State{float64(i), 0, 1, 0}, float64(i)*0.5); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	result := &dynamo.Result{StepsTaken: 9, EnergyDrift: 0.25, Metrics: map[string]float64{"min_separation": 3}}
	if err := rec.Finish(result, errors.New("collision")); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	run, err := st.Load(rec.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if run.StepsTaken != 9 || run.EnergyDrift != 0.25 || run.Failed != "collision" {
		t.Errorf("summary not stored: %+v", run)
	}
	if run.Metrics["min_separation"] != 3 {
		t.Errorf("metrics not stored: %v", run.Metrics)
	}

	states, times, err := st.LoadStates(rec.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(states))
	}
	if states[7][0] != 7 || times[9] != 4.5 {
		t.Errorf("sample order wrong: %v %v", states[7], times[9])
	}
}

func TestRecorderRejectsBadState(t *testing.T) {
	st := openTestStore(t)
	rec, err := st.NewRecorder(Meta{Name: "bad", Masses: []float64{1}})
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.OnStep(dynamo.State{1, 2}, 0); !errors.Is(err, ErrBadState) {
		t.Errorf("expected ErrBadState, got %v", err)
	}
}

func TestOpenPragmaFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	saved := pragmas
	pragmas = append(append([]string(nil), saved...), "SELECT * FROM no_such_table;")
	_, err := Open(path)
	pragmas = saved
	if err == nil {
		t.Fatal("expected a PRAGMA error")
	}

	st, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st.Close()
	if err := st.Init(); err != nil {
		t.Fatalf("init after failed open: %v", err)
	}
}
