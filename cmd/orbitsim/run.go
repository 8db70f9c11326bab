package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/output"
	"github.com/san-kum/orbitsim/internal/paramfile"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
)

// loadParameters picks the run input: a preset, then a scenario file, then
// the parameters file. The returned name labels stored runs.
func loadParameters() (*paramfile.Parameters, string, error) {
	switch {
	case preset != "":
		sc := config.GetPreset(preset)
		if sc == nil {
			return nil, "", fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		p, err := sc.Parameters()
		return p, preset, err
	case scenarioFile != "":
		sc, err := config.Load(scenarioFile)
		if err != nil {
			return nil, "", err
		}
		p, err := sc.Parameters()
		if err != nil {
			return nil, "", fmt.Errorf("scenario %s: %w", scenarioFile, err)
		}
		name := sc.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))
		}
		return p, name, nil
	default:
		p, err := paramfile.Load(settings.Params)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", settings.Params, err)
		}
		return p, "params", nil
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	p, name, err := loadParameters()
	if err != nil {
		return err
	}
	if runName != "" {
		name = runName
	}

	sys := p.System()
	s := sim.New(sys)
	for _, m := range metrics.Defaults(sys) {
		s.AddMetric(m)
	}

	w, err := output.Create(settings.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer w.Close()
	s.AddObserver(w)

	var rec *storage.Recorder
	if save {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err = st.NewRecorder(storage.Meta{
			Name:     name,
			G:        p.G,
			Step:     p.Step,
			Duration: p.Duration,
			Masses:   sys.Masses(),
		})
		if err != nil {
			return fmt.Errorf("start run record: %w", err)
		}
		s.AddObserver(rec)
	}

	log.Info().
		Str("source", name).
		Int("bodies", sys.NumBodies()).
		Float64("g", p.G).
		Float64("duration", p.Duration).
		Float64("step", p.Step).
		Msg("starting simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// rows already stream to the output file and the recorder
	result, runErr := s.Run(ctx, dynamo.Config{Dt: p.Step, Duration: p.Duration, ValidateState: true, DiscardStates: true})

	if err := w.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if rec != nil {
		if err := rec.Finish(result, runErr); err != nil {
			log.Warn().Err(err).Str("run", rec.RunID()).Msg("could not finish run record")
		} else {
			log.Info().Str("run", rec.RunID()).Msg("run saved")
		}
	}

	if runErr != nil {
		var simErr *dynamo.SimulationError
		if errors.As(runErr, &simErr) {
			log.Warn().Int("step", simErr.Step).Float64("time", simErr.Time).Int("rows", w.Rows()).
				Msg("simulation stopped early")
		}
		return fmt.Errorf("simulation failed: %w", runErr)
	}

	log.Info().Int("steps", result.StepsTaken).Int("rows", w.Rows()).Str("output", settings.Output).Msg("simulation complete")
	return printMetrics(result, sys.CurrentTime())
}

func printMetrics(result *dynamo.Result, finalTime float64) error {
	names := make([]string, 0, len(result.Metrics))
	for k := range result.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "steps\t%d\n", result.StepsTaken)
	fmt.Fprintf(tw, "final_time\t%g\n", finalTime)
	fmt.Fprintf(tw, "final_energy_drift\t%.6e\n", result.EnergyDrift)
	for _, k := range names {
		fmt.Fprintf(tw, "%s\t%.6e\n", k, result.Metrics[k])
	}
	return tw.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	p, name, err := loadParameters()
	if err != nil {
		return err
	}

	steps := sweepSteps
	if len(steps) == 0 {
		steps = []float64{p.Step, p.Step / 2, p.Step / 4, p.Step / 8}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().Str("source", name).Floats64("steps", steps).Bool("save", save).Msg("starting sweep")
	cfg := dynamo.Config{Duration: p.Duration, ValidateState: true, DiscardStates: !save}
	results := sim.Sweep(ctx, p.System, cfg, steps)

	if save {
		if runName != "" {
			name = runName
		}
		if err := saveSweep(name, p, results); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTEPS\tENERGY_DRIFT\tANGMOM_DRIFT\tMIN_SEPARATION\tTIME_MS\tERROR")
	for _, r := range results {
		errText := "-"
		if r.Err != nil {
			errText = r.Err.Error()
		}
		var taken int
		var energy, angmom, minSep float64
		if r.Result != nil {
			taken = r.Result.StepsTaken
			energy = r.Result.Metrics["energy_drift"]
			angmom = r.Result.Metrics["angular_momentum_drift"]
			minSep = r.Result.Metrics["min_separation"]
		}
		fmt.Fprintf(tw, "%g\t%d\t%.3e\t%.3e\t%.4g\t%.2f\t%s\n",
			r.Step, taken, energy, angmom, minSep, float64(r.Elapsed.Microseconds())/1000, errText)
	}
	return tw.Flush()
}

// saveSweep stores each successful sweep run as its own run named
// <name>_h<step>.
func saveSweep(name string, p *paramfile.Parameters, results []sim.SweepResult) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	masses := p.System().Masses()
	for _, r := range results {
		if r.Err != nil {
			log.Warn().Err(r.Err).Float64("step", r.Step).Msg("not saving failed sweep run")
			continue
		}
		id, err := st.Save(storage.Meta{
			Name:     fmt.Sprintf("%s_h%g", name, r.Step),
			G:        p.G,
			Step:     r.Step,
			Duration: p.Duration,
			Masses:   masses,
		}, r.Result)
		if err != nil {
			return fmt.Errorf("save sweep run h=%g: %w", r.Step, err)
		}
		log.Info().Str("run", id).Float64("step", r.Step).Msg("sweep run saved")
	}
	return nil
}

func writeParameters(cmd *cobra.Command, args []string) error {
	sc := config.GetPreset(args[0])
	if sc == nil {
		return fmt.Errorf("unknown preset %q (available: %s)", args[0], strings.Join(config.ListPresets(), ", "))
	}
	p, err := sc.Parameters()
	if err != nil {
		return err
	}

	path := settings.Params
	if yamlOut != "" {
		path = yamlOut
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if yamlOut != "" {
		out := config.FromParameters(p)
		out.Name = args[0]
		if err := config.Save(path, out); err != nil {
			return err
		}
		log.Info().Str("preset", args[0]).Str("path", path).Msg("scenario written")
		return nil
	}

	if err := paramfile.Save(path, p); err != nil {
		return err
	}
	log.Info().Str("preset", args[0]).Str("path", path).Msg("parameters written")
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBODIES\tG\tDURATION\tSTEP")
	for _, name := range config.ListPresets() {
		sc := config.GetPreset(name)
		fmt.Fprintf(tw, "%s\t%d\t%g\t%g\t%g\n", name, len(sc.Bodies), sc.G, sc.Duration, sc.Step)
	}
	return tw.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	p, name, err := loadParameters()
	if err != nil {
		return err
	}

	m := viz.NewModel(name, p.System(), p.Step)
	m.SetStepsPerTick(speed)
	m.SetTheme(viz.GetTheme(theme))

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		log.Warn().Err(fm.Err()).Float64("time", fm.System().CurrentTime()).Msg("live simulation stopped")
	}
	return nil
}
