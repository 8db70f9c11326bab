package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/orbit"
	"github.com/san-kum/orbitsim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tBODIES\tDURATION\tSTEP\tSTEPS\tDRIFT\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Failed != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%g\t%d\t%.2e\t%s\n",
			run.ID,
			run.Name,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.NumBodies,
			run.Duration,
			run.Step,
			run.StepsTaken,
			run.EnergyDrift,
			status,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", run.ID)
	fmt.Fprintf(w, "name\t%s\n", run.Name)
	fmt.Fprintf(w, "created\t%s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "g\t%g\n", run.G)
	fmt.Fprintf(w, "duration\t%g\n", run.Duration)
	fmt.Fprintf(w, "step\t%g\n", run.Step)
	fmt.Fprintf(w, "masses\t%v\n", run.Masses)
	fmt.Fprintf(w, "steps\t%d\n", run.StepsTaken)
	fmt.Fprintf(w, "energy_drift\t%.6e\n", run.EnergyDrift)
	if run.Failed != "" {
		fmt.Fprintf(w, "failed\t%s\n", run.Failed)
	}

	keys := make([]string, 0, len(run.Metrics))
	for k := range run.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%.6e\n", k, run.Metrics[k])
	}
	return w.Flush()
}

// systemFor rebuilds a system able to evaluate invariants of the run's
// stored conditions.
func systemFor(run *storage.Run) (*orbit.System, error) {
	sys := orbit.NewSystem()
	sys.SetGravitationalConstant(run.G)
	for _, m := range run.Masses {
		b, err := orbit.NewBody(0, 0, 0, 0, m)
		if err != nil {
			return nil, err
		}
		sys.AddBody(b)
	}
	return sys, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(run.ID)
	if err != nil {
		return err
	}
	if len(states) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", run.ID)
	fmt.Printf("bodies: %d\n", run.NumBodies)
	fmt.Printf("samples: %d\n\n", len(states))

	for axis, label := range []string{"x", "y"} {
		series := make([][]float64, run.NumBodies)
		for b := range series {
			series[b] = column(states, 4*b+axis)
		}
		graph := asciigraph.PlotMany(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow),
			asciigraph.Caption(label+" position vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	sys, err := systemFor(run)
	if err != nil {
		return err
	}
	energy := make([]float64, 0, len(states))
	for _, x := range states {
		if e, err := sys.Energy(x); err == nil {
			energy = append(energy, e)
		}
	}
	if len(energy) > 1 {
		graph := asciigraph.Plot(energy,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("total energy"),
		)
		fmt.Println(graph)
	}

	return nil
}

func column(states []dynamo.State, idx int) []float64 {
	out := make([]float64, len(states))
	for i := range states {
		if idx < len(states[i]) {
			out[i] = states[i][idx]
		}
	}
	return out
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	var out io.Writer = os.Stdout
	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return writeCSV(out, states, times)
}

func writeCSV(out io.Writer, states []dynamo.State, times []float64) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"time", "body", "x", "y", "xdot", "ydot"}); err != nil {
		return err
	}

	for i, x := range states {
		t := strconv.FormatFloat(times[i], 'g', -1, 64)
		for b := 0; b+3 < len(x); b += 4 {
			row := []string{t, strconv.Itoa(b/4 + 1)}
			for _, v := range x[b : b+4] {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func deleteRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(args[0]); err != nil {
		return err
	}
	log.Info().Str("run", args[0]).Msg("run deleted")
	return nil
}
