package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/storage"
)

var (
	settingsFile string
	scenarioFile string
	preset       string
	save         bool
	runName      string
	force        bool
	csvOut       string
	yamlOut      string
	asJSON       bool
	speed        int
	sweepSteps   []float64
	theme        string

	settings *config.Settings
	log      zerolog.Logger
	logOut   io.Writer = os.Stderr
)

// flagKeys maps command line flags to settings keys.
var flagKeys = map[string]string{
	"data":       "dataDir",
	"log-level":  "logLevel",
	"log-format": "logFormat",
	"params":     "params",
	"output":     "output",
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "orbitsim",
		Short:         "two-dimensional n-body gravity simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			s, err := config.LoadSettings(v, settingsFile)
			if err != nil {
				return err
			}
			l, err := logging.ForFormat(s.LogFormat, s.LogLevel, logOut)
			if err != nil {
				return err
			}
			settings = s
			log = l
			log.Debug().Str("dataDir", s.DataDir).Str("config", v.ConfigFileUsed()).Msg("settings loaded")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default ./orbitsim.yaml)")
	rootCmd.PersistentFlags().String("data", ".orbitsim", "data directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate the bodies in a parameters file and write output rows",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSourceFlags(runCmd)
	runCmd.Flags().String("output", "output.txt", "output file")
	runCmd.Flags().BoolVar(&save, "save", false, "store the run in the data directory")
	runCmd.Flags().StringVar(&runName, "name", "", "name of the stored run")

	initCmd := &cobra.Command{
		Use:   "init [preset]",
		Short: "write a parameters or scenario file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  writeParameters,
	}
	initCmd.Flags().String("params", "parameters.txt", "parameters file to write")
	initCmd.Flags().StringVar(&yamlOut, "yaml", "", "write a scenario file (yaml) instead of a parameters file")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot positions and energy of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&csvOut, "out", "o", "", "output file (default stdout)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the bodies move in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSourceFlags(liveCmd)
	liveCmd.Flags().IntVar(&speed, "speed", 1, "RK4 steps per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "deepspace", "color theme")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare conservation across step sizes",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSourceFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepSteps, "steps", nil, "step sizes (default: step, step/2, step/4, step/8)")
	sweepCmd.Flags().BoolVar(&save, "save", false, "store every successful run in the data directory")
	sweepCmd.Flags().StringVar(&runName, "name", "", "name prefix of the stored runs")

	rootCmd.AddCommand(runCmd, sweepCmd, initCmd, listCmd, showCmd, plotCmd, exportCSVCmd, deleteCmd, presetsCmd, liveCmd)
	return rootCmd
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("params", "parameters.txt", "parameters file")
	cmd.Flags().StringVar(&scenarioFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func openStore() (*storage.Store, error) {
	st, err := storage.Open(filepath.Join(settings.DataDir, storage.DefaultFile))
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	if err := st.Init(); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate run store: %w", err)
	}
	return st, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if settings == nil {
			log = logging.New("info", logOut)
		}
		log.Error().Err(err).Msg("orbitsim failed")
		os.Exit(1)
	}
}
