package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/sootsim/internal/config"
	"github.com/san-kum/sootsim/internal/experiment"
	"github.com/san-kum/sootsim/internal/sweep"
	"github.com/san-kum/sootsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	stepSize    float64
	endTime     float64
	temperature float64
	pressureAtm float64
	precursor   string
	policy      string
	feedback    bool
	integrator  string
	reactorKind string
	energy      bool

	every    int
	plot     bool
	noSave   bool
	runName  string
	plotCols []string
	svgPath  string
	width    int
	height   int

	levels  int
	factor  int
	params  []string
	workers int
	best    string
	theme   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sootsim",
		Short: "soot precursor particle model coupled to a gas-phase reactor",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sootsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", config.DefaultLogLevel, "log level")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a coupled simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&every, "every", 100, "print every n-th step")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the particle series")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&runName, "name", "run", "run name")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.CurrentTheme.Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotCols, "series", []string{"number_density", "residual"}, "columns to plot")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "write an svg chart to this path")
	plotCmd.Flags().IntVar(&width, "width", 70, "chart width")
	plotCmd.Flags().IntVar(&height, "height", 12, "chart height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [path]",
		Short: "export run data to CSV",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [path]",
		Short: "export run metadata and data to JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	convergeCmd := &cobra.Command{
		Use:   "converge",
		Short: "check convergence under outer step refinement",
		Args:  cobra.NoArgs,
		RunE:  runConverge,
	}
	addRunFlags(convergeCmd)
	convergeCmd.Flags().IntVar(&levels, "levels", 3, "number of refinement levels")
	convergeCmd.Flags().IntVar(&factor, "factor", 2, "step size reduction per level")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter grid",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&params, "param", nil,
		fmt.Sprintf("name=v1,v2,... (one of %v)", sweep.Parameters()))
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().StringVar(&best, "best", "number_density", "quantity to maximize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "propagate parameter uncertainty",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addRunFlags(monteCarloCmd)
	monteCarloCmd.Flags().StringArrayVar(&vary, "vary", nil, "name=min:max, drawn uniformly")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 32, "number of trials")
	monteCarloCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				marker := " "
				if name == config.DefaultPreset {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
		},
	}

	componentsCmd := &cobra.Command{
		Use:   "components",
		Short: "list reactors and integrators",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			reg := experiment.NewRegistry()
			fmt.Printf("reactors:    %v\n", reg.ListReactors())
			fmt.Printf("integrators: %v\n", reg.ListIntegrators())
			fmt.Printf("sweep params: %v\n", sweep.Parameters())
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd,
		convergeCmd, sweepCmd, scenarioCmd, monteCarloCmd, presetsCmd, componentsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&stepSize, "dt", config.DefaultStepSize, "outer step size (s)")
	cmd.Flags().Float64Var(&endTime, "time", config.DefaultStepSize*config.DefaultSteps, "end time (s)")
	cmd.Flags().Float64Var(&temperature, "temperature", config.DefaultTemperature, "initial temperature (K)")
	cmd.Flags().Float64Var(&pressureAtm, "pressure", 12, "pressure (atm)")
	cmd.Flags().StringVar(&precursor, "precursor", config.DefaultPrecursor, "precursor species")
	cmd.Flags().StringVar(&policy, "policy", "lagged", "inception fraction policy (lagged, reactor)")
	cmd.Flags().BoolVar(&feedback, "feedback", false, "write the residual back to the reactor")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().StringVar(&reactorKind, "reactor", config.DefaultReactorKind, "reactor kind")
	cmd.Flags().BoolVar(&energy, "energy", false, "solve the energy equation")
}
