package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/sootsim/internal/analysis"
	"github.com/san-kum/sootsim/internal/coupling"
	"github.com/san-kum/sootsim/internal/experiment"
	"github.com/san-kum/sootsim/internal/export"
	"github.com/san-kum/sootsim/internal/storage"
	"github.com/san-kum/sootsim/internal/sweep"
	"github.com/san-kum/sootsim/internal/viz"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	e, err := experiment.Build(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d steps of %gs)...\n", name, cfg.Steps(), cfg.Coupling.StepSize)
	start := time.Now()
	res, runErr := e.Run(ctx)
	elapsed := time.Since(start)

	printTable(res, every)
	if runErr != nil {
		return runErr
	}

	if plot {
		charts, err := viz.PlotResult(res, []string{"volume_fraction", "residual", "precursor"}, 70, 10)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(charts)
	}

	fmt.Printf("\ncompleted in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		if runName == "run" {
			runName = name
		}
		runID, err := st.Save(runName, cfg, res)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Println(viz.RenderSummary(name, res))
	return nil
}

// printTable writes the gas state and particle series every n-th step and
// always the last one.
func printTable(res *coupling.Result, n int) {
	if n <= 0 {
		n = 1
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "step\tt (s)\tT (K)\tP (Pa)\tu (J/kg)\tN (#/cc)\tFV (ppm)\tresidual\t")
	last := res.Len() - 1
	for i := 0; i <= last; i++ {
		if i%n != 0 && i != last {
			continue
		}
		fmt.Fprintf(w, "%d\t%.4e\t%.2f\t%.5e\t%.5e\t%.5e\t%.5e\t%.5e\t\n",
			i, res.Times[i], res.Temperature[i], res.Pressure[i], res.InternalEnergy[i],
			res.NumberDensity[i], res.VolumeFraction[i], res.Residual[i])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := viz.SetTheme(theme); err != nil {
		return err
	}

	e, err := experiment.Build(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m := viz.NewModel(ctx, e.Stepper(), name)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(viz.Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tREACTOR\tT0\tSTEPS\tDT\tPOLICY\tN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fK\t%d\t%gs\t%s\t%.4e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.ReactorKind,
			run.Temperature,
			run.Steps,
			run.StepSize,
			run.Policy,
			run.Final.NumberDensity,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	res.Metrics = meta.Metrics

	if svgPath != "" {
		chart := export.DefaultChart()
		chart.Title = meta.ID
		chart.LogY = true
		svg, err := export.ResultToSVG(res, plotCols, chart)
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("reactor: %s (%s)\n", meta.ReactorKind, meta.Integrator)
	fmt.Printf("samples: %d\n\n", res.Len())

	charts, err := viz.PlotResult(res, plotCols, width, height)
	if err != nil {
		return err
	}
	fmt.Println(charts)
	fmt.Println()
	fmt.Println(viz.RenderSummary(meta.Name, res))
	return nil
}

func optionalPath(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportCSV(args[0], optionalPath(args))
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(args[0], optionalPath(args))
}

func runConverge(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	run := func(ctx context.Context, dt float64) (*coupling.Result, error) {
		c := cfg.Clone()
		c.Coupling.StepSize = dt
		e, err := experiment.Build(c)
		if err != nil {
			return nil, err
		}
		return e.Run(ctx)
	}

	fmt.Printf("refining %s from dt=%g by %dx over %d levels\n\n", name, cfg.Coupling.StepSize, factor, levels)
	ref, err := analysis.Refine(ctx, run, cfg.Coupling.StepSize, levels, factor)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s  %-8s  %-14s  %-12s\n", "dt", "steps", "final N", "difference")
	fmt.Println(strings.Repeat("-", 52))
	for _, l := range ref.Levels {
		fmt.Printf("%-12.4g  %-8d  %-14.6e  %-12.4e\n", l.StepSize, l.Steps, l.Final, l.Difference)
	}

	fmt.Printf("\nconverging: %v\n", ref.Converging())
	if order := ref.Order(); !math.IsNaN(order) {
		fmt.Printf("observed order: %.3f\n", order)
	}
	return nil
}

// parseParam reads "name=v1,v2,...".
func parseParam(s string) (sweep.Param, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return sweep.Param{}, fmt.Errorf("invalid --param %q, want name=v1,v2", s)
	}
	p := sweep.Param{Name: strings.TrimSpace(name)}
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return sweep.Param{}, fmt.Errorf("invalid value in --param %q: %w", s, err)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(params) == 0 {
		return fmt.Errorf("at least one --param is required (one of %v)", sweep.Parameters())
	}

	grid := make([]sweep.Param, 0, len(params))
	for _, s := range params {
		p, err := parseParam(s)
		if err != nil {
			return err
		}
		grid = append(grid, p)
	}
	g, err := sweep.NewGrid(grid...)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %d points...\n\n", g.Size())
	start := time.Now()
	outcomes, err := sweep.New(g, workers).Run(ctx, cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(grid)+3)
	for _, p := range grid {
		header = append(header, p.Name)
	}
	header = append(header, "N", "FV", "residual")
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, o := range outcomes {
		row := make([]string, 0, len(header))
		for _, p := range grid {
			row = append(row, strconv.FormatFloat(o.Params[p.Name], 'g', 6, 64))
		}
		if o.Err != nil {
			row = append(row, "error: "+o.Err.Error())
		} else {
			row = append(row,
				fmt.Sprintf("%.4e", o.NumberDensity),
				fmt.Sprintf("%.4e", o.VolumeFraction),
				fmt.Sprintf("%.4e", o.Residual))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", time.Since(start))
	if i := sweep.Best(outcomes, best, true); i >= 0 {
		fmt.Printf("max %s at %v\n", best, outcomes[i].Params)
	}
	return nil
}
