package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/sootsim/internal/scenario"
	"github.com/san-kum/sootsim/internal/storage"
)

var (
	vary   []string
	trials int
	seed   uint64
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	results, err := scenario.Run(ctx, sc, st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tSOURCE\tSTEPS\tN\tFV\tRUN")
	for i, r := range results {
		source := r.Step.Preset
		if r.Step.Config != "" {
			source = r.Step.Config
		}
		last := r.Result.Len() - 1
		fmt.Fprintf(w, "%d\t%s\t%d\t%.4e\t%.4e\t%s\n", i+1, source, r.Result.Steps,
			r.Result.NumberDensity[last], r.Result.VolumeFraction[last], r.RunID)
	}
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	return err
}

// parseRange reads "name=min:max".
func parseRange(s string) (string, scenario.Range, error) {
	name, bounds, ok := strings.Cut(s, "=")
	lo, hi, ok2 := strings.Cut(bounds, ":")
	if !ok || !ok2 || name == "" {
		return "", scenario.Range{}, fmt.Errorf("invalid --vary %q, want name=min:max", s)
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return "", scenario.Range{}, fmt.Errorf("invalid --vary %q: %w", s, err)
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return "", scenario.Range{}, fmt.Errorf("invalid --vary %q: %w", s, err)
	}
	return strings.TrimSpace(name), scenario.Range{Min: lower, Max: upper}, nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mc := scenario.MonteCarloConfig{
		Vary:    make(map[string]scenario.Range, len(vary)),
		Trials:  trials,
		Seed:    seed,
		Workers: workers,
	}
	for _, s := range vary {
		pname, r, err := parseRange(s)
		if err != nil {
			return err
		}
		mc.Vary[pname] = r
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("monte carlo on %s: %d trials\n\n", name, trials)
	res, err := scenario.RunMonteCarlo(ctx, cfg, mc)
	if err != nil {
		return err
	}

	fmt.Printf("%-16s  %-12s  %-12s  %-12s  %-12s\n", "quantity", "mean", "stddev", "p05", "p95")
	fmt.Println(strings.Repeat("-", 72))
	for _, q := range []string{"number_density", "volume_fraction", "residual"} {
		s, ok := res.Stats(q)
		if !ok {
			continue
		}
		fmt.Printf("%-16s  %-12.4e  %-12.4e  %-12.4e  %-12.4e\n", q, s.Mean, s.StdDev, s.P05, s.P95)
	}
	if res.Failed > 0 {
		fmt.Printf("\n%d of %d trials failed\n", res.Failed, len(res.Outcomes))
	}
	return nil
}
