// Command report regenerates report files from a persisted sweep run.
package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"window-config-lab/internal/config"
	"window-config-lab/internal/reporting"
	"window-config-lab/internal/storage"
)

const (
	flagRunID = "run-id"
	flagList  = "list"
)

func main() {
	app := &cli.App{
		Name:  "report",
		Usage: "regenerate reports from stored sweep runs",
		Flags: append(config.CommonFlags(),
			&cli.StringFlag{Name: flagRunID, Usage: "sweep run to report on (default: latest)"},
			&cli.BoolFlag{Name: flagList, Usage: "list stored sweep runs and exit"},
			&cli.StringFlag{Name: config.FlagOutputDir, Aliases: []string{"o"}, Value: "output", EnvVars: []string{"OUTPUT_DIR"}, Usage: "report output directory"},
			&cli.IntFlag{Name: config.FlagTopResults, Value: reporting.DefaultTopResults, Usage: "configurations listed in the Markdown report"},
			&cli.IntFlag{Name: config.FlagTopJSON, Value: reporting.DefaultTopJSON, Usage: "configurations exported to JSON (-1 = all)"},
		),
		Before: func(c *cli.Context) error {
			return config.LoadEnv(c.String(config.FlagEnvFile))
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	settings := config.FromContext(c)
	if settings.PostgresDSN == "" {
		return fmt.Errorf("--%s is required", config.FlagPostgresDSN)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	log := config.NewLogger(settings.LogLevel, settings.LogFormat, os.Stderr)

	stores, err := config.OpenStores(c.Context, settings, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	if c.Bool(flagList) {
		return listRuns(c, stores.Runs)
	}

	runID := c.String(flagRunID)
	if runID == "" {
		runs, err := stores.Runs.GetAll(c.Context)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return errors.New("no sweep runs stored")
		}
		runID = runs[len(runs)-1].RunID
	}

	gen := reporting.NewGenerator().WithTopResults(settings.TopResults)
	report, ranked, err := gen.GenerateStored(c.Context, stores.Runs, stores.Results, runID)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	paths, err := reporting.WriteAll(settings.OutputDir, report, ranked, settings.TopJSON)
	if err != nil {
		return err
	}

	fmt.Printf("Report for sweep %s (%d ranked configurations)\n", runID, len(ranked))
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	return nil
}

func listRuns(c *cli.Context, runs storage.SweepRunStore) error {
	all, err := runs.GetAll(c.Context)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No sweep runs stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tCREATED\tCONFIGS\tFAILED\tBEST\tFINAL\tBASELINE")
	for _, r := range all {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t$%.2f\t$%.2f\n",
			r.RunID,
			time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339),
			r.ConfigCount, r.ErrorCount, r.BestConfigLabel,
			r.BestFinalBalance, r.BaselineFinalBalance)
	}
	return w.Flush()
}
