// Command verify replays stored sweep results and reports any that no longer
// match a fresh simulation over the same trades.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"window-config-lab/internal/config"
	"window-config-lab/internal/domain"
	"window-config-lab/internal/ingestion"
	"window-config-lab/internal/verification"
)

const (
	flagRunID    = "run-id"
	flagConfigID = "config-id"
	flagTop      = "top"
)

// errDivergent makes the command exit non-zero when any result diverges.
var errDivergent = errors.New("verification found divergent results")

func main() {
	app := &cli.App{
		Name:  "verify",
		Usage: "check stored sweep results against a fresh replay",
		Flags: append(config.CommonFlags(),
			&cli.StringFlag{Name: flagRunID, Required: true, Usage: "sweep run to verify"},
			&cli.StringFlag{Name: flagConfigID, Usage: "verify a single configuration"},
			&cli.IntFlag{Name: flagTop, Value: 100, Usage: "verify the N best results (-1 = all)"},
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

	// A run computed from a file is verified against the same file.
	var trades []domain.TradeRecord
	if settings.Input != "" {
		ds, err := ingestion.LoadFile(settings.Input, ingestion.LoadOptions{SkipInvalid: settings.SkipInvalid, Logger: log})
		if err != nil {
			return err
		}
		trades = ds.Trades
		if trades == nil {
			trades = []domain.TradeRecord{}
		}
	}

	v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		TradeStore:  stores.Trades,
		RunStore:    stores.Runs,
		ResultStore: stores.Results,
		Trades:      trades,
	})

	runID := c.String(flagRunID)
	if configID := c.String(flagConfigID); configID != "" {
		res, err := v.VerifyConfig(c.Context, runID, configID)
		if err != nil {
			return err
		}
		printResult(res)
		if !res.Match {
			return errDivergent
		}
		return nil
	}

	report, err := v.VerifyTop(c.Context, runID, c.Int(flagTop))
	if err != nil {
		return err
	}
	for i := range report.Results {
		if !report.Results[i].Match {
			printResult(&report.Results[i])
		}
	}
	fmt.Printf("Run %s: %d/%d results match\n", report.RunID, report.MatchedResults, report.TotalResults)
	if report.Divergent > 0 {
		return errDivergent
	}
	return nil
}

func printResult(r *verification.VerificationResult) {
	status := "OK"
	if !r.Match {
		status = "DIVERGENT"
	}
	fmt.Printf("#%d %s [%s] stored $%.2f replayed $%.2f\n", r.Rank, r.Label, status, r.StoredFinal, r.ReplayedFinal)
	for _, d := range r.Divergences {
		fmt.Printf("    %s: stored %v, replayed %v\n", d.Field, d.Expected, d.Actual)
	}
}
