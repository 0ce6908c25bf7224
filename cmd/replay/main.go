// Command replay traces one configuration trade by trade, showing why each
// trade was admitted or skipped.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"window-config-lab/internal/config"
	"window-config-lab/internal/domain"
	"window-config-lab/internal/ingestion"
	"window-config-lab/internal/simulation"
	"window-config-lab/internal/storage"
	"window-config-lab/internal/window"
)

const (
	flagRunID       = "run-id"
	flagConfigID    = "config-id"
	flagMinMinute   = "min-minute"
	flagMaxMinute   = "max-minute"
	flagPositionPct = "position-pct"
	flagMaxPrice    = "max-price"
	flagStopOnFlip  = "stop-on-flip"
	flagMaxLosses   = "max-losses"
	flagMaxTrades   = "max-trades"
	flagFirstDir    = "first-direction-only"
	flagWindow      = "window"
	flagJSON        = "json"
)

func main() {
	app := &cli.App{
		Name:  "replay",
		Usage: "trace one configuration over the trade history",
		Flags: append(config.CommonFlags(),
			&cli.StringFlag{Name: flagRunID, Usage: "load the configuration from a stored sweep run"},
			&cli.StringFlag{Name: flagConfigID, Usage: "configuration ID within --run-id"},
			&cli.IntFlag{Name: flagMinMinute, Value: 2, Usage: "first entry minute"},
			&cli.IntFlag{Name: flagMaxMinute, Value: 9, Usage: "last entry minute"},
			&cli.Float64Flag{Name: flagPositionPct, Value: 0.01, Usage: "fraction of balance staked per trade"},
			&cli.IntFlag{Name: flagMaxPrice, Usage: "max buy price in cents (0 = no limit)"},
			&cli.BoolFlag{Name: flagStopOnFlip, Usage: "stop a window after a direction reversal"},
			&cli.IntFlag{Name: flagMaxLosses, Usage: "max losses per window (0 = no cap)"},
			&cli.IntFlag{Name: flagMaxTrades, Usage: "max trades per window (0 = no cap)"},
			&cli.BoolFlag{Name: flagFirstDir, Usage: "only trade the window's first direction"},
			&cli.Int64Flag{Name: flagWindow, Usage: "only print this window start (unix seconds)"},
			&cli.BoolFlag{Name: flagJSON, Usage: "output as JSON"},
			&cli.Float64Flag{Name: config.FlagStartingBalance, Value: simulation.DefaultStartingBalance, Usage: "starting balance"},
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
	if err := settings.Validate(); err != nil {
		return err
	}
	log := config.NewLogger(settings.LogLevel, settings.LogFormat, os.Stderr)

	stores, err := config.OpenStores(c.Context, settings, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	cfg, err := resolveConfig(c, stores.Results)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	trades, err := loadTrades(c, settings, stores.Trades)
	if err != nil {
		return err
	}

	balance, err := startingBalance(c.Context, stores.Runs, c.String(flagRunID),
		c.Float64(config.FlagStartingBalance), c.IsSet(config.FlagStartingBalance))
	if err != nil {
		return err
	}

	traces, result := simulation.Trace(window.Group(trades), cfg, balance)
	if c.IsSet(flagWindow) {
		traces = filterWindow(traces, c.Int64(flagWindow))
	}

	if c.Bool(flagJSON) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Config string                   `json:"config"`
			Result *domain.SimulationResult `json:"result"`
			Trace  []simulation.WindowTrace `json:"trace"`
		}{cfg.Label(), result, traces})
	}

	printTrace(os.Stdout, cfg, traces, result)
	return nil
}

// startingBalance picks the balance a replay starts from. A stored run
// replays from its own starting balance unless the flag was given explicitly.
func startingBalance(ctx context.Context, runs storage.SweepRunStore, runID string, flagValue float64, flagSet bool) (float64, error) {
	if runID == "" || flagSet {
		return flagValue, nil
	}
	if runs == nil {
		return 0, fmt.Errorf("run %s: no run store configured", runID)
	}
	run, err := runs.GetByID(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", runID, err)
	}
	return run.StartingBalance, nil
}

// resolveConfig reads the configuration from a stored run or from flags.
func resolveConfig(c *cli.Context, results storage.SweepResultStore) (domain.SweepConfig, error) {
	if runID := c.String(flagRunID); runID != "" {
		configID := c.String(flagConfigID)
		if configID == "" {
			top, err := results.GetTop(c.Context, runID, 1)
			if err != nil {
				return domain.SweepConfig{}, err
			}
			if len(top) == 0 {
				return domain.SweepConfig{}, fmt.Errorf("run %s: %w", runID, storage.ErrNotFound)
			}
			return top[0].Config, nil
		}
		r, err := results.GetByConfigID(c.Context, runID, configID)
		if err != nil {
			return domain.SweepConfig{}, fmt.Errorf("config %s of run %s: %w", configID, runID, err)
		}
		return r.Config, nil
	}

	cfg := domain.SweepConfig{
		MinMinute:          c.Int(flagMinMinute),
		MaxMinute:          c.Int(flagMaxMinute),
		PositionPct:        c.Float64(flagPositionPct),
		StopOnFlip:         c.Bool(flagStopOnFlip),
		FirstDirectionOnly: c.Bool(flagFirstDir),
	}
	if v := c.Int(flagMaxPrice); v > 0 {
		cfg.MaxBuyPriceCents = domain.IntPtr(v)
	}
	if v := c.Int(flagMaxLosses); v > 0 {
		cfg.MaxLossesPerWindow = domain.IntPtr(v)
	}
	if v := c.Int(flagMaxTrades); v > 0 {
		cfg.MaxTradesPerWindow = domain.IntPtr(v)
	}
	return cfg, nil
}

func loadTrades(c *cli.Context, settings config.Settings, store storage.TradeStore) ([]domain.TradeRecord, error) {
	if settings.Input != "" {
		ds, err := ingestion.LoadFile(settings.Input, ingestion.LoadOptions{SkipInvalid: settings.SkipInvalid})
		if err != nil {
			return nil, err
		}
		return ds.Trades, nil
	}
	rows, err := store.GetAll(c.Context)
	if err != nil {
		return nil, err
	}
	trades := make([]domain.TradeRecord, len(rows))
	for i, r := range rows {
		trades[i] = r.Trade
	}
	return trades, nil
}

func filterWindow(traces []simulation.WindowTrace, start int64) []simulation.WindowTrace {
	for _, t := range traces {
		if t.WindowStart == start {
			return []simulation.WindowTrace{t}
		}
	}
	return nil
}

func printTrace(w io.Writer, cfg domain.SweepConfig, traces []simulation.WindowTrace, result *domain.SimulationResult) {
	fmt.Fprintf(w, "Config: %s\n\n", cfg.Label())

	for _, wt := range traces {
		fmt.Fprintf(w, "Window %d  balance $%.2f -> $%.2f  (%d executed)\n",
			wt.WindowStart, wt.BalanceBefore, wt.BalanceAfter, wt.ExecutedTrades)
		for _, d := range wt.Decisions {
			t := d.Trade
			if d.Executed != nil {
				fmt.Fprintf(w, "  M%-2d %-4s %2dc %-4s  TRADE stake $%.2f  P&L %+.2f  balance $%.2f\n",
					t.EntryMinute, t.Direction, t.BuyPriceCents, t.Result,
					d.Executed.Stake, d.Executed.Profit, d.Executed.Balance)
				continue
			}
			fmt.Fprintf(w, "  M%-2d %-4s %2dc %-4s  SKIP %s\n",
				t.EntryMinute, t.Direction, t.BuyPriceCents, t.Result, d.Skip)
		}
	}

	pf := result.ProfitFactor.String()
	fmt.Fprintf(w, "\nFinal $%.2f  min $%.2f  trades %d  win rate %.1f%%  max drawdown $%.2f  profit factor %s\n",
		result.FinalBalance, result.MinBalance, result.TotalTrades, result.WinRate*100, result.MaxDrawdown, pf)
}
