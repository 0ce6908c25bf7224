// Command sweep evaluates every configuration of the grid against a trade
// history and writes a ranked report.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"window-config-lab/internal/config"
	"window-config-lab/internal/domain"
	"window-config-lab/internal/ingestion"
	"window-config-lab/internal/observability"
	"window-config-lab/internal/orchestrator"
	"window-config-lab/internal/reporting"
)

func main() {
	app := &cli.App{
		Name:   "sweep",
		Usage:  "search the window trading configuration space",
		Flags:  append(config.CommonFlags(), config.SweepFlags()...),
		Before: loadEnv,
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadEnv(c *cli.Context) error {
	return config.LoadEnv(c.String(config.FlagEnvFile))
}

func run(c *cli.Context) error {
	settings := config.FromContext(c)
	if err := settings.Validate(); err != nil {
		return err
	}
	log := config.NewLogger(settings.LogLevel, settings.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.MetricsAddr != "" {
		srv := serveMetrics(settings.MetricsAddr, log)
		defer shutdown(srv)
	}

	stores, err := config.OpenStores(ctx, settings, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	// Trades from a file take precedence over the trade store.
	var trades []domain.TradeRecord
	if settings.Input != "" {
		ds, err := ingestion.LoadFile(settings.Input, ingestion.LoadOptions{
			SkipInvalid: settings.SkipInvalid,
			Logger:      log,
		})
		if err != nil {
			return err
		}
		trades = ds.Trades
		if len(trades) == 0 {
			trades = []domain.TradeRecord{}
		}
	}

	grid := settings.Grid()
	orch := orchestrator.New(orchestrator.Options{
		TradeStore:      stores.Trades,
		RunStore:        stores.Runs,
		ResultStore:     stores.Results,
		Grid:            &grid,
		Workers:         settings.Workers,
		StartingBalance: settings.StartingBalance,
		ProgressEvery:   settings.ProgressEvery,
		TopResults:      settings.TopResults,
		Logger:          log,
		Metrics:         observability.DefaultMetrics,
	})

	result, err := orch.Run(ctx, trades)
	if err != nil {
		return err
	}

	paths, err := reporting.WriteAll(settings.OutputDir, result.Report, result.Ranked, settings.TopJSON)
	if err != nil {
		return err
	}

	fmt.Printf("Sweep %s finished: %d configurations, %d failed\n",
		result.Run.RunID, result.Run.ConfigCount, result.Run.ErrorCount)
	fmt.Printf("Best: %s -> $%.2f (baseline $%.2f, %+.1f%%)\n",
		result.Run.BestConfigLabel, result.Run.BestFinalBalance,
		result.Run.BaselineFinalBalance, result.Comparison.ImprovementPct)
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	return nil
}

func serveMetrics(addr string, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
