// Command ingest validates a trades JSON file and imports it into PostgreSQL.
// Without --postgres-dsn the file is only validated.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"window-config-lab/internal/config"
	"window-config-lab/internal/ingestion"
	"window-config-lab/internal/metrics"
	"window-config-lab/internal/window"
)

const flagBatchSize = "batch-size"

func main() {
	app := &cli.App{
		Name:  "ingest",
		Usage: "load historical trades into the trade store",
		Flags: append(config.CommonFlags(),
			&cli.IntFlag{Name: flagBatchSize, Value: ingestion.DefaultBatchSize, Usage: "trades per insert batch"},
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
	if settings.Input == "" {
		return fmt.Errorf("--%s is required", config.FlagInput)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	log := config.NewLogger(settings.LogLevel, settings.LogFormat, os.Stderr)

	ds, err := ingestion.LoadFile(settings.Input, ingestion.LoadOptions{
		SkipInvalid: settings.SkipInvalid,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	windows := window.Group(ds.Trades)
	fmt.Printf("Loaded %d trades in %d windows (%d rejected, %d windows with a direction flip)\n",
		len(ds.Trades), windows.Len(), len(ds.Rejected), metrics.CountFlipWindows(windows))

	if settings.PostgresDSN == "" {
		fmt.Println("No --postgres-dsn given, nothing imported")
		return nil
	}

	stores, err := config.OpenStores(c.Context, settings, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	n, err := ingestion.Import(c.Context, stores.Trades, ds.Trades, c.Int(flagBatchSize))
	if err != nil {
		return fmt.Errorf("import after %d trades: %w", n, err)
	}
	total, err := stores.Trades.Count(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d trades (%d stored)\n", n, total)
	return nil
}
