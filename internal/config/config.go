// Package config holds the settings shared by the command-line tools.
// Values come from flags, with environment variables (optionally loaded from
// a .env file) as fallbacks.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"window-config-lab/internal/configspace"
	"window-config-lab/internal/domain"
	"window-config-lab/internal/reporting"
	"window-config-lab/internal/simulation"
	"window-config-lab/internal/sweep"
)

// Settings validation errors.
var (
	ErrNoTradeSource   = errors.New("either --input or --postgres-dsn is required")
	ErrInvalidSetting  = errors.New("invalid setting")
	ErrClickhouseAlone = errors.New("--clickhouse-dsn requires --postgres-dsn")
)

// Settings is the resolved configuration of a command.
type Settings struct {
	Input       string // trades JSON file
	SkipInvalid bool

	PostgresDSN   string
	ClickhouseDSN string
	Migrate       bool

	OutputDir       string
	Workers         int
	StartingBalance float64
	ProgressEvery   int
	TopResults      int
	TopJSON         int

	// Grid overrides. Zero values keep configspace.DefaultGrid.
	MinuteFirst  int
	MinuteLast   int
	PositionPcts []float64
	MaxPrices    []int // 0 means no limit

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Flag names.
const (
	FlagEnvFile         = "env-file"
	FlagInput           = "input"
	FlagSkipInvalid     = "skip-invalid"
	FlagPostgresDSN     = "postgres-dsn"
	FlagClickhouseDSN   = "clickhouse-dsn"
	FlagMigrate         = "migrate"
	FlagOutputDir       = "output-dir"
	FlagWorkers         = "workers"
	FlagStartingBalance = "starting-balance"
	FlagProgressEvery   = "progress-every"
	FlagTopResults      = "top"
	FlagTopJSON         = "top-json"
	FlagMinuteFirst     = "minute-first"
	FlagMinuteLast      = "minute-last"
	FlagPositionPcts    = "position-pcts"
	FlagMaxPrices       = "max-prices"
	FlagMetricsAddr     = "metrics-addr"
	FlagLogLevel        = "log-level"
	FlagLogFormat       = "log-format"
)

// CommonFlags are accepted by every command.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagEnvFile, Value: ".env", Usage: "dotenv file loaded before flags are resolved (ignored if missing)"},
		&cli.StringFlag{Name: FlagInput, Aliases: []string{"i"}, EnvVars: []string{"TRADES_INPUT"}, Usage: "trades JSON file"},
		&cli.BoolFlag{Name: FlagSkipInvalid, EnvVars: []string{"SKIP_INVALID"}, Usage: "drop malformed trade records instead of failing"},
		&cli.StringFlag{Name: FlagPostgresDSN, EnvVars: []string{"POSTGRES_DSN"}, Usage: "PostgreSQL connection string (trades, sweep runs)"},
		&cli.StringFlag{Name: FlagClickhouseDSN, EnvVars: []string{"CLICKHOUSE_DSN"}, Usage: "ClickHouse connection string (sweep results)"},
		&cli.BoolFlag{Name: FlagMigrate, Value: true, EnvVars: []string{"RUN_MIGRATIONS"}, Usage: "apply embedded migrations on connect"},
		&cli.StringFlag{Name: FlagLogLevel, Value: "info", EnvVars: []string{"LOG_LEVEL"}, Usage: "trace, debug, info, warn, error"},
		&cli.StringFlag{Name: FlagLogFormat, Value: "text", EnvVars: []string{"LOG_FORMAT"}, Usage: "text or json"},
	}
}

// SweepFlags configure a sweep run.
func SweepFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagOutputDir, Aliases: []string{"o"}, Value: "output", EnvVars: []string{"OUTPUT_DIR"}, Usage: "report output directory"},
		&cli.IntFlag{Name: FlagWorkers, EnvVars: []string{"SWEEP_WORKERS"}, Usage: "concurrent simulations (0 = number of CPUs)"},
		&cli.Float64Flag{Name: FlagStartingBalance, Value: simulation.DefaultStartingBalance, EnvVars: []string{"STARTING_BALANCE"}, Usage: "starting balance of every simulation"},
		&cli.IntFlag{Name: FlagProgressEvery, Value: sweep.DefaultProgressEvery, Usage: "log progress every N configurations"},
		&cli.IntFlag{Name: FlagTopResults, Value: reporting.DefaultTopResults, Usage: "configurations listed in the Markdown report"},
		&cli.IntFlag{Name: FlagTopJSON, Value: reporting.DefaultTopJSON, Usage: "configurations exported to JSON (-1 = all)"},
		&cli.IntFlag{Name: FlagMinuteFirst, Value: domain.FirstEntryMinute, Usage: "first entry minute of the grid"},
		&cli.IntFlag{Name: FlagMinuteLast, Value: domain.LastEntryMinute, Usage: "last entry minute of the grid"},
		&cli.Float64SliceFlag{Name: FlagPositionPcts, Usage: "position sizes as fractions, e.g. 0.005,0.01"},
		&cli.IntSliceFlag{Name: FlagMaxPrices, Usage: "max buy price caps in cents, 0 = no limit"},
		&cli.StringFlag{Name: FlagMetricsAddr, EnvVars: []string{"METRICS_ADDR"}, Usage: "serve Prometheus /metrics on this address during the sweep"},
	}
}

// LoadEnv loads a dotenv file into the process environment. A missing file
// is not an error. Variables already set are kept.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// FromContext resolves settings from a parsed command line. Flags a command
// does not declare keep their zero value.
func FromContext(c *cli.Context) Settings {
	return Settings{
		Input:           c.String(FlagInput),
		SkipInvalid:     c.Bool(FlagSkipInvalid),
		PostgresDSN:     c.String(FlagPostgresDSN),
		ClickhouseDSN:   c.String(FlagClickhouseDSN),
		Migrate:         c.Bool(FlagMigrate),
		OutputDir:       c.String(FlagOutputDir),
		Workers:         c.Int(FlagWorkers),
		StartingBalance: c.Float64(FlagStartingBalance),
		ProgressEvery:   c.Int(FlagProgressEvery),
		TopResults:      c.Int(FlagTopResults),
		TopJSON:         c.Int(FlagTopJSON),
		MinuteFirst:     c.Int(FlagMinuteFirst),
		MinuteLast:      c.Int(FlagMinuteLast),
		PositionPcts:    c.Float64Slice(FlagPositionPcts),
		MaxPrices:       c.IntSlice(FlagMaxPrices),
		MetricsAddr:     c.String(FlagMetricsAddr),
		LogLevel:        c.String(FlagLogLevel),
		LogFormat:       c.String(FlagLogFormat),
	}
}

// Validate checks the settings, returning every problem joined.
func (s Settings) Validate() error {
	var errs []error

	if s.Input == "" && s.PostgresDSN == "" {
		errs = append(errs, ErrNoTradeSource)
	}
	if s.ClickhouseDSN != "" && s.PostgresDSN == "" {
		errs = append(errs, ErrClickhouseAlone)
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers %d", ErrInvalidSetting, s.Workers))
	}
	if s.StartingBalance < 0 {
		errs = append(errs, fmt.Errorf("%w: starting balance %v", ErrInvalidSetting, s.StartingBalance))
	}
	if s.TopResults < 0 {
		errs = append(errs, fmt.Errorf("%w: top %d", ErrInvalidSetting, s.TopResults))
	}
	if s.LogLevel != "" {
		if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidSetting, err))
		}
	}
	if s.LogFormat != "" && s.LogFormat != "text" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%w: log format %q", ErrInvalidSetting, s.LogFormat))
	}
	if s.MinuteFirst != 0 || s.MinuteLast != 0 {
		if err := s.Grid().Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Grid returns configspace.DefaultGrid with the settings' overrides applied.
func (s Settings) Grid() configspace.Grid {
	g := configspace.DefaultGrid()
	if s.MinuteFirst != 0 {
		g.MinuteFirst = s.MinuteFirst
	}
	if s.MinuteLast != 0 {
		g.MinuteLast = s.MinuteLast
	}
	if len(s.PositionPcts) > 0 {
		g.PositionPcts = s.PositionPcts
	}
	if len(s.MaxPrices) > 0 {
		g.MaxBuyPrices = make([]*int, len(s.MaxPrices))
		for i, p := range s.MaxPrices {
			if p != 0 {
				g.MaxBuyPrices[i] = domain.IntPtr(p)
			}
		}
	}
	return g
}

// NewLogger builds the process logger. Invalid values fall back to info/text.
func NewLogger(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return log
}
