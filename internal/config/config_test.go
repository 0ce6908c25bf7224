package config

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"window-config-lab/internal/configspace"
)

func validSettings() Settings {
	return Settings{
		Input:           "trades.json",
		StartingBalance: 100,
		TopResults:      20,
		MinuteFirst:     1,
		MinuteLast:      13,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   error
	}{
		{"valid", func(*Settings) {}, nil},
		{"postgres only", func(s *Settings) { s.Input = ""; s.PostgresDSN = "postgres://x" }, nil},
		{"no source", func(s *Settings) { s.Input = "" }, ErrNoTradeSource},
		{"clickhouse alone", func(s *Settings) { s.ClickhouseDSN = "clickhouse://x" }, ErrClickhouseAlone},
		{"negative workers", func(s *Settings) { s.Workers = -1 }, ErrInvalidSetting},
		{"bad level", func(s *Settings) { s.LogLevel = "loud" }, ErrInvalidSetting},
		{"bad format", func(s *Settings) { s.LogFormat = "xml" }, ErrInvalidSetting},
		{"bad minutes", func(s *Settings) { s.MinuteFirst = 9; s.MinuteLast = 3 }, configspace.ErrInvalidMinuteRange},
		{"bad pct", func(s *Settings) { s.PositionPcts = []float64{0.01, 0.01} }, configspace.ErrDuplicateValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSettings_ValidateJoinsErrors(t *testing.T) {
	s := validSettings()
	s.Input = ""
	s.Workers = -2

	err := s.Validate()
	assert.ErrorIs(t, err, ErrNoTradeSource)
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestSettings_Grid(t *testing.T) {
	s := Settings{MinuteFirst: 2, MinuteLast: 5, PositionPcts: []float64{0.01}, MaxPrices: []int{0, 60}}
	g := s.Grid()

	assert.Equal(t, 2, g.MinuteFirst)
	assert.Equal(t, 5, g.MinuteLast)
	assert.Equal(t, []float64{0.01}, g.PositionPcts)
	require.Len(t, g.MaxBuyPrices, 2)
	assert.Nil(t, g.MaxBuyPrices[0])
	assert.Equal(t, 60, *g.MaxBuyPrices[1])

	// Untouched dimensions keep their defaults.
	assert.Equal(t, configspace.DefaultGrid().MaxTrades, g.MaxTrades)
}

func TestFromContext(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range append(CommonFlags(), SweepFlags()...) {
		require.NoError(t, f.Apply(fs))
	}
	require.NoError(t, fs.Parse([]string{
		"--input", "data.json",
		"--workers", "3",
		"--position-pcts", "0.01,0.02",
		"--max-prices", "0,55",
	}))

	s := FromContext(cli.NewContext(cli.NewApp(), fs, nil))
	assert.Equal(t, "data.json", s.Input)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, 100.0, s.StartingBalance)
	assert.Equal(t, []float64{0.01, 0.02}, s.PositionPcts)
	assert.Equal(t, []int{0, 55}, s.MaxPrices)
	assert.True(t, s.Migrate)
	assert.NoError(t, s.Validate())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("WINDOW_LAB_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("WINDOW_LAB_TEST_VAR", "")
	os.Unsetenv("WINDOW_LAB_TEST_VAR")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("WINDOW_LAB_TEST_VAR"))

	assert.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
	assert.NoError(t, LoadEnv(""))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("component", "test").Info("hello")
	assert.Contains(t, buf.String(), `"component":"test"`)

	assert.Equal(t, logrus.InfoLevel, NewLogger("nonsense", "text", &buf).GetLevel())
}

func TestOpenStores_Memory(t *testing.T) {
	stores, err := OpenStores(context.Background(), Settings{}, NewLogger("error", "text", &bytes.Buffer{}))
	require.NoError(t, err)
	defer stores.Close()

	assert.False(t, stores.Persistent)
	assert.NotNil(t, stores.Trades)
	assert.NotNil(t, stores.Runs)
	assert.NotNil(t, stores.Results)
}
