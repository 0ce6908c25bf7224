package sweep

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"window-config-lab/internal/configspace"
	"window-config-lab/internal/domain"
	"window-config-lab/internal/observability"
	"window-config-lab/internal/simulation"
	"window-config-lab/internal/window"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fixtureWindows() *window.Windows {
	var trades []domain.TradeRecord
	dirs := []domain.Direction{domain.DirectionUp, domain.DirectionDown}
	for w := int64(0); w < 12; w++ {
		for m := 1; m <= 13; m += 2 {
			res := domain.ResultWin
			if (int(w)*m)%4 == 1 {
				res = domain.ResultLoss
			}
			trades = append(trades, domain.TradeRecord{
				WindowStart:   w * 900,
				EntryMinute:   m,
				Direction:     dirs[(int(w)+m/3)%2],
				BuyPriceCents: 45 + (m*5+int(w))%45,
				Result:        res,
			})
		}
	}
	return window.Group(trades)
}

func fixtureConfigs(t *testing.T) []domain.SweepConfig {
	t.Helper()
	g := configspace.Grid{
		MinuteFirst:        1,
		MinuteLast:         6,
		PositionPcts:       []float64{0.01, 0.02},
		MaxBuyPrices:       []*int{nil, domain.IntPtr(60)},
		StopOnFlip:         []bool{true, false},
		MaxLosses:          []*int{nil, domain.IntPtr(1)},
		MaxTrades:          []*int{nil, domain.IntPtr(2)},
		FirstDirectionOnly: []bool{true, false},
	}
	configs, err := configspace.Generate(g)
	require.NoError(t, err)
	return configs
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	windows := fixtureWindows()
	configs := fixtureConfigs(t)

	seq, err := NewRunner(Options{Workers: 1, Logger: quietLogger()}).Run(context.Background(), windows, configs)
	require.NoError(t, err)
	par, err := NewRunner(Options{Workers: 8, Logger: quietLogger()}).Run(context.Background(), windows, configs)
	require.NoError(t, err)

	require.Len(t, par, len(configs))
	for i := range seq {
		assert.Equal(t, i, par[i].Index)
		assert.Equal(t, configs[i].Key(), par[i].Config.Key())
		require.NoError(t, par[i].Err)
		assert.True(t, reflect.DeepEqual(seq[i].Result, par[i].Result), "result %d differs", i)
	}
}

func TestRun_MatchesDirectSimulation(t *testing.T) {
	windows := fixtureWindows()
	configs := fixtureConfigs(t)[:20]

	outcomes, err := NewRunner(Options{Workers: 4, KeepTrades: true, Logger: quietLogger()}).Run(context.Background(), windows, configs)
	require.NoError(t, err)

	for i, o := range outcomes {
		want := simulation.Simulate(windows, configs[i], simulation.DefaultStartingBalance)
		assert.Equal(t, want, o.Result)
	}
}

func TestRun_SummaryOmitsTrades(t *testing.T) {
	outcomes, err := NewRunner(Options{Logger: quietLogger()}).Run(context.Background(), fixtureWindows(), fixtureConfigs(t)[:3])
	require.NoError(t, err)

	for _, o := range outcomes {
		require.NotNil(t, o.Result)
		assert.Nil(t, o.Result.Trades)
	}
}

func TestRun_InvalidConfigIsolated(t *testing.T) {
	configs := []domain.SweepConfig{
		{MinMinute: 1, MaxMinute: 5, PositionPct: 0.01},
		{MinMinute: 7, MaxMinute: 2, PositionPct: 0.01},
		{MinMinute: 2, MaxMinute: 9, PositionPct: 0.01},
	}

	outcomes, err := NewRunner(Options{Workers: 2, Logger: quietLogger()}).Run(context.Background(), fixtureWindows(), configs)
	require.NoError(t, err)

	require.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, domain.ErrInvalidMinuteRange)
	assert.Nil(t, outcomes[1].Result)
	require.NoError(t, outcomes[2].Err)
	assert.NotNil(t, outcomes[2].Result)
}

func TestRun_PanicIsolated(t *testing.T) {
	configs := fixtureConfigs(t)[:5]
	r := NewRunner(Options{Workers: 2, Logger: quietLogger()})
	r.simulate = func(w *window.Windows, cfg domain.SweepConfig, start float64) *domain.SimulationResult {
		if cfg.Key() == configs[2].Key() {
			panic("boom")
		}
		return simulation.Summarize(w, cfg, start)
	}

	outcomes, err := r.Run(context.Background(), fixtureWindows(), configs)
	require.NoError(t, err)

	assert.ErrorIs(t, outcomes[2].Err, ErrSimulationPanic)
	for i, o := range outcomes {
		if i != 2 {
			assert.NoError(t, o.Err)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := NewRunner(Options{Logger: quietLogger()}).Run(ctx, fixtureWindows(), fixtureConfigs(t))
	require.ErrorIs(t, err, context.Canceled)

	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestRun_Empty(t *testing.T) {
	outcomes, err := NewRunner(Options{Logger: quietLogger()}).Run(context.Background(), window.Group(nil), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestRun_RecordsMetrics(t *testing.T) {
	m := observability.NewMetrics("sweep_test", prometheus.NewRegistry())
	configs := []domain.SweepConfig{
		{MinMinute: 1, MaxMinute: 5, PositionPct: 0.01},
		{MinMinute: 1, MaxMinute: 5, PositionPct: 0},
	}

	_, err := NewRunner(Options{Logger: quietLogger(), Metrics: m}).Run(context.Background(), fixtureWindows(), configs)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConfigsEvaluated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRunsTotal.WithLabelValues("success")))
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(Options{})
	assert.Positive(t, r.Workers())
	assert.Equal(t, simulation.DefaultStartingBalance, r.opts.StartingBalance)
	assert.Equal(t, DefaultProgressEvery, r.opts.ProgressEvery)
}
