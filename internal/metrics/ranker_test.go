package metrics

import (
	"errors"
	"math"
	"testing"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/sweep"
)

func makeOutcome(idx int, cfg domain.SweepConfig, final float64) sweep.Outcome {
	return sweep.Outcome{
		Index:    idx,
		ConfigID: cfg.Key(),
		Config:   cfg,
		Result:   &domain.SimulationResult{StartingBalance: 100, FinalBalance: final},
	}
}

func cfgWith(min, max int, pct float64) domain.SweepConfig {
	return domain.SweepConfig{MinMinute: min, MaxMinute: max, PositionPct: pct}
}

func TestRank_OrdersDescendingAndAssignsRanks(t *testing.T) {
	outcomes := []sweep.Outcome{
		makeOutcome(0, cfgWith(1, 2, 0.01), 101),
		makeOutcome(1, cfgWith(1, 3, 0.01), 120),
		makeOutcome(2, cfgWith(1, 4, 0.01), 95),
	}

	ranked, failed := Rank(outcomes)

	if len(failed) != 0 {
		t.Fatalf("expected no failures, got %d", len(failed))
	}
	want := []float64{120, 101, 95}
	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Errorf("ranked[%d].Rank = %d, want %d", i, r.Rank, i+1)
		}
		if r.Result.FinalBalance != want[i] {
			t.Errorf("ranked[%d] balance = %v, want %v", i, r.Result.FinalBalance, want[i])
		}
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	outcomes := []sweep.Outcome{
		makeOutcome(0, cfgWith(1, 2, 0.01), 110),
		makeOutcome(1, cfgWith(1, 3, 0.01), 110),
		makeOutcome(2, cfgWith(1, 4, 0.01), 110),
	}

	ranked, _ := Rank(outcomes)

	for i, r := range ranked {
		if r.Config.MaxMinute != i+2 {
			t.Errorf("tie order broken at %d: %s", i, r.Config.Label())
		}
	}
}

func TestRank_SeparatesFailures(t *testing.T) {
	bad := sweep.Outcome{Index: 1, Config: cfgWith(5, 2, 0.01), Err: errors.New("invalid")}
	outcomes := []sweep.Outcome{
		makeOutcome(0, cfgWith(1, 2, 0.01), 101),
		bad,
		makeOutcome(2, cfgWith(1, 4, 0.01), 99),
	}

	ranked, failed := Rank(outcomes)

	if len(ranked) != 2 || len(failed) != 1 {
		t.Fatalf("got %d ranked, %d failed", len(ranked), len(failed))
	}
	if failed[0].Index != 1 {
		t.Errorf("wrong failure returned: %+v", failed[0])
	}
}

func TestBest(t *testing.T) {
	if _, ok := Best(nil); ok {
		t.Error("Best on empty input should report ok=false")
	}

	ranked, _ := Rank([]sweep.Outcome{
		makeOutcome(0, cfgWith(1, 2, 0.01), 101),
		makeOutcome(1, cfgWith(1, 3, 0.02), 130),
	})
	best, ok := Best(ranked)
	if !ok || best.Result.FinalBalance != 130 || best.Rank != 1 {
		t.Errorf("unexpected best: %+v ok=%v", best, ok)
	}
}

func TestTop(t *testing.T) {
	ranked, _ := Rank([]sweep.Outcome{
		makeOutcome(0, cfgWith(1, 2, 0.01), 101),
		makeOutcome(1, cfgWith(1, 3, 0.02), 130),
		makeOutcome(2, cfgWith(1, 4, 0.02), 90),
	})

	if got := len(Top(ranked, 2)); got != 2 {
		t.Errorf("Top(2) len = %d", got)
	}
	if got := len(Top(ranked, 10)); got != 3 {
		t.Errorf("Top(10) len = %d", got)
	}
}

func TestFinalBalanceDistribution(t *testing.T) {
	ranked, _ := Rank([]sweep.Outcome{
		makeOutcome(0, cfgWith(1, 2, 0.01), 90),
		makeOutcome(1, cfgWith(1, 3, 0.01), 100),
		makeOutcome(2, cfgWith(1, 4, 0.01), 110),
		makeOutcome(3, cfgWith(1, 5, 0.01), 120),
		makeOutcome(4, cfgWith(1, 6, 0.01), 130),
	})

	d := FinalBalanceDistribution(ranked)

	if d.Count != 5 || d.Min != 90 || d.Max != 130 || d.Median != 110 || d.Mean != 110 {
		t.Errorf("unexpected distribution: %+v", d)
	}
	if d.Profitable != 3 {
		t.Errorf("Profitable = %d, want 3", d.Profitable)
	}
	if math.Abs(d.P10-94) > 1e-9 {
		t.Errorf("P10 = %v, want 94", d.P10)
	}
	if (FinalBalanceDistribution(nil) != Distribution{}) {
		t.Error("empty input should give zero distribution")
	}
}

func TestCompare(t *testing.T) {
	baseline := &domain.SimulationResult{FinalBalance: 80, TotalTrades: 40, WinRate: 0.5}
	best := domain.RankedResult{
		Config: cfgWith(1, 3, 0.02),
		Result: &domain.SimulationResult{FinalBalance: 120, TotalTrades: 12, WinRate: 0.75},
	}

	c := Compare(domain.BaselineConfig(), baseline, best)

	if c.ImprovementPct != 50 {
		t.Errorf("ImprovementPct = %v, want 50", c.ImprovementPct)
	}
	if c.BaselineCount != 40 || c.BestCount != 12 {
		t.Errorf("unexpected counts: %+v", c)
	}

	zero := Compare(domain.BaselineConfig(), &domain.SimulationResult{}, best)
	if zero.ImprovementPct != 0 {
		t.Errorf("zero baseline should yield 0 improvement, got %v", zero.ImprovementPct)
	}
}
