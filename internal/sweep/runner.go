// Package sweep evaluates many configurations against one set of windows.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/idhash"
	"window-config-lab/internal/observability"
	"window-config-lab/internal/simulation"
	"window-config-lab/internal/window"
)

// DefaultProgressEvery is how many finished configurations separate progress log lines.
const DefaultProgressEvery = 10000

// ErrSimulationPanic is wrapped into Outcome.Err when a simulation panics.
var ErrSimulationPanic = errors.New("simulation panicked")

// Options configures a Runner.
type Options struct {
	// Workers bounds concurrent simulations. Zero or negative means runtime.NumCPU().
	Workers int

	// StartingBalance defaults to simulation.DefaultStartingBalance.
	StartingBalance float64

	// KeepTrades retains the executed trade list in every result.
	// Off by default: a full sweep holds one result per configuration.
	KeepTrades bool

	// ProgressEvery defaults to DefaultProgressEvery.
	ProgressEvery int

	Logger  logrus.FieldLogger
	Metrics *observability.Metrics
}

// Outcome is the evaluation of one configuration. Exactly one of Result and
// Err is set.
type Outcome struct {
	Index    int // position in the input config list
	ConfigID string
	Config   domain.SweepConfig
	Result   *domain.SimulationResult
	Err      error
}

// Runner runs sweeps.
type Runner struct {
	opts Options
	log  logrus.FieldLogger

	// simulate is swapped in tests to inject failures.
	simulate func(*window.Windows, domain.SweepConfig, float64) *domain.SimulationResult
}

// NewRunner creates a Runner, filling defaults into opts.
func NewRunner(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.StartingBalance == 0 {
		opts.StartingBalance = simulation.DefaultStartingBalance
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := &Runner{
		opts: opts,
		log:  log.WithField("component", "sweep"),
	}
	if opts.KeepTrades {
		r.simulate = simulation.Simulate
	} else {
		r.simulate = simulation.Summarize
	}
	return r
}

// Workers returns the effective worker count.
func (r *Runner) Workers() int {
	return r.opts.Workers
}

// Run simulates every config against windows. The returned outcomes are in
// input order regardless of scheduling. A failing configuration is reported
// in its Outcome and never aborts the sweep. If ctx is cancelled, configs not
// yet started get ctx.Err() as their Err and Run returns the context error.
func (r *Runner) Run(ctx context.Context, windows *window.Windows, configs []domain.SweepConfig) ([]Outcome, error) {
	start := time.Now()
	outcomes := make([]Outcome, len(configs))
	for i, cfg := range configs {
		outcomes[i] = Outcome{Index: i, ConfigID: idhash.ComputeConfigID(cfg), Config: cfg}
	}

	r.log.WithFields(logrus.Fields{
		"configs": len(configs),
		"windows": windows.Len(),
		"trades":  windows.TradeCount(),
		"workers": r.opts.Workers,
	}).Info("starting sweep")

	var (
		g    errgroup.Group
		done atomic.Int64
	)
	g.SetLimit(r.opts.Workers)

	scheduled := 0
	for i := range outcomes {
		if ctx.Err() != nil {
			break
		}
		o := &outcomes[i]
		g.Go(func() error {
			r.evaluate(windows, o)
			if n := done.Add(1); n%int64(r.opts.ProgressEvery) == 0 {
				r.log.Infof("tested %d/%d configurations", n, len(configs))
			}
			return nil
		})
		scheduled++
	}
	_ = g.Wait() // workers never return errors

	failed := 0
	for i := range outcomes {
		if i >= scheduled {
			outcomes[i].Err = ctx.Err()
		}
		if outcomes[i].Err != nil {
			failed++
		}
	}

	elapsed := time.Since(start)
	status := "success"
	if ctx.Err() != nil {
		status = "cancelled"
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.RecordSweepRun(status, elapsed.Seconds())
	}

	r.log.WithFields(logrus.Fields{
		"configs": len(configs),
		"failed":  failed,
		"elapsed": elapsed.Round(time.Millisecond),
	}).Info("sweep finished")

	if err := ctx.Err(); err != nil {
		return outcomes, fmt.Errorf("sweep interrupted after %d/%d configs: %w", scheduled, len(configs), err)
	}
	return outcomes, nil
}

// evaluate simulates one configuration, capturing invalid configs and panics.
func (r *Runner) evaluate(windows *window.Windows, o *Outcome) {
	started := time.Now()
	if r.opts.Metrics != nil {
		r.opts.Metrics.ConfigsInFlight.Inc()
		defer r.opts.Metrics.ConfigsInFlight.Dec()
	}
	defer func() {
		if p := recover(); p != nil {
			o.Result = nil
			o.Err = fmt.Errorf("%w: %s: %v", ErrSimulationPanic, o.Config.Label(), p)
		}
		if o.Err != nil {
			r.log.WithError(o.Err).WithField("config", o.Config.Label()).Warn("configuration failed")
		}
		if r.opts.Metrics != nil {
			r.opts.Metrics.RecordConfigEvaluated(time.Since(started).Seconds(), o.Err)
		}
	}()

	if err := o.Config.Validate(); err != nil {
		o.Err = fmt.Errorf("config %s: %w", o.Config.Label(), err)
		return
	}
	o.Result = r.simulate(windows, o.Config, r.opts.StartingBalance)
}
