// Package engine runs configured risk runs against one immutable set of
// market inputs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"time"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/pkg/id"
	"github.com/rustyeddy/bondrisk/pricing"
	"github.com/rustyeddy/bondrisk/risk"
	"github.com/rustyeddy/bondrisk/scenario"
	"golang.org/x/sync/errgroup"
)

// Inputs is everything a run reads. The engine copies the maps it is given
// and never writes to the portfolio or series.
type Inputs struct {
	Portfolio *market.Portfolio
	Series    map[string]*market.CurveSeries

	// AsOf defaults to the portfolio date. Base curves are the latest
	// observation on or before it.
	AsOf time.Time

	// Lookback window. End defaults to AsOf.
	Start time.Time
	End   time.Time

	Paths      int
	Seed       uint64
	Correlated bool

	// Workers bounds pricing and path generation inside one run; Runs
	// bounds how many runs execute at once.
	Workers int
	Runs    int

	Stress     map[string]scenario.StressShock
	MaxGapDays int
	Policy     risk.Policy
}

// Engine executes run configs. It is safe for concurrent use.
type Engine struct {
	in     Inputs
	curves map[string]market.Curve
	log    *slog.Logger
}

// NewEngine validates the curves the portfolio references and snapshots
// them at the valuation date.
func NewEngine(in Inputs, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	if in.Portfolio == nil || len(in.Portfolio.Positions) == 0 {
		return nil, errors.New("engine: portfolio has no positions")
	}
	if in.AsOf.IsZero() {
		in.AsOf = in.Portfolio.AsOf
	}
	if in.AsOf.IsZero() {
		return nil, errors.New("engine: valuation date is required")
	}
	if in.End.IsZero() {
		in.End = in.AsOf
	}
	if in.MaxGapDays <= 0 {
		in.MaxGapDays = market.DefaultMaxGapDays
	}
	if in.Paths <= 0 {
		in.Paths = scenario.DefaultPaths
	}
	if in.Runs <= 0 {
		in.Runs = runtime.GOMAXPROCS(0)
	}
	in.Series = maps.Clone(in.Series)
	stress := maps.Clone(scenario.DefaultStress)
	maps.Copy(stress, in.Stress)
	in.Stress = stress

	e := &Engine{in: in, curves: map[string]market.Curve{}, log: log}
	for _, name := range in.Portfolio.Curves() {
		cs, ok := in.Series[name]
		if !ok || cs == nil {
			return nil, fmt.Errorf("engine: no history for curve %q", name)
		}
		if err := cs.Validate(in.MaxGapDays); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		c, err := cs.Snapshot(in.AsOf)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.curves[name] = c
	}
	return e, nil
}

// Curves returns the base curve snapshots keyed by name.
func (e *Engine) Curves() map[string]market.Curve {
	return maps.Clone(e.curves)
}

// Portfolio returns the priced portfolio.
func (e *Engine) Portfolio() *market.Portfolio {
	return e.in.Portfolio
}

// RunError ties a failure to the run that produced it.
type RunError struct {
	ConfigID string
	RunID    string
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s (%s): %v", e.ConfigID, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Outcome is the result or failure of one run config.
type Outcome struct {
	Config   RunConfig
	RunID    string
	Result   *risk.Result
	Legs     *pricing.Legs
	Decision risk.Decision
	Err      error
	Started  time.Time
	Elapsed  time.Duration
}

// OK reports whether the run produced a result.
func (o *Outcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// Report holds every outcome keyed by run config id.
type Report struct {
	Outcomes map[string]*Outcome
	// Order is the config ids in the order they were submitted.
	Order []string
}

// Each visits outcomes in submission order.
func (r *Report) Each(fn func(*Outcome)) {
	for _, cid := range r.Order {
		fn(r.Outcomes[cid])
	}
}

// Failed lists the outcomes that carry an error.
func (r *Report) Failed() []*Outcome {
	var out []*Outcome
	r.Each(func(o *Outcome) {
		if o.Err != nil {
			out = append(out, o)
		}
	})
	return out
}

// Run executes every config concurrently. A failing run is reported in its
// own outcome and never stops its siblings. Cancelling ctx fails the runs
// still in flight.
func (e *Engine) Run(ctx context.Context, configs []RunConfig) *Report {
	rep := &Report{Outcomes: make(map[string]*Outcome, len(configs))}
	var todo []*Outcome
	for _, rc := range configs {
		if _, dup := rep.Outcomes[rc.ID]; dup {
			e.log.Warn("duplicate run config ignored", "config", rc.ID, "spec", rc.Spec)
			continue
		}
		o := &Outcome{Config: rc, RunID: id.New()}
		rep.Outcomes[rc.ID] = o
		rep.Order = append(rep.Order, rc.ID)
		todo = append(todo, o)
	}

	var g errgroup.Group
	g.SetLimit(e.in.Runs)
	for _, o := range todo {
		g.Go(func() error {
			e.execute(ctx, o)
			return nil
		})
	}
	_ = g.Wait()
	return rep
}

func (e *Engine) execute(ctx context.Context, o *Outcome) {
	rc := o.Config
	log := e.log.With("run_id", o.RunID, "config", rc.ID)
	log.Info("run started", "spec", rc.Spec)
	o.Started = time.Now()

	res, legs, err := e.run(ctx, rc, o.RunID)
	o.Elapsed = time.Since(o.Started)
	if err != nil {
		o.Err = &RunError{ConfigID: rc.ID, RunID: o.RunID, Err: err}
		log.Error("run failed", "error", err, "elapsed", o.Elapsed)
		return
	}

	o.Result = res
	o.Legs = legs
	o.Decision = risk.Evaluate(e.in.Policy, res, e.in.Portfolio.TotalFund)
	for _, v := range o.Decision.Violations {
		log.Warn("risk limit breached", "code", v.Code, "detail", v.Msg)
	}
	log.Info("run finished",
		"metric", res.Metric,
		"value", res.Value,
		"scenarios", len(res.PnL),
		"elapsed", o.Elapsed,
	)
}

func (e *Engine) run(ctx context.Context, rc RunConfig, runID string) (*risk.Result, *pricing.Legs, error) {
	keys := e.requiredKeys(rc.Model)

	var (
		set *scenario.Set
		err error
	)
	switch rc.Kind {
	case KindVaR:
		gen, gerr := scenario.ForMethod(rc.Method)
		if gerr != nil {
			return nil, nil, gerr
		}
		set, err = gen.Generate(ctx, scenario.Input{
			Series:     e.in.Series,
			Keys:       keys,
			Start:      e.in.Start,
			End:        e.in.End,
			Horizon:    rc.Metric.Horizon,
			Paths:      e.in.Paths,
			Seed:       e.in.Seed,
			Workers:    e.in.Workers,
			Correlated: e.in.Correlated,
		})
	case KindStress:
		shock, ok := e.in.Stress[rc.Stress]
		if !ok {
			return nil, nil, fmt.Errorf("unknown stress scenario %q", rc.Stress)
		}
		set, err = scenario.Stress(rc.Stress, keys, shock)
	default:
		err = fmt.Errorf("unknown risk metric %q", rc.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	pricer := pricing.Pricer{Model: rc.Model, Mode: rc.Reval, Workers: e.in.Workers}
	legs, err := pricer.Price(ctx, e.in.Portfolio, e.curves, set)
	if err != nil {
		return nil, nil, err
	}

	var res *risk.Result
	if rc.Kind == KindStress {
		res, err = risk.Stress(runID, legs, e.in.Portfolio.Positions)
	} else {
		res, err = risk.Aggregate(runID, legs, e.in.Portfolio.Positions, rc.Metric)
	}
	if err != nil {
		return nil, nil, err
	}
	return res, legs, nil
}

// requiredKeys lists the curve points a model reprices: the mapped point for
// ytm and flat mappings, every snapshot tenor of the curve for zero_curve.
func (e *Engine) requiredKeys(model pricing.Model) []scenario.Key {
	seen := map[scenario.Key]bool{}
	var keys []scenario.Key
	add := func(k scenario.Key) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	for _, pos := range e.in.Portfolio.Positions {
		ref := pos.Ref
		if model == pricing.ZeroCurve && ref.Tenor != market.NoTenor {
			tenors := make([]market.Tenor, 0, len(e.curves[ref.Curve].Points))
			for _, p := range e.curves[ref.Curve].Points {
				tenors = append(tenors, p.Tenor)
			}
			slices.Sort(tenors)
			for _, t := range tenors {
				add(scenario.Key{Curve: ref.Curve, Tenor: t})
			}
			continue
		}
		add(scenario.Key{Curve: ref.Curve, Tenor: ref.Tenor})
	}
	return keys
}
