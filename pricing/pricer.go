package pricing

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/scenario"
	"golang.org/x/sync/errgroup"
)

// scenarioChunk is how many scenarios of one instrument a task prices.
const scenarioChunk = 512

// Pricer prices a portfolio under every scenario of a set.
type Pricer struct {
	Model   Model
	Mode    RevalMode
	Workers int
}

// Legs is the priced table of one run. Rows follow portfolio positions and
// Prices columns follow set scenarios.
type Legs struct {
	Model       Model
	Mode        RevalMode
	Set         *scenario.Set
	Instruments []string
	Base        []float64
	Sensitivity []Sensitivity
	Prices      [][]float64

	valuers []Valuer
}

// Price binds every position to its curve snapshot and reprices the
// instrument x scenario cross product on a bounded pool. The first failure
// cancels outstanding work and no partial table is returned.
func (p Pricer) Price(ctx context.Context, pf *market.Portfolio, curves map[string]market.Curve, set *scenario.Set) (*Legs, error) {
	reval, err := ForMode(p.Mode)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, fmt.Errorf("pricing: nil scenario set")
	}

	n := len(pf.Positions)
	legs := &Legs{
		Model:       p.Model,
		Mode:        p.Mode,
		Set:         set,
		Instruments: make([]string, n),
		Base:        make([]float64, n),
		Sensitivity: make([]Sensitivity, n),
		Prices:      make([][]float64, n),
		valuers:     make([]Valuer, n),
	}
	for i, pos := range pf.Positions {
		id := pos.Instrument.ID
		curve, ok := curves[pos.Ref.Curve]
		if !ok {
			return nil, invalid(id, BaseScenario, "no curve %q for mapping %s", pos.Ref.Curve, pos.Ref)
		}
		v, err := Bind(p.Model, pos, curve, pf.AsOf)
		if err != nil {
			return nil, err
		}
		sens, err := Sensitivities(v)
		if err != nil {
			return nil, err
		}
		legs.Instruments[i] = id
		legs.Base[i] = v.Base()
		legs.Sensitivity[i] = sens
		legs.Prices[i] = make([]float64, set.Len())
		legs.valuers[i] = v
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range legs.valuers {
		row := legs.Prices[i]
		sens := legs.Sensitivity[i]
		for lo := 0; lo < set.Len(); lo += scenarioChunk {
			hi := min(lo+scenarioChunk, set.Len())
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				for s := lo; s < hi; s++ {
					sc := &set.Scenarios[s]
					shift := func(curve string, tenor market.Tenor) (float64, bool) {
						return set.Shift(sc, curve, tenor)
					}
					px, err := reval.Reprice(v, sens, sc.ID, shift)
					if err != nil {
						return err
					}
					row[s] = px
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return legs, nil
}

// Len is the scenario count.
func (l *Legs) Len() int {
	return l.Set.Len()
}

// PricedLeg is one reported price. Scenario is BaseScenario for base rows.
type PricedLeg struct {
	Instrument string
	Scenario   int
	Label      string
	Price      float64
	DV01       float64
	Duration   float64
	Convexity  float64
}

// Records flattens the table: each instrument's base row followed by its
// scenario rows.
func (l *Legs) Records() []PricedLeg {
	out := make([]PricedLeg, 0, len(l.Instruments)*(l.Len()+1))
	for i, id := range l.Instruments {
		sens := l.Sensitivity[i]
		out = append(out, PricedLeg{
			Instrument: id,
			Scenario:   BaseScenario,
			Label:      "base",
			Price:      l.Base[i],
			DV01:       sens.DV01,
			Duration:   sens.ModifiedDuration,
			Convexity:  sens.Convexity,
		})
		for s, px := range l.Prices[i] {
			sc := l.Set.Scenarios[s]
			out = append(out, PricedLeg{Instrument: id, Scenario: sc.ID, Label: sc.Label, Price: px})
		}
	}
	return out
}

// CashflowRow is one scheduled payment scaled to the position size.
type CashflowRow struct {
	Instrument     string
	Date           time.Time
	Time           float64
	Coupon         float64
	Principal      float64
	ZeroRate       float64
	DiscountFactor float64
	Quantity       float64
	Amount         float64
	PresentValue   float64
}

// Cashflows lists every remaining payment of pf with the zero rate and
// discount factor of its mapped curve. Rows come from a zero_curve binding
// whatever model a run used.
func Cashflows(pf *market.Portfolio, curves map[string]market.Curve) ([]CashflowRow, error) {
	var out []CashflowRow
	for _, pos := range pf.Positions {
		curve, ok := curves[pos.Ref.Curve]
		if !ok {
			return nil, invalid(pos.Instrument.ID, BaseScenario, "no curve %q for mapping %s", pos.Ref.Curve, pos.Ref)
		}
		v, err := Bind(ZeroCurve, pos, curve, pf.AsOf)
		if err != nil {
			return nil, err
		}
		sched := v.Schedule()
		for _, cf := range sched.Flows {
			rate := curve.Rate(cf.Time)
			df := discount(rate, sched.Frequency, cf.Time)
			amount := cf.Amount() * pos.Quantity
			out = append(out, CashflowRow{
				Instrument:     pos.Instrument.ID,
				Date:           cf.Date,
				Time:           cf.Time,
				Coupon:         cf.Coupon,
				Principal:      cf.Principal,
				ZeroRate:       rate,
				DiscountFactor: df,
				Quantity:       pos.Quantity,
				Amount:         amount,
				PresentValue:   amount * df,
			})
		}
	}
	return out, nil
}
