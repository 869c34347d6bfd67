package portfolio

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rustyeddy/bondrisk/market"
)

// Weighting approaches.
const (
	EqualWeight    = "equal_weight"
	RandomWeight   = "random_weight"
	ExplicitWeight = "explicit"
)

const weightTolerance = 1e-6

// Options selects how the total fund is split across instruments.
type Options struct {
	Approach string
	// Weights by instrument id, used by ExplicitWeight.
	Weights map[string]float64
	// Seed drives RandomWeight so a portfolio can be rebuilt exactly.
	Seed uint64
}

// Build allocates totalFund across instruments and maps each one to its
// curve. Quantity is MarketValue / LastPrice, so every instrument needs a
// positive last price.
func Build(instruments []market.Instrument, mapping map[string]market.CurveRef, opts Options, totalFund float64, asOf time.Time) (*market.Portfolio, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("portfolio: no instruments")
	}
	if totalFund <= 0 {
		return nil, fmt.Errorf("portfolio: total fund must be positive")
	}

	weights, err := weigh(instruments, opts)
	if err != nil {
		return nil, err
	}

	p := &market.Portfolio{AsOf: asOf, TotalFund: totalFund}
	for i, inst := range instruments {
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("portfolio: %w", err)
		}
		ref, ok := mapping[inst.ID]
		if !ok {
			return nil, fmt.Errorf("portfolio: no curve mapping for instrument %s", inst.ID)
		}
		if inst.LastPrice <= 0 {
			return nil, fmt.Errorf("portfolio: instrument %s has no last price", inst.ID)
		}
		mv := weights[i] * totalFund
		p.Positions = append(p.Positions, market.Position{
			Instrument:  inst,
			Ref:         ref,
			Weight:      weights[i],
			MarketValue: mv,
			Quantity:    mv / inst.LastPrice,
		})
	}
	return p, nil
}

func weigh(instruments []market.Instrument, opts Options) ([]float64, error) {
	n := len(instruments)
	w := make([]float64, n)

	switch opts.Approach {
	case EqualWeight, "":
		for i := range w {
			w[i] = 1 / float64(n)
		}

	case RandomWeight:
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(n)))
		var sum float64
		for i := range w {
			w[i] = rng.Float64()
			sum += w[i]
		}
		for i := range w {
			w[i] /= sum
		}

	case ExplicitWeight:
		var sum float64
		for i, inst := range instruments {
			v, ok := opts.Weights[inst.ID]
			if !ok {
				return nil, fmt.Errorf("portfolio: no weight for instrument %s", inst.ID)
			}
			if v < 0 {
				return nil, fmt.Errorf("portfolio: negative weight for instrument %s", inst.ID)
			}
			w[i] = v
			sum += v
		}
		if math.Abs(sum-1) > weightTolerance {
			return nil, fmt.Errorf("portfolio: weights sum to %.6f, want 1", sum)
		}

	default:
		return nil, fmt.Errorf("portfolio: unknown weighting approach %q (supported: %s, %s, %s)",
			opts.Approach, EqualWeight, RandomWeight, ExplicitWeight)
	}
	return w, nil
}

// YearsToMaturity uses ACT/365.25.
func YearsToMaturity(asOf, maturity time.Time) float64 {
	return maturity.Sub(asOf).Hours() / 24 / 365.25
}
