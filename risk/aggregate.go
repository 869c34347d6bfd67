package risk

import (
	"fmt"
	"math"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/pricing"
)

// MetricSpec is the loss leg of a run config.
type MetricSpec struct {
	Kind       MetricKind
	Horizon    int
	Confidence float64
}

func (m MetricSpec) String() string {
	return fmt.Sprintf("%d-Day %g%% %s", m.Horizon, math.Round(m.Confidence*1e4)/100, m.Kind)
}

// Result is the outcome of one risk run.
type Result struct {
	RunID      string
	Metric     MetricKind
	Horizon    int
	Confidence float64
	// Value is a loss magnitude: positive means money lost.
	Value float64
	// TailIndex is the position of the VaR observation in the sorted vector.
	TailIndex int
	PnL       Vector
}

// Aggregate builds the PnL vector of legs and reduces it to spec's metric.
func Aggregate(runID string, legs *pricing.Legs, positions []market.Position, spec MetricSpec) (*Result, error) {
	pnl, err := PnL(legs, positions)
	if err != nil {
		return nil, err
	}

	var value float64
	switch spec.Kind {
	case MetricVaR:
		value, err = VaR(pnl, spec.Confidence)
	case MetricES:
		value, err = ExpectedShortfall(pnl, spec.Confidence)
	default:
		err = fmt.Errorf("risk: no aggregator for metric %q", spec.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:      runID,
		Metric:     spec.Kind,
		Horizon:    spec.Horizon,
		Confidence: spec.Confidence,
		Value:      value,
		TailIndex:  tailIndex(len(pnl), spec.Confidence),
		PnL:        pnl,
	}, nil
}

// Stress reports the loss of a single-scenario set as a Result.
func Stress(runID string, legs *pricing.Legs, positions []market.Position) (*Result, error) {
	pnl, err := StressPnL(legs, positions)
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:  runID,
		Metric: MetricStress,
		Value:  -pnl,
		PnL:    Vector{pnl},
	}, nil
}
