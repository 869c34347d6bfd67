package scenario

import (
	"context"
	"fmt"
	"time"
)

// HistoricalGenerator replays every overlapping N-day rate change in the
// lookback window.
type HistoricalGenerator struct{}

// Generate returns n - horizon scenarios for n aligned observations, where
// scenario i shifts each key by rate[i+horizon] - rate[i].
func (HistoricalGenerator) Generate(ctx context.Context, in Input) (*Set, error) {
	if in.Horizon < 1 {
		return nil, fmt.Errorf("scenario: horizon must be at least 1 day, got %d", in.Horizon)
	}
	h, err := alignHistory(in)
	if err != nil {
		return nil, err
	}

	n := len(h.dates)
	if n < in.Horizon+1 {
		return nil, &InsufficientHistoryError{
			Method: Historical,
			Key:    shortestKey(in),
			Have:   n,
			Need:   in.Horizon + 1,
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count := n - in.Horizon
	scenarios := make([]Scenario, count)
	for i := 0; i < count; i++ {
		shifts := make([]float64, len(in.Keys))
		for k := range in.Keys {
			shifts[k] = h.rates[k][i+in.Horizon] - h.rates[k][i]
		}
		scenarios[i] = Scenario{
			ID:     i,
			Label:  h.dates[i].Format(time.DateOnly) + "/" + h.dates[i+in.Horizon].Format(time.DateOnly),
			Shifts: shifts,
		}
	}
	return NewSet(Historical, in.Horizon, in.Keys, scenarios), nil
}
