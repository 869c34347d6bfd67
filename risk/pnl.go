package risk

import (
	"fmt"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/pricing"
)

// Vector holds one portfolio PnL per scenario, in scenario order.
type Vector []float64

// PnL sums (scenario price - base price) x quantity over the positions.
// positions must be in the same order the legs were priced in.
func PnL(legs *pricing.Legs, positions []market.Position) (Vector, error) {
	if len(legs.Instruments) != len(positions) {
		return nil, fmt.Errorf("risk: %d priced instruments for %d positions", len(legs.Instruments), len(positions))
	}
	v := make(Vector, legs.Len())
	for i, pos := range positions {
		if id := pos.Instrument.ID; id != legs.Instruments[i] {
			return nil, fmt.Errorf("risk: position %d is %s but legs row is %s", i, id, legs.Instruments[i])
		}
		base := legs.Base[i]
		for s, px := range legs.Prices[i] {
			v[s] += (px - base) * pos.Quantity
		}
	}
	return v, nil
}

// StressPnL is the portfolio PnL of a single-scenario set.
func StressPnL(legs *pricing.Legs, positions []market.Position) (float64, error) {
	if legs.Len() != 1 {
		return 0, fmt.Errorf("risk: stress set has %d scenarios, want 1", legs.Len())
	}
	v, err := PnL(legs, positions)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}
