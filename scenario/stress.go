package scenario

import (
	"fmt"

	"github.com/rustyeddy/bondrisk/market"
)

// StressShock is a deterministic curve move. ByTenor wins over Parallel for
// the tenors it names.
type StressShock struct {
	Parallel float64
	ByTenor  map[market.Tenor]float64
}

func (s StressShock) at(t market.Tenor) float64 {
	if v, ok := s.ByTenor[t]; ok {
		return v
	}
	return s.Parallel
}

// DefaultStress holds the built-in historical stress episodes, as
// approximate treasury curve moves.
var DefaultStress = map[string]StressShock{
	// Flight to quality: front end rallies hardest.
	"financial_crisis_2008": {
		Parallel: -0.0100,
		ByTenor: map[market.Tenor]float64{
			1: -0.0200, 3: -0.0190, 6: -0.0170, 12: -0.0150, 24: -0.0120,
			36: -0.0100, 60: -0.0080, 84: -0.0060, 120: -0.0050, 240: -0.0040, 360: -0.0030,
		},
	},
	"oil_crisis_1974": {Parallel: 0.0300},
}

// Stress builds a one-scenario set applying shock to every key.
func Stress(name string, keys []Key, shock StressShock) (*Set, error) {
	if name == "" {
		return nil, fmt.Errorf("scenario: stress scenario needs a name")
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("scenario: no keys to shock")
	}
	shifts := make([]float64, len(keys))
	for i, k := range keys {
		shifts[i] = shock.at(k.Tenor)
	}
	return NewSet(StressTest, 0, keys, []Scenario{{ID: 0, Label: name, Shifts: shifts}}), nil
}
