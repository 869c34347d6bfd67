package portfolio

import (
	"testing"
	"time"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func instruments() []market.Instrument {
	mk := func(id string, px float64) market.Instrument {
		return market.Instrument{
			ID:              id,
			FaceValue:       100,
			CouponRate:      0.04,
			CouponFrequency: 2,
			MaturityDate:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			LastPrice:       px,
		}
	}
	return []market.Instrument{mk("A", 100), mk("B", 95), mk("C", 102)}
}

func mapping() map[string]market.CurveRef {
	return map[string]market.CurveRef{
		"A": {Curve: "UST", Tenor: 60},
		"B": {Curve: "UST", Tenor: 24},
		"C": {Curve: "Corp", Tenor: market.NoTenor},
	}
}

func TestBuildEqualWeight(t *testing.T) {
	t.Parallel()

	p, err := Build(instruments(), mapping(), Options{Approach: EqualWeight}, 300_000, asOf)
	require.NoError(t, err)
	require.Len(t, p.Positions, 3)

	for _, pos := range p.Positions {
		assert.InDelta(t, 1.0/3, pos.Weight, 1e-12)
		assert.InDelta(t, 100_000, pos.MarketValue, 1e-6)
		assert.InDelta(t, pos.MarketValue/pos.Instrument.LastPrice, pos.Quantity, 1e-9)
	}
	assert.Equal(t, market.CurveRef{Curve: "UST", Tenor: 24}, p.Positions[1].Ref)
}

func TestBuildRandomWeightIsSeeded(t *testing.T) {
	t.Parallel()

	a, err := Build(instruments(), mapping(), Options{Approach: RandomWeight, Seed: 7}, 1_000, asOf)
	require.NoError(t, err)
	b, err := Build(instruments(), mapping(), Options{Approach: RandomWeight, Seed: 7}, 1_000, asOf)
	require.NoError(t, err)

	var sum float64
	for i := range a.Positions {
		assert.Equal(t, a.Positions[i].Weight, b.Positions[i].Weight)
		sum += a.Positions[i].Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestBuildExplicitWeight(t *testing.T) {
	t.Parallel()

	opts := Options{Approach: ExplicitWeight, Weights: map[string]float64{"A": 0.5, "B": 0.3, "C": 0.2}}
	p, err := Build(instruments(), mapping(), opts, 1_000, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 500, p.Positions[0].MarketValue, 1e-9)

	opts.Weights["C"] = 0.3
	_, err = Build(instruments(), mapping(), opts, 1_000, asOf)
	assert.ErrorContains(t, err, "weights sum")
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	_, err := Build(nil, mapping(), Options{}, 1_000, asOf)
	assert.Error(t, err)

	_, err = Build(instruments(), map[string]market.CurveRef{}, Options{}, 1_000, asOf)
	assert.ErrorContains(t, err, "no curve mapping")

	_, err = Build(instruments(), mapping(), Options{Approach: "martingale"}, 1_000, asOf)
	assert.ErrorContains(t, err, "unknown weighting approach")

	noPx := instruments()
	noPx[0].LastPrice = 0
	_, err = Build(noPx, mapping(), Options{}, 1_000, asOf)
	assert.ErrorContains(t, err, "no last price")
}

func TestYearsToMaturity(t *testing.T) {
	t.Parallel()

	got := YearsToMaturity(asOf, asOf.AddDate(0, 0, 730))
	assert.InDelta(t, 730/365.25, got, 1e-12)
}
