package portfolio

import (
	"testing"
	"time"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func historySeries() map[string]*market.CurveSeries {
	ust := &market.CurveSeries{Name: "UST", Observations: []market.Observation{
		{Date: day(2024, 11, 27), Rates: map[market.Tenor]float64{60: 0.041}},
		{Date: day(2024, 11, 28), Rates: map[market.Tenor]float64{24: 0.040, 60: 0.042}},
		{Date: day(2024, 11, 29), Rates: map[market.Tenor]float64{24: 0.040, 60: 0.043}},
		{Date: day(2024, 12, 2), Rates: map[market.Tenor]float64{24: 0.041, 60: 0.044}},
		{Date: day(2024, 12, 31), Rates: map[market.Tenor]float64{24: 0.039, 60: 0.040}},
		{Date: day(2025, 1, 2), Rates: map[market.Tenor]float64{24: 0.038, 60: 0.045}},
	}}
	corp := &market.CurveSeries{Name: "Corp", Observations: []market.Observation{
		{Date: day(2024, 11, 27), Rates: map[market.Tenor]float64{market.NoTenor: 0.05}},
		{Date: day(2024, 11, 28), Rates: map[market.Tenor]float64{market.NoTenor: 0.05}},
		{Date: day(2024, 11, 29), Rates: map[market.Tenor]float64{market.NoTenor: 0.051}},
		{Date: day(2024, 12, 31), Rates: map[market.Tenor]float64{market.NoTenor: 0.049}},
		{Date: day(2025, 1, 2), Rates: map[market.Tenor]float64{market.NoTenor: 0.05}},
	}}
	return map[string]*market.CurveSeries{"UST": ust, "Corp": corp}
}

func TestValueHistory(t *testing.T) {
	t.Parallel()

	pf, err := Build(instruments(), mapping(), Options{Approach: EqualWeight}, 300_000, asOf)
	require.NoError(t, err)

	h, err := ValueHistory(pf, historySeries(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, h.Instruments)

	// 11-27 lacks UST 24 and 12-02 lacks Corp
	var dates []time.Time
	for _, p := range h.Points {
		dates = append(dates, p.Date)
	}
	assert.Equal(t, []time.Time{day(2024, 11, 28), day(2024, 11, 29), day(2024, 12, 31), day(2025, 1, 2)}, dates)

	first := h.Points[0]
	sched, err := pricing.BuildSchedule(pf.Positions[1].Instrument, first.Date)
	require.NoError(t, err)
	assert.InDelta(t, pricing.CleanFromYield(sched, 0.040)*pf.Positions[1].Quantity, first.MarketValues[1], 1e-9)
	assert.InDelta(t, first.MarketValues[0]+first.MarketValues[1]+first.MarketValues[2], first.Value, 1e-9)
	assert.Zero(t, first.PnL)
	assert.Zero(t, first.Yield)

	for i := 1; i < len(h.Points); i++ {
		prev, cur := h.Points[i-1], h.Points[i]
		assert.InDelta(t, cur.Value-prev.Value, cur.PnL, 1e-9)
		assert.InDelta(t, cur.Value/prev.Value-1, cur.Yield, 1e-12)
	}

	h, err = ValueHistory(pf, historySeries(), day(2024, 12, 1), day(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, h.Points, 1)
	assert.Equal(t, day(2024, 12, 31), h.Points[0].Date)
}

func TestValueHistoryErrors(t *testing.T) {
	t.Parallel()

	pf, err := Build(instruments(), mapping(), Options{Approach: EqualWeight}, 300_000, asOf)
	require.NoError(t, err)

	series := historySeries()
	delete(series, "Corp")
	_, err = ValueHistory(pf, series, time.Time{}, time.Time{})
	assert.ErrorContains(t, err, `no curve "Corp"`)

	_, err = ValueHistory(pf, historySeries(), day(2023, 1, 1), day(2023, 12, 31))
	assert.ErrorContains(t, err, "no date with a rate")

	_, err = ValueHistory(&market.Portfolio{}, historySeries(), time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestHistorySummary(t *testing.T) {
	t.Parallel()

	pf, err := Build(instruments(), mapping(), Options{Approach: EqualWeight}, 300_000, asOf)
	require.NoError(t, err)
	h, err := ValueHistory(pf, historySeries(), time.Time{}, time.Time{})
	require.NoError(t, err)

	s := h.Summary()
	pts := h.Points
	assert.Equal(t, day(2024, 11, 28), s.Start)
	assert.Equal(t, day(2025, 1, 2), s.End)
	assert.InDelta(t, pts[3].Value/pts[0].Value-1, s.Appreciation, 1e-12)

	require.Len(t, s.Monthly, 3)
	assert.Equal(t, day(2024, 11, 1), s.Monthly[0].Month)
	assert.InDelta(t, pts[1].Value/pts[0].Value-1, s.Monthly[0].Yield, 1e-12)
	assert.InDelta(t, pts[2].Value/pts[1].Value-1, s.Monthly[1].Yield, 1e-12)
	assert.InDelta(t, pts[3].Value/pts[2].Value-1, s.Monthly[2].Yield, 1e-12)

	for _, m := range s.Monthly {
		assert.GreaterOrEqual(t, s.Best.Yield, m.Yield)
		assert.LessOrEqual(t, s.Worst.Yield, m.Yield)
	}
	// rates fell through December
	assert.Equal(t, day(2024, 12, 1), s.Best.Month)

	assert.Equal(t, HistorySummary{}, (&History{}).Summary())
}
