package journal

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/bondrisk/engine"
	"github.com/rustyeddy/bondrisk/market"
	"github.com/rustyeddy/bondrisk/portfolio"
	"github.com/rustyeddy/bondrisk/pricing"
	"github.com/rustyeddy/bondrisk/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleRecords() []RunRecord {
	return []RunRecord{
		{
			RunID: "01JA00000000000000000000AA", ConfigID: "hist", Spec: "var|historical|full_revaluation^ytm|var_type^1^99",
			Status: StatusOK, Metric: "var_type", Horizon: 1, Confidence: 0.99, Value: 1234.565, Scenarios: 2,
			PnL: []float64{-1234.565, 10.004},
		},
		{
			RunID: "01JA00000000000000000000AB", ConfigID: "long", Spec: "var|historical|full_revaluation^ytm|var_type^400^99",
			Status: StatusFailed, Metric: "var_type", Horizon: 400, Confidence: 0.99, Error: "insufficient history",
		},
		{
			RunID: "01JA00000000000000000000AC", ConfigID: "oil", Spec: "stress_testing|oil_crisis_1974|full_revaluation^zero_curve",
			Status: StatusBreach, Metric: "stress_loss", Value: 98000, Scenarios: 1, Breaches: "LOSS_LIMIT",
			PnL: []float64{-98000},
		},
	}
}

func TestWriteRiskSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteRiskSummary(&buf, sampleRecords()))

	rows := parse(t, buf.String())
	require.Len(t, rows, 4)
	assert.Equal(t, "config_id", rows[0][0])
	assert.Equal(t, "1234.57", rows[1][7], "rounded half away from zero")
	assert.Equal(t, "0.9900", rows[1][6])
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "insufficient history", rows[2][10])
	assert.Equal(t, "LOSS_LIMIT", rows[3][9])
}

func TestWritePnLVectors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WritePnLVectors(&buf, sampleRecords()))

	assert.Equal(t, [][]string{
		{"config_id", "run_id", "scenario_id", "pnl"},
		{"hist", "01JA00000000000000000000AA", "0", "-1234.57"},
		{"hist", "01JA00000000000000000000AA", "1", "10.00"},
		{"oil", "01JA00000000000000000000AC", "0", "-98000.00"},
	}, parse(t, buf.String()))
}

func TestWritePricedLegsAndCashflows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WritePricedLegs(&buf, "hist", []pricing.PricedLeg{
		{Instrument: "B2Y", Scenario: pricing.BaseScenario, Label: "base", Price: 100, DV01: 0.0185941, Duration: 1.85941, Convexity: 5.2},
		{Instrument: "B2Y", Scenario: 0, Label: "2024-01-02/2024-01-03", Price: 99.98},
	})
	require.NoError(t, err)
	rows := parse(t, buf.String())
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"hist", "B2Y", "base", "base", "100.000000", "0.018594", "1.859410", "5.200000"}, rows[1])
	assert.Equal(t, []string{"hist", "B2Y", "0", "2024-01-02/2024-01-03", "99.980000", "", "", ""}, rows[2])

	buf.Reset()
	err = WriteCashflows(&buf, []pricing.CashflowRow{{
		Instrument: "B2Y", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Time: 1,
		Coupon: 5, Quantity: 10, Amount: 50, ZeroRate: 0.05, DiscountFactor: 1 / 1.05, PresentValue: 50 / 1.05,
	}})
	require.NoError(t, err)
	rows = parse(t, buf.String())
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-01-01", rows[1][1])
	assert.Equal(t, "50.00", rows[1][6])
	assert.Equal(t, "0.95238095", rows[1][8])
	assert.Equal(t, "47.62", rows[1][9])
}

func TestWritePositions(t *testing.T) {
	t.Parallel()

	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pf := &market.Portfolio{AsOf: asOf, TotalFund: 1000, Positions: []market.Position{{
		Instrument:  market.Instrument{ID: "B2Y", MaturityDate: asOf.AddDate(0, 0, 730)},
		Ref:         market.CurveRef{Curve: "UST", Tenor: 24},
		Weight:      1,
		MarketValue: 1000,
		Quantity:    10.256,
	}}}

	var buf bytes.Buffer
	require.NoError(t, WritePositions(&buf, pf))
	assert.Equal(t, [][]string{
		{"instrument", "curve", "weight", "market_value", "quantity", "years_to_maturity"},
		{"B2Y", "UST^24", "1.000000", "1000.00", "10.256000", "1.9986"},
	}, parse(t, buf.String()))
}

func TestWritePortfolioHistory(t *testing.T) {
	t.Parallel()

	h := &portfolio.History{
		Instruments: []string{"A", "B"},
		Points: []portfolio.HistoryPoint{
			{Date: time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC), MarketValues: []float64{600, 400}, Value: 1000},
			{Date: time.Date(2024, 11, 29, 0, 0, 0, 0, time.UTC), MarketValues: []float64{601.005, 399}, Value: 1000.005, PnL: 0.005, Yield: 0.000005},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePortfolioHistory(&buf, h))
	assert.Equal(t, [][]string{
		{"date", "A_market_value", "B_market_value", "portfolio_value", "daily_pnl", "daily_yield"},
		{"2024-11-28", "600.00", "400.00", "1000.00", "0.00", "0.00000000"},
		{"2024-11-29", "601.01", "399.00", "1000.01", "0.01", "0.00000500"},
	}, parse(t, buf.String()))
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, sampleRecords())
	out := buf.String()

	assert.Contains(t, out, "hist")
	assert.Contains(t, out, "1234.57")
	assert.Contains(t, out, "FAILED: insufficient history")
	assert.Contains(t, out, "BREACH LOSS_LIMIT")
	assert.Contains(t, out, "99.00%")
}

func TestNewRunRecord(t *testing.T) {
	t.Parallel()

	rc, err := engine.ParseRunConfig("hist", "var|historical|full_revaluation^ytm|var_type^10^99")
	require.NoError(t, err)
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	ok := NewRunRecord(&engine.Outcome{
		Config:   rc,
		RunID:    "R1",
		Result:   &risk.Result{RunID: "R1", Metric: risk.MetricVaR, Horizon: 10, Confidence: 0.99, Value: 12, PnL: risk.Vector{1, 2, 3}},
		Decision: risk.Decision{Allowed: true},
		Started:  started,
	})
	assert.Equal(t, StatusOK, ok.Status)
	assert.Equal(t, 3, ok.Scenarios)
	assert.Equal(t, "var_type", ok.Metric)
	assert.Equal(t, started, ok.Created)

	breach := NewRunRecord(&engine.Outcome{
		Config: rc,
		RunID:  "R2",
		Result: &risk.Result{Metric: risk.MetricVaR, Value: 12},
		Decision: risk.Decision{Violations: []risk.Violation{
			{Code: "LOSS_LIMIT"}, {Code: "LOSS_PCT_LIMIT"},
		}},
	})
	assert.Equal(t, StatusBreach, breach.Status)
	assert.Equal(t, "LOSS_LIMIT,LOSS_PCT_LIMIT", breach.Breaches)

	failed := NewRunRecord(&engine.Outcome{
		Config: rc,
		RunID:  "R3",
		Err:    &engine.RunError{ConfigID: "hist", RunID: "R3", Err: errors.New("boom")},
	})
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "run hist (R3): boom", failed.Error)
	assert.Equal(t, 10, failed.Horizon)
	assert.Nil(t, failed.PnL)
}
