package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/bondrisk/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runsPath := filepath.Join(dir, "runs.csv")
	pnlPath := filepath.Join(dir, "pnl.csv")

	j, err := NewCSV(runsPath, pnlPath)
	require.NoError(t, err)

	err = j.RecordRun(RunRecord{
		RunID:      "R1",
		ConfigID:   "c1",
		Spec:       "var|historical|full_revaluation^ytm|var_type^1^99",
		Status:     StatusOK,
		Metric:     "var_type",
		Horizon:    1,
		Confidence: 0.99,
		Value:      42.5,
		Scenarios:  2,
		Created:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed:    250 * time.Millisecond,
		PnL:        []float64{-1.25, 3},
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	runs := readCSV(t, runsPath)
	require.Len(t, runs, 2)
	assert.Equal(t, runHeader, runs[0])
	assert.Equal(t, []string{
		"R1", "c1", "", "var|historical|full_revaluation^ytm|var_type^1^99", "ok", "var_type",
		"1", "0.990000", "42.500000", "2", "", "", "250", "2025-01-02T03:04:05Z",
	}, runs[1])

	pnl := readCSV(t, pnlPath)
	assert.Equal(t, [][]string{
		{"run_id", "scenario_id", "pnl"},
		{"R1", "0", "-1.250000"},
		{"R1", "1", "3.000000"},
	}, pnl)
}

func TestReadCurvesCSV(t *testing.T) {
	t.Parallel()

	in := `Curve,Date,Tenor,Rate
UST,2024-01-03,12,4.70
UST,2024-01-02,12,4.80
UST,2024-01-02,24,4.30
UST,2024-01-03,24,N/A
Corp A,01/02/2024,No Tenor,6.10
`
	got, err := ReadCurvesCSV(strings.NewReader(in), true)
	require.NoError(t, err)
	require.Len(t, got, 2)

	ust := got["UST"]
	require.Len(t, ust.Observations, 2)
	assert.Equal(t, day(2024, 1, 2), ust.Observations[0].Date)
	assert.InDelta(t, 0.048, ust.Observations[0].Rates[12], 1e-12)
	assert.Len(t, ust.Observations[1].Rates, 1, "N/A rates are skipped")

	assert.InDelta(t, 0.061, got["Corp A"].Observations[0].Rates[market.NoTenor], 1e-12)
}

func TestReadCurvesCSVErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing column", "curve,date,rate\nUST,2024-01-02,4.1\n", "missing columns: tenor"},
		{"bad date", "curve,date,tenor,rate\nUST,Jan 2,12,4.1\n", "line 2: bad date"},
		{"bad tenor", "curve,date,tenor,rate\nUST,2024-01-02,ten,4.1\n", "line 2"},
		{"bad rate", "curve,date,tenor,rate\nUST,2024-01-02,12,x\n", `bad rate "x"`},
		{"empty", "", "curves csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadCurvesCSV(strings.NewReader(tt.in), false)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadInstrumentsCSV(t *testing.T) {
	t.Parallel()

	in := `cusip,issuer,face_value,coupon_rate,coupon_frequency,issue_date,maturity_date,last_price,source_url
037833BA7,Apple,100,3.45,2,2015-02-09,2045-02-09,82.10,http://example.com
912828YK0,US Treasury,100,1.375,,2019-10-15,2026-10-15,,
`
	got, err := ReadInstrumentsCSV(strings.NewReader(in), true)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "037833BA7", got[0].ID)
	assert.Equal(t, "Apple", got[0].Issuer)
	assert.InDelta(t, 0.0345, got[0].CouponRate, 1e-12)
	assert.Equal(t, day(2045, 2, 9), got[0].MaturityDate)
	assert.Equal(t, 82.10, got[0].LastPrice)

	assert.Equal(t, 2, got[1].CouponFrequency, "defaults to semiannual")
	assert.Zero(t, got[1].LastPrice)

	_, err = ReadInstrumentsCSV(strings.NewReader("id,face_value,coupon_rate,maturity_date\nX,100,0.05,2030-01-01,\nY,-1,0.05,2030-01-01\n"), false)
	assert.ErrorContains(t, err, "line 3")

	_, err = ReadInstrumentsCSV(strings.NewReader("name,face_value,coupon_rate,maturity_date\n"), false)
	assert.ErrorContains(t, err, "missing columns: id")
}
