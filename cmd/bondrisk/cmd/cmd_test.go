package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/bondrisk/config"
	"github.com/rustyeddy/bondrisk/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// writeInputs writes 40 consecutive daily curve observations and three
// bonds, and returns the config path.
func writeInputs(t *testing.T, dir string) string {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var curves strings.Builder
	curves.WriteString("curve,date,tenor,rate\n")
	for i := 0; i < 40; i++ {
		d := start.AddDate(0, 0, i).Format(time.DateOnly)
		wiggle := 0.05 * math.Sin(float64(i))
		fmt.Fprintf(&curves, "UST,%s,24,%.4f\n", d, 4.20+wiggle)
		fmt.Fprintf(&curves, "UST,%s,120,%.4f\n", d, 4.00+wiggle/2)
		fmt.Fprintf(&curves, "Corp,%s,No Tenor,%.4f\n", d, 5.10-wiggle)
	}
	curvesPath := filepath.Join(dir, "curves.csv")
	require.NoError(t, os.WriteFile(curvesPath, []byte(curves.String()), 0644))

	instruments := `id,issuer,face_value,coupon_rate,coupon_frequency,issue_date,maturity_date,last_price
B2Y,Treasury,100,4.0,2,2023-02-15,2026-02-15,99.40
B10Y,Treasury,100,3.5,2,2023-11-15,2033-11-15,96.10
CORP,Acme,100,5.5,2,2022-06-01,2029-06-01,101.25
`
	instPath := filepath.Join(dir, "instruments.csv")
	require.NoError(t, os.WriteFile(instPath, []byte(instruments), 0644))

	cfg := config.Default()
	cfg.AsOf = "2024-02-09"
	cfg.Data = config.DataConfig{InstrumentsFile: instPath, CurvesFile: curvesPath, RatesInPercent: true}
	cfg.Portfolio.CurveMapping = "B2Y^UST^24|B10Y^UST^120|CORP^Corp^No Tenor"
	cfg.Risk.LookbackStart = ""
	cfg.Risk.Paths = 100
	cfg.Risk.Runs = []config.RunSpec{
		{ID: "hist_1d", Spec: "var|historical|full_revaluation^ytm|var_type^1^95"},
		{ID: "crisis", Spec: "stress_testing|financial_crisis_2008|full_revaluation^ytm"},
		{ID: "mc_tail", Spec: "var|monte_carlo|sensitivity_approximation^ytm|expected_shortfall^1^99.9"},
	}
	cfg.Journal.DBPath = filepath.Join(dir, "risk.db")
	cfg.Reports = config.ReportsConfig{Dir: filepath.Join(dir, "reports"), PricedLegs: true, Cashflows: true, RunBook: true, History: true}
	cfg.Log.Level = "error"

	path := filepath.Join(dir, "bondrisk.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeInputs(t, dir)

	out, err := execute(t, "run", "-f", path)
	// 100 paths cannot support a 99.9% tail; the other runs still finish
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 runs failed")
	assert.Contains(t, out, "hist_1d")
	assert.Contains(t, out, "crisis")

	for _, name := range []string{
		"risk_summary.csv", "pnl_vectors.csv", "cashflows.csv", "runbook.org",
		"priced_legs_hist_1d.csv", "priced_legs_crisis.csv", "positions.csv", "portfolio_history.csv",
	} {
		_, err := os.Stat(filepath.Join(dir, "reports", name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dir, "reports", "priced_legs_mc_tail.csv"))
	assert.True(t, os.IsNotExist(err))

	history, err := os.ReadFile(filepath.Join(dir, "reports", "portfolio_history.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(history)), "\n")
	assert.Equal(t, "date,B2Y_market_value,B10Y_market_value,CORP_market_value,portfolio_value,daily_pnl,daily_yield", lines[0])
	assert.Len(t, lines, 41)
	assert.True(t, strings.HasPrefix(lines[40], "2024-02-09,"))

	book, err := os.ReadFile(filepath.Join(dir, "reports", "runbook.org"))
	require.NoError(t, err)
	assert.Contains(t, string(book), "Value 2024-01-01 to 2024-02-09")
	assert.Contains(t, string(book), "Best month")

	db, err := journal.NewSQLite(filepath.Join(dir, "risk.db"))
	require.NoError(t, err)
	defer db.Close()

	recs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	status := map[string]string{}
	for _, r := range recs {
		status[r.ConfigID] = r.Status
		assert.Equal(t, "equal_weight", r.Portfolio)
	}
	assert.Equal(t, journal.StatusFailed, status["mc_tail"])
	assert.NotEqual(t, journal.StatusFailed, status["hist_1d"])

	infos, err := db.ListCurves()
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	out, err = execute(t, "runs", "list", "-d", filepath.Join(dir, "risk.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "mc_tail")

	var hist, crisis journal.RunRecord
	for _, r := range recs {
		switch r.ConfigID {
		case "hist_1d":
			hist = r
		case "crisis":
			crisis = r
		}
	}
	out, err = execute(t, "runs", "show", hist.RunID, "-d", filepath.Join(dir, "risk.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "PnL over 39 scenarios")

	out, err = execute(t, "runs", "show", crisis.RunID, "-d", filepath.Join(dir, "risk.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "PnL over 1 scenario:")
	assert.NotContains(t, out, "NaN")
	assert.NotContains(t, out, "std dev")

	out, err = execute(t, "runs", "best", "--spec", "var | historical | full_revaluation^ytm | var_type^1^95", "-d", filepath.Join(dir, "risk.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "Best portfolio: equal_weight")
	assert.Contains(t, out, hist.RunID)

	_, err = execute(t, "runs", "best", "--spec", "var|monte_carlo|sensitivity_approximation^ytm|expected_shortfall^1^99.9", "-d", filepath.Join(dir, "risk.db"))
	assert.ErrorContains(t, err, "no successful run")
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "run_config_3: stress financial_crisis_2008")
}

func TestCurvesImportAndShow(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir)
	db := filepath.Join(dir, "curves.db")

	out, err := execute(t, "curves", "import", filepath.Join(dir, "curves.csv"), "--percent", "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 120 rates for 2 curves")

	out, err = execute(t, "curves", "show", "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, "UST")
	assert.Contains(t, out, "Corp")

	out, err = execute(t, "curves", "show", "UST", "-d", db)
	require.NoError(t, err)
	assert.Contains(t, out, "40 observations, latest 2024-02-09")
	assert.Contains(t, out, "Tenors in history: 24, 120")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bondrisk version "+version)
}

func TestPnLNote(t *testing.T) {
	assert.Empty(t, pnlNote(nil))
	assert.Equal(t, "PnL over 1 scenario: -1250.50", pnlNote([]float64{-1250.5}))
	assert.Equal(t, "PnL over 2 scenarios: worst -1.00, best 3.00, mean 1.00, std dev 2.83", pnlNote([]float64{-1, 3}))
}
