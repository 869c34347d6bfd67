package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/bondrisk/market"
)

const (
	minDate = "0001-01-01"
	maxDate = "9999-12-31"
)

func dateBound(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return t.Format(time.DateOnly)
}

// LoadCurve returns the history of one curve within [start, end]. Zero
// bounds are open.
func (j *SQLite) LoadCurve(name string, start, end time.Time) (*market.CurveSeries, error) {
	rows, err := j.db.Query(`
		SELECT date, tenor, rate
		FROM yield_curves
		WHERE curve = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, tenor ASC`,
		name, dateBound(start, minDate), dateBound(end, maxDate))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cs := &market.CurveSeries{Name: name}
	for rows.Next() {
		var (
			day   string
			tenor int
			rate  float64
		)
		if err := rows.Scan(&day, &tenor, &rate); err != nil {
			return nil, err
		}
		d, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("curve %s: bad date %q: %w", name, day, err)
		}
		n := len(cs.Observations)
		if n == 0 || !cs.Observations[n-1].Date.Equal(d) {
			cs.Observations = append(cs.Observations, market.Observation{Date: d, Rates: map[market.Tenor]float64{}})
			n++
		}
		cs.Observations[n-1].Rates[market.Tenor(tenor)] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cs.Observations) == 0 {
		return nil, fmt.Errorf("curve %q has no observations in range", name)
	}
	return cs, nil
}

// LoadCurves loads several curves over the same range.
func (j *SQLite) LoadCurves(names []string, start, end time.Time) (map[string]*market.CurveSeries, error) {
	out := make(map[string]*market.CurveSeries, len(names))
	for _, name := range names {
		cs, err := j.LoadCurve(name, start, end)
		if err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, nil
}

// CurveInfo summarises one stored curve.
type CurveInfo struct {
	Name   string
	First  string
	Last   string
	Dates  int
	Tenors int
}

// ListCurves summarises every stored curve by name.
func (j *SQLite) ListCurves() ([]CurveInfo, error) {
	rows, err := j.db.Query(`
		SELECT curve, MIN(date), MAX(date), COUNT(DISTINCT date), COUNT(DISTINCT tenor)
		FROM yield_curves
		GROUP BY curve
		ORDER BY curve ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CurveInfo
	for rows.Next() {
		var ci CurveInfo
		if err := rows.Scan(&ci.Name, &ci.First, &ci.Last, &ci.Dates, &ci.Tenors); err != nil {
			return nil, err
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

const runColumns = `run_id, config_id, portfolio, spec, status, metric, horizon, confidence, value, scenarios, breaches, error, elapsed_ms, created`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		rec RunRecord
		ms  int64
	)
	err := s.Scan(
		&rec.RunID,
		&rec.ConfigID,
		&rec.Portfolio,
		&rec.Spec,
		&rec.Status,
		&rec.Metric,
		&rec.Horizon,
		&rec.Confidence,
		&rec.Value,
		&rec.Scenarios,
		&rec.Breaches,
		&rec.Error,
		&ms,
		&rec.Created,
	)
	rec.Elapsed = time.Duration(ms) * time.Millisecond
	return rec, err
}

// GetRun returns a single run record by id, without its PnL vector.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM risk_runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`SELECT `+runColumns+` FROM risk_runs ORDER BY run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BestRun returns the successful run of spec with the smallest risk
// value, which is the least risky portfolio tried under that spec. Specs
// match ignoring case and spaces.
func (j *SQLite) BestRun(spec string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM risk_runs
		WHERE LOWER(REPLACE(spec, ' ', '')) = ? AND status != ?
		ORDER BY value ASC, run_id ASC LIMIT 1`,
		normalizeSpec(spec), StatusFailed)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("no successful run for spec %q", spec)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

func normalizeSpec(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// LoadPnL returns a run's PnL vector in scenario order.
func (j *SQLite) LoadPnL(runID string) ([]float64, error) {
	rows, err := j.db.Query(`SELECT pnl FROM pnl_vectors WHERE run_id = ? ORDER BY scenario_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
