package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/bondrisk/market"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the yield curve store and run journal.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('risk_runs') WHERE name = 'portfolio'`).Scan(&n); err != nil {
		_ = db.Close()
		return nil, err
	}
	if n == 0 {
		if _, err := db.Exec(addPortfolioColumn); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("upgrade risk_runs: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

// ImportCurves upserts every observation and returns the number of rates
// written.
func (j *SQLite) ImportCurves(series ...*market.CurveSeries) (int, error) {
	tx, err := j.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO yield_curves (curve, date, tenor, rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(curve, date, tenor) DO UPDATE SET rate = excluded.rate`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, cs := range series {
		for _, o := range cs.Observations {
			day := o.Date.Format(time.DateOnly)
			for tenor, rate := range o.Rates {
				if _, err := stmt.Exec(cs.Name, day, int(tenor), rate); err != nil {
					return 0, fmt.Errorf("import %s %s: %w", cs.Name, day, err)
				}
				n++
			}
		}
	}
	return n, tx.Commit()
}

// RecordRun writes the run row and its PnL vector in one transaction.
func (j *SQLite) RecordRun(r RunRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO risk_runs
		(run_id, config_id, portfolio, spec, status, metric, horizon, confidence, value, scenarios, breaches, error, elapsed_ms, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.ConfigID, r.Portfolio, r.Spec, r.Status, r.Metric, r.Horizon, r.Confidence,
		r.Value, r.Scenarios, r.Breaches, r.Error, r.Elapsed.Milliseconds(), r.Created,
	)
	if err != nil {
		return err
	}

	if len(r.PnL) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO pnl_vectors (run_id, scenario_id, pnl) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, v := range r.PnL {
			if _, err := stmt.Exec(r.RunID, i, v); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
