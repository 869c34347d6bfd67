package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var runHeader = []string{
	"run_id", "config_id", "portfolio", "spec", "status", "metric", "horizon", "confidence",
	"value", "scenarios", "breaches", "error", "elapsed_ms", "created",
}

// CSV journals runs to flat files: one row per run in the runs file and
// one row per scenario in the pnl file.
type CSV struct {
	runs   *csv.Writer
	pnl    *csv.Writer
	rf, pf *os.File
}

func NewCSV(runsPath, pnlPath string) (*CSV, error) {
	rf, err := os.Create(runsPath)
	if err != nil {
		return nil, err
	}
	pf, err := os.Create(pnlPath)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}

	rw := csv.NewWriter(rf)
	pw := csv.NewWriter(pf)

	if err := rw.Write(runHeader); err != nil {
		return nil, err
	}
	if err := pw.Write([]string{"run_id", "scenario_id", "pnl"}); err != nil {
		return nil, err
	}

	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}
	pw.Flush()
	if err := pw.Error(); err != nil {
		return nil, err
	}

	return &CSV{rw, pw, rf, pf}, nil
}

func (j *CSV) RecordRun(r RunRecord) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.ConfigID,
		r.Portfolio,
		r.Spec,
		r.Status,
		r.Metric,
		strconv.Itoa(r.Horizon),
		f(r.Confidence),
		f(r.Value),
		strconv.Itoa(r.Scenarios),
		r.Breaches,
		r.Error,
		strconv.FormatInt(r.Elapsed.Milliseconds(), 10),
		r.Created.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}

	for i, v := range r.PnL {
		if err := j.pnl.Write([]string{r.RunID, strconv.Itoa(i), f(v)}); err != nil {
			return err
		}
	}
	j.pnl.Flush()
	return j.pnl.Error()
}

func (j *CSV) Close() error {
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}
	j.pnl.Flush()
	if err := j.pnl.Error(); err != nil {
		return err
	}

	if err := j.rf.Close(); err != nil {
		return err
	}
	if err := j.pf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
