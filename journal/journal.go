// Package journal stores yield curve history and risk run results, and
// reads and writes the CSV tables around the risk engine.
package journal

import (
	"strings"
	"time"

	"github.com/rustyeddy/bondrisk/engine"
)

const (
	StatusOK     = "ok"
	StatusBreach = "breach"
	StatusFailed = "failed"
)

// RunRecord is one row of the run journal.
type RunRecord struct {
	RunID      string
	ConfigID   string
	Portfolio  string
	Spec       string
	Status     string
	Metric     string
	Horizon    int
	Confidence float64
	Value      float64
	Scenarios  int
	Breaches   string
	Error      string
	Created    time.Time
	Elapsed    time.Duration

	// PnL is stored in pnl_vectors, not on the run row.
	PnL []float64
}

// NewRunRecord flattens an engine outcome.
func NewRunRecord(o *engine.Outcome) RunRecord {
	r := RunRecord{
		RunID:    o.RunID,
		ConfigID: o.Config.ID,
		Spec:     o.Config.Spec,
		Created:  o.Started.UTC(),
		Elapsed:  o.Elapsed,
	}
	if o.Err != nil {
		r.Status = StatusFailed
		r.Error = o.Err.Error()
		r.Metric = string(o.Config.Metric.Kind)
		r.Horizon = o.Config.Metric.Horizon
		r.Confidence = o.Config.Metric.Confidence
		return r
	}

	res := o.Result
	r.Status = StatusOK
	r.Metric = string(res.Metric)
	r.Horizon = res.Horizon
	r.Confidence = res.Confidence
	r.Value = res.Value
	r.Scenarios = len(res.PnL)
	r.PnL = res.PnL
	if !o.Decision.Allowed {
		r.Status = StatusBreach
		codes := make([]string, len(o.Decision.Violations))
		for i, v := range o.Decision.Violations {
			codes[i] = v.Code
		}
		r.Breaches = strings.Join(codes, ",")
	}
	return r
}

// Journal records finished runs.
type Journal interface {
	RecordRun(RunRecord) error
	Close() error
}
