package risk

import "fmt"

// Policy holds the risk appetite a run result is checked against. Zero
// fields are not enforced.
type Policy struct {
	// MaxLoss caps the metric value in currency.
	MaxLoss float64
	// MaxLossPct caps the metric value as a fraction of the fund.
	MaxLossPct float64
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	LossPct float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks res against p for a fund of totalFund.
func Evaluate(p Policy, res *Result, totalFund float64) Decision {
	d := Decision{Allowed: true}
	if totalFund > 0 {
		d.LossPct = res.Value / totalFund
	}

	if p.MaxLoss > 0 && res.Value > p.MaxLoss {
		d.add("LOSS_LIMIT",
			fmt.Sprintf("%s %.2f exceeds limit %.2f", res.Metric, res.Value, p.MaxLoss))
	}
	if p.MaxLossPct > 0 && d.LossPct > p.MaxLossPct {
		d.add("LOSS_PCT_LIMIT",
			fmt.Sprintf("%s is %.2f%% of fund, limit %.2f%%",
				res.Metric, 100*d.LossPct, 100*p.MaxLossPct))
	}
	return d
}
