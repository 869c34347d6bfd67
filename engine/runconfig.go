package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rustyeddy/bondrisk/pricing"
	"github.com/rustyeddy/bondrisk/risk"
	"github.com/rustyeddy/bondrisk/scenario"
)

// Kind is the first field of a run config.
type Kind string

const (
	KindVaR    Kind = "var"
	KindStress Kind = "stress_testing"
)

// RunConfig is one parsed risk run definition. Runs are value types and
// never share state.
//
//	var|<scenario_method>|<reval>^<model>|<loss>^<horizon_days>^<confidence>
//	stress_testing|<stress_name>|<reval>^<model>
type RunConfig struct {
	ID   string
	Spec string
	Kind Kind

	Method scenario.Method
	Stress string

	Reval pricing.RevalMode
	Model pricing.Model

	Metric risk.MetricSpec
}

// FieldError names the run config field that failed to parse.
type FieldError struct {
	ID     string
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("run config %s: %s %q: %s", e.ID, e.Field, e.Value, e.Reason)
}

// ParseRunConfig parses spec for the run config named id.
func ParseRunConfig(id, spec string) (RunConfig, error) {
	rc := RunConfig{ID: id, Spec: strings.TrimSpace(spec)}
	bad := func(field, value string, reason any) (RunConfig, error) {
		return RunConfig{}, &FieldError{ID: id, Field: field, Value: value, Reason: fmt.Sprint(reason)}
	}

	fields := strings.Split(rc.Spec, "|")
	rc.Kind = Kind(strings.ToLower(strings.TrimSpace(fields[0])))
	switch rc.Kind {
	case KindVaR:
		if len(fields) != 4 {
			return bad("spec", rc.Spec, fmt.Sprintf("var needs 4 fields, got %d", len(fields)))
		}
	case KindStress:
		if len(fields) != 3 {
			return bad("spec", rc.Spec, fmt.Sprintf("stress_testing needs 3 fields, got %d", len(fields)))
		}
	default:
		return bad("risk_metric", fields[0], "want var or stress_testing")
	}

	pm := strings.Split(fields[2], "^")
	if len(pm) != 2 {
		return bad("valuation", fields[2], "want <reval_mode>^<pricing_model>")
	}
	var err error
	if rc.Reval, err = pricing.ParseRevalMode(pm[0]); err != nil {
		return bad("reval_mode", pm[0], err)
	}
	if rc.Model, err = pricing.ParseModel(pm[1]); err != nil {
		return bad("pricing_model", pm[1], err)
	}

	if rc.Kind == KindStress {
		rc.Stress = strings.TrimSpace(fields[1])
		if rc.Stress == "" {
			return bad("stress_scenario", fields[1], "must not be empty")
		}
		return rc, nil
	}

	if rc.Method, err = scenario.ParseMethod(fields[1]); err != nil {
		return bad("scenario_method", fields[1], err)
	}

	loss := strings.Split(fields[3], "^")
	if len(loss) != 3 {
		return bad("loss", fields[3], "want <loss_calc>^<horizon_days>^<confidence>")
	}
	if rc.Metric.Kind, err = risk.ParseMetric(loss[0]); err != nil {
		return bad("loss_calc", loss[0], err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(loss[1]))
	if err != nil || h < 1 {
		return bad("horizon_days", loss[1], "want a positive whole number of days")
	}
	rc.Metric.Horizon = h

	c, err := parseConfidence(loss[2])
	if err != nil {
		return bad("confidence", loss[2], err)
	}
	rc.Metric.Confidence = c
	return rc, nil
}

// parseConfidence accepts 99, 99.5 or 0.99.
func parseConfidence(s string) (float64, error) {
	c, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if c > 1 {
		c /= 100
	}
	if c <= 0 || c >= 1 {
		return 0, fmt.Errorf("must be a percentile between 0 and 100")
	}
	return c, nil
}
