package pricing

import (
	"fmt"
	"strings"
)

// RevalMode selects how scenario prices are produced from a bound valuer.
type RevalMode string

const (
	FullRevaluation          RevalMode = "full_revaluation"
	SensitivityApproximation RevalMode = "sensitivity_approximation"
)

// OneBP is one basis point as a decimal rate.
const OneBP = 0.0001

// ParseRevalMode accepts the run-config spelling of a revaluation mode.
func ParseRevalMode(s string) (RevalMode, error) {
	switch m := RevalMode(strings.ToLower(strings.TrimSpace(s))); m {
	case FullRevaluation, SensitivityApproximation:
		return m, nil
	default:
		return "", fmt.Errorf("unknown reval mode %q (supported: full_revaluation, sensitivity_approximation)", s)
	}
}

// Sensitivity holds the central-difference risk measures of one instrument,
// per unit of the instrument, for a parallel move of the mapped curve.
type Sensitivity struct {
	// DV01 is the price gain for a 1bp fall in rates.
	DV01             float64
	ModifiedDuration float64
	Convexity        float64
}

// Sensitivities bumps the base state by +/-1bp.
func Sensitivities(v Valuer) (Sensitivity, error) {
	up, err := v.Price(BaseScenario, ParallelShift(OneBP))
	if err != nil {
		return Sensitivity{}, err
	}
	dn, err := v.Price(BaseScenario, ParallelShift(-OneBP))
	if err != nil {
		return Sensitivity{}, err
	}
	p0 := v.Base()
	s := Sensitivity{DV01: (dn - up) / 2}
	if p0 > 0 {
		s.ModifiedDuration = (dn - up) / (2 * p0 * OneBP)
		s.Convexity = (dn + up - 2*p0) / (p0 * OneBP * OneBP)
	}
	return s, nil
}

// Revaluer turns a scenario shift into a price for one bound instrument.
type Revaluer interface {
	Reprice(v Valuer, sens Sensitivity, scenario int, shift ShiftFunc) (float64, error)
}

// ForMode returns the revaluer for mode.
func ForMode(mode RevalMode) (Revaluer, error) {
	switch mode {
	case FullRevaluation:
		return fullReval{}, nil
	case SensitivityApproximation:
		return sensitivityReval{}, nil
	default:
		return nil, fmt.Errorf("no revaluer for reval mode %q", mode)
	}
}

type fullReval struct{}

func (fullReval) Reprice(v Valuer, _ Sensitivity, scenario int, shift ShiftFunc) (float64, error) {
	return v.Price(scenario, shift)
}

// sensitivityReval moves the base price linearly by DV01 using the shift at
// the instrument's mapped curve point.
type sensitivityReval struct{}

func (sensitivityReval) Reprice(v Valuer, sens Sensitivity, scenario int, shift ShiftFunc) (float64, error) {
	ref := v.Ref()
	dy, ok := shift(ref.Curve, ref.Tenor)
	if !ok {
		return 0, invalid(v.Instrument(), scenario, "no shift for %s", ref)
	}
	return checkPrice(v.Instrument(), scenario, v.Base()-sens.DV01*dy/OneBP)
}
