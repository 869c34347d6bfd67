package risk

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// MetricKind is the loss statistic drawn from a PnL vector.
type MetricKind string

const (
	MetricVaR MetricKind = "var_type"
	MetricES  MetricKind = "expected_shortfall"

	// MetricStress is the loss of a single deterministic scenario. It is
	// never parsed from a loss field.
	MetricStress MetricKind = "stress_loss"
)

// ParseMetric accepts the run-config spelling of a loss statistic.
func ParseMetric(s string) (MetricKind, error) {
	switch m := MetricKind(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricVaR, MetricES:
		return m, nil
	default:
		return "", fmt.Errorf("unknown loss calculation %q (supported: var_type, expected_shortfall)", s)
	}
}

// tailIndex is floor((1-c) n), at most n-1. The epsilon keeps 0.99 x 100
// from landing on 0.99999.
func tailIndex(n int, c float64) int {
	return min(int(math.Floor((1-c)*float64(n)+1e-9)), n-1)
}

// MinScenarios is the smallest vector length for which the c tail holds at
// least one observation.
func MinScenarios(c float64) int {
	return int(math.Ceil(1/(1-c) - 1e-9))
}

func sortedTail(v Vector, c float64) ([]float64, int, error) {
	if c <= 0 || c >= 1 || math.IsNaN(c) {
		return nil, 0, fmt.Errorf("risk: confidence %v outside (0, 1)", c)
	}
	if need := MinScenarios(c); len(v) < need {
		return nil, 0, &InsufficientScenariosError{Have: len(v), Need: need, Confidence: c}
	}
	sorted := slices.Clone(v)
	slices.Sort(sorted)
	return sorted, tailIndex(len(v), c), nil
}

// VaR is the loss at the (1-c) quantile of v, positive for a loss. The
// vector is not modified.
func VaR(v Vector, c float64) (float64, error) {
	sorted, idx, err := sortedTail(v, c)
	if err != nil {
		return 0, err
	}
	return -sorted[idx], nil
}

// ExpectedShortfall averages every outcome at or beyond the VaR index.
func ExpectedShortfall(v Vector, c float64) (float64, error) {
	sorted, idx, err := sortedTail(v, c)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, x := range sorted[:idx+1] {
		sum += x
	}
	return -sum / float64(idx+1), nil
}
