package pricing

import (
	"math"
)

const (
	solveTolerance = 1e-8
	solveMaxIter   = 100
	solveGuess     = 0.05
	yieldCeiling   = 1.0
)

// discount is the factor for t years at rate r compounded f times a year.
func discount(r float64, f int, t float64) float64 {
	return math.Pow(1+r/float64(f), -float64(f)*t)
}

// dirtyFromYield returns the present value of the schedule at yield y and
// its derivative with respect to y.
//
//	pv    = sum CF_k (1 + y/f)^(-f t_k)
//	dpv/dy = sum -t_k CF_k (1 + y/f)^(-f t_k - 1)
func dirtyFromYield(s *Schedule, y float64) (float64, float64) {
	f := float64(s.Frequency)
	base := 1 + y/f
	var pv, deriv float64
	for _, cf := range s.Flows {
		df := math.Pow(base, -f*cf.Time)
		pv += cf.Amount() * df
		deriv += -cf.Time * cf.Amount() * df / base
	}
	return pv, deriv
}

// CleanFromYield prices the schedule at yield y.
func CleanFromYield(s *Schedule, y float64) float64 {
	pv, _ := dirtyFromYield(s, y)
	return pv - s.Accrued
}

// SolveYield finds the yield whose clean price equals clean. Newton-Raphson
// steps are used while they stay inside the bracket of known price signs;
// otherwise the bracket is bisected.
func SolveYield(s *Schedule, clean float64) (float64, error) {
	target := clean + s.Accrued
	lo := -0.99 * float64(s.Frequency)
	hi := yieldCeiling

	y := solveGuess
	var diff float64
	for iter := 1; iter <= solveMaxIter; iter++ {
		pv, deriv := dirtyFromYield(s, y)
		diff = pv - target
		if math.Abs(diff) < solveTolerance {
			return y, nil
		}
		// price falls as yield rises
		if diff > 0 {
			lo = y
		} else {
			hi = y
		}

		next := y - diff/deriv
		if deriv == 0 || math.IsNaN(next) || next <= lo || next >= hi {
			next = (lo + hi) / 2
		}
		y = next
	}

	return 0, &PricingConvergenceError{
		Instrument: s.Instrument,
		Target:     clean,
		Iterations: solveMaxIter,
		Residual:   diff,
	}
}
