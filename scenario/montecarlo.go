package scenario

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minDailyChanges is the smallest sample with a defined sample volatility.
const minDailyChanges = 2

// pathChunk is the number of paths a worker draws per task.
const pathChunk = 1024

// MonteCarloGenerator draws N-day shifts from normal daily increments whose
// volatility is estimated from the lookback window and scaled by sqrt(N).
//
// Keys are shocked independently unless Input.Correlated is set, in which
// case draws are correlated through the Cholesky factor of the sample
// covariance of daily changes.
type MonteCarloGenerator struct{}

// Generate is deterministic in (history, keys, horizon, paths, seed): path p
// draws from its own PCG stream seeded with (seed, p), so the worker count
// never changes the output.
func (MonteCarloGenerator) Generate(ctx context.Context, in Input) (*Set, error) {
	if in.Horizon < 1 {
		return nil, fmt.Errorf("scenario: horizon must be at least 1 day, got %d", in.Horizon)
	}
	paths := in.Paths
	if paths <= 0 {
		paths = DefaultPaths
	}

	h, err := alignHistory(in)
	if err != nil {
		return nil, err
	}
	n := len(h.dates)
	if n-1 < minDailyChanges {
		return nil, &InsufficientHistoryError{
			Method: MonteCarlo,
			Key:    shortestKey(in),
			Have:   n,
			Need:   minDailyChanges + 1,
		}
	}

	changes := dailyChanges(h)
	chol, err := shockFactor(changes, in.Correlated)
	if err != nil {
		return nil, err
	}

	scale := math.Sqrt(float64(in.Horizon))
	scenarios := make([]Scenario, paths)

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < paths; lo += pathChunk {
		lo, hi := lo, min(lo+pathChunk, paths)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			drawPaths(scenarios[lo:hi], lo, in.Seed, chol, scale)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewSet(MonteCarlo, in.Horizon, in.Keys, scenarios), nil
}

func drawPaths(out []Scenario, first int, seed uint64, chol [][]float64, scale float64) {
	k := len(chol)
	z := make([]float64, k)
	for i := range out {
		id := first + i
		rng := rand.New(rand.NewPCG(seed, uint64(id)))
		for j := range z {
			z[j] = rng.NormFloat64()
		}
		shifts := make([]float64, k)
		for r := 0; r < k; r++ {
			var s float64
			for c := 0; c <= r; c++ {
				s += chol[r][c] * z[c]
			}
			shifts[r] = scale * s
		}
		out[i] = Scenario{ID: id, Shifts: shifts}
	}
}

// dailyChanges returns one-day rate changes indexed [key][day].
func dailyChanges(h *history) [][]float64 {
	out := make([][]float64, len(h.rates))
	for k, r := range h.rates {
		out[k] = make([]float64, len(r)-1)
		for i := 1; i < len(r); i++ {
			out[k][i-1] = r[i] - r[i-1]
		}
	}
	return out
}

// shockFactor returns the lower-triangular matrix L with shock = L z for
// standard normal z. Independent keys give a diagonal of daily volatilities.
func shockFactor(changes [][]float64, correlated bool) ([][]float64, error) {
	k := len(changes)
	l := make([][]float64, k)
	for i := range l {
		l[i] = make([]float64, k)
	}

	if !correlated || k == 1 {
		for i, c := range changes {
			l[i][i] = stat.StdDev(c, nil)
		}
		return l, nil
	}

	days := len(changes[0])
	x := mat.NewDense(days, k, nil)
	for j, c := range changes {
		for i, v := range c {
			x.Set(i, j, v)
		}
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(&cov); !ok {
		return nil, fmt.Errorf("scenario: covariance of daily changes is not positive definite")
	}
	var tri mat.TriDense
	chol.LTo(&tri)
	for i := 0; i < k; i++ {
		for j := 0; j <= i; j++ {
			l[i][j] = tri.At(i, j)
		}
	}
	return l, nil
}
