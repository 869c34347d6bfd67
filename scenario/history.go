package scenario

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/bondrisk/market"
)

// history is the lookback window restricted to dates at which every key has
// a rate. rates is indexed [key][observation].
type history struct {
	dates []time.Time
	rates [][]float64
}

func rateFor(o market.Observation, t market.Tenor) (float64, bool) {
	if r, ok := o.Rates[t]; ok {
		return r, true
	}
	if t == market.NoTenor && len(o.Rates) == 1 {
		for _, r := range o.Rates {
			return r, true
		}
	}
	return 0, false
}

func alignHistory(in Input) (*history, error) {
	if len(in.Keys) == 0 {
		return nil, fmt.Errorf("scenario: no keys to shock")
	}

	perKey := make([]map[int64]float64, len(in.Keys))
	count := map[int64]int{}
	dates := map[int64]time.Time{}

	for k, key := range in.Keys {
		cs, ok := in.Series[key.Curve]
		if !ok || cs == nil {
			return nil, fmt.Errorf("scenario: no history for curve %q", key.Curve)
		}
		perKey[k] = map[int64]float64{}
		for _, o := range cs.Window(in.Start, in.End) {
			r, ok := rateFor(o, key.Tenor)
			if !ok {
				continue
			}
			ts := o.Date.Unix()
			perKey[k][ts] = r
			count[ts]++
			dates[ts] = o.Date
		}
	}

	var common []int64
	for ts, n := range count {
		if n == len(in.Keys) {
			common = append(common, ts)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })

	h := &history{
		dates: make([]time.Time, len(common)),
		rates: make([][]float64, len(in.Keys)),
	}
	for i, ts := range common {
		h.dates[i] = dates[ts]
	}
	for k := range in.Keys {
		h.rates[k] = make([]float64, len(common))
		for i, ts := range common {
			h.rates[k][i] = perKey[k][ts]
		}
	}
	return h, nil
}

// shortestKey names the key with the fewest observations in the window, for
// error reporting.
func shortestKey(in Input) Key {
	best, bestN := in.Keys[0], -1
	for _, key := range in.Keys {
		cs := in.Series[key.Curve]
		n := 0
		for _, o := range cs.Window(in.Start, in.End) {
			if _, ok := rateFor(o, key.Tenor); ok {
				n++
			}
		}
		if bestN < 0 || n < bestN {
			best, bestN = key, n
		}
	}
	return best
}
