package mcmc

import (
	"math"

	"github.com/gonum/stat"
	"github.com/pkg/errors"
)

// PSRF computes the per-dimension Gelman-Rubin potential scale reduction
// factor over the last window samples of each chain. Values near 1
// indicate that the chains sample from the same distribution.
func PSRF(chains []*Chain, window int) ([]float64, error) {
	m := len(chains)
	if m < 2 {
		return nil, errors.Wrapf(ErrConfiguration,
			"at least 2 chains required for PSRF (%d)", m)
	}
	if window < 2 {
		return nil, errors.Wrapf(ErrConfiguration,
			"PSRF window should be at least 2 (%d)", window)
	}
	for i, c := range chains {
		if c.Steps() < window {
			return nil, errors.Wrapf(ErrConfiguration,
				"chain %d has %d steps, window is %d", i, c.Steps(), window)
		}
	}

	d := len(chains[0].current)
	r := make([]float64, d)
	col := make([]float64, window)
	means := make([]float64, m)
	vars := make([]float64, m)
	n := float64(window)
	for j := 0; j < d; j++ {
		for i, c := range chains {
			h := c.history[c.Steps()-window:]
			for t, s := range h {
				col[t] = s.Position[j]
			}
			means[i] = stat.Mean(col, nil)
			vars[i] = stat.Variance(col, nil)
		}
		w := stat.Mean(vars, nil)
		b := n * stat.Variance(means, nil)
		if w == 0 {
			// Degenerate window: all chains stuck.
			if b == 0 {
				r[j] = 1
			} else {
				r[j] = math.Inf(1)
			}
			continue
		}
		varPlus := (n-1)/n*w + b/n
		r[j] = math.Sqrt(varPlus / w)
	}
	return r, nil
}
