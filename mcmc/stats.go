package mcmc

import (
	"github.com/gonum/matrix/mat64"
)

// RunningCov is a numerically stable incremental mean and covariance
// accumulator (Welford). Updates are O(d^2); no history is kept.
type RunningCov struct {
	n    int
	mean []float64
	m2   *mat64.SymDense
	d1   []float64
	d2   []float64
}

// NewRunningCov creates an accumulator for d-dimensional observations.
func NewRunningCov(d int) *RunningCov {
	return &RunningCov{
		mean: make([]float64, d),
		m2:   mat64.NewSymDense(d, nil),
		d1:   make([]float64, d),
		d2:   make([]float64, d),
	}
}

// Add updates the running statistics with an observation.
func (r *RunningCov) Add(x []float64) {
	r.n++
	n := float64(r.n)
	for i, v := range x {
		r.d1[i] = v - r.mean[i]
		r.mean[i] += r.d1[i] / n
		r.d2[i] = v - r.mean[i]
	}
	// d2 is proportional to d1, so the outer product is symmetric.
	d := len(x)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			r.m2.SetSym(i, j, r.m2.At(i, j)+r.d1[i]*r.d2[j])
		}
	}
}

// N returns the number of observations.
func (r *RunningCov) N() int {
	return r.n
}

// Mean returns the running mean. The caller must not modify it.
func (r *RunningCov) Mean() []float64 {
	return r.mean
}

// Cov writes the sample covariance into dst (allocated when nil) and
// returns it. It returns nil if there are fewer than two observations.
func (r *RunningCov) Cov(dst *mat64.SymDense) *mat64.SymDense {
	if r.n < 2 {
		return nil
	}
	d := len(r.mean)
	if dst == nil {
		dst = mat64.NewSymDense(d, nil)
	}
	f := 1 / float64(r.n-1)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			dst.SetSym(i, j, r.m2.At(i, j)*f)
		}
	}
	return dst
}
