package mcmc

import (
	"math"
	"testing"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat"
	"github.com/pkg/errors"
)

func TestRunningCov(tst *testing.T) {
	// The incremental accumulator must agree with a direct covariance
	// computation.
	const (
		n = 200
		d = 3
	)
	rng := NewRand(17)
	data := mat64.NewDense(n, d, nil)
	acc := NewRunningCov(d)
	x := make([]float64, d)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			x[j] = rng.NormFloat64() * float64(j+1)
		}
		data.SetRow(i, x)
		acc.Add(x)
	}

	if acc.N() != n {
		tst.Error("Wrong number of observations:", acc.N())
	}
	mean := acc.Mean()
	for j := 0; j < d; j++ {
		ref := stat.Mean(mat64.Col(nil, j, data), nil)
		if math.Abs(mean[j]-ref) > 1e-10 {
			tst.Error("Mean mismatch at", j, ":", mean[j], ref)
		}
	}

	want := stat.CovarianceMatrix(nil, data, nil)
	got := acc.Cov(nil)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			if math.Abs(got.At(i, j)-want.At(i, j)) > 1e-10 {
				tst.Error("Covariance mismatch at", i, j, ":",
					got.At(i, j), want.At(i, j))
			}
		}
	}
}

func TestRunningCovTooFew(tst *testing.T) {
	acc := NewRunningCov(2)
	acc.Add([]float64{1, 2})
	if acc.Cov(nil) != nil {
		tst.Error("Covariance from a single observation")
	}
}

func TestAdaptiveSettings(tst *testing.T) {
	rng := NewRand(1)
	as := NewAdaptiveSettings()
	as.Interval = 0
	_, err := NewAdaptiveGaussian(2, as, rng)
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("No configuration error for zero interval:", err)
	}
}

func TestAdaptiveConvergence(tst *testing.T) {
	// Correlated 2-dimensional Gaussian with rho=0.8; the estimated
	// covariance should approach the target covariance.
	const rho = 0.8
	target := Func{D: 2, F: func(x []float64) float64 {
		return -0.5 / (1 - rho*rho) *
			(x[0]*x[0] - 2*rho*x[0]*x[1] + x[1]*x[1])
	}}

	rng := NewRand(42)
	as := NewAdaptiveSettings()
	as.Skip = 100
	as.Interval = 50
	as.SD = 1
	k, err := NewAdaptiveGaussian(2, as, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	s, err := NewSampler(target, k, []float64{0, 0}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	err = s.Run(5000)
	if err != nil {
		tst.Error("Error: ", err)
	}

	cov := k.EmpiricalCov()
	if cov == nil {
		tst.Fatal("No covariance estimate")
	}
	corr := cov.At(0, 1) / math.Sqrt(cov.At(0, 0)*cov.At(1, 1))
	tst.Logf("estimated covariance: [%f %f; %f %f], corr=%f",
		cov.At(0, 0), cov.At(0, 1), cov.At(1, 0), cov.At(1, 1), corr)
	if corr < 0.6 || corr > 0.95 {
		tst.Error("Estimated correlation far from 0.8:", corr)
	}
	for i := 0; i < 2; i++ {
		if cov.At(i, i) < 0.5 || cov.At(i, i) > 2 {
			tst.Error("Estimated variance far from 1:", cov.At(i, i))
		}
	}
}

func TestAdaptationFailureKeepsProposal(tst *testing.T) {
	rng := NewRand(3)
	as := NewAdaptiveSettings()
	k, err := NewAdaptiveGaussian(2, as, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}

	// Establish a proposal from well-behaved observations.
	for i := 0; i < 100; i++ {
		k.acc.Add([]float64{rng.NormFloat64(), rng.NormFloat64()})
	}
	k.refresh(100)
	if k.normal == nil {
		tst.Fatal("No proposal after a valid covariance update")
	}
	prev := k.normal

	// Overflow the accumulated covariance; the update must be
	// skipped and the previous proposal kept.
	k.acc.Add([]float64{1e200, -1e200})
	k.acc.Add([]float64{-1e200, 1e200})
	cov := k.acc.Cov(nil)
	if !math.IsInf(cov.At(0, 0), 1) {
		tst.Fatal("Accumulated covariance did not overflow:", cov.At(0, 0))
	}
	k.refresh(200)
	if k.normal != prev {
		tst.Error("Proposal replaced despite failed adaptation")
	}

	dst := make([]float64, 2)
	k.Propose(dst, []float64{0, 0})
	for i, v := range dst {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			tst.Error("Non-finite proposal at", i, ":", v)
		}
	}
}

func TestAdaptiveDeterminism(tst *testing.T) {
	run := func() []Sample {
		rng := NewRand(13)
		as := NewAdaptiveSettings()
		k, err := NewAdaptiveGaussian(2, as, rng)
		if err != nil {
			tst.Error("Error: ", err)
		}
		s, err := NewSampler(stdNormal(2), k, []float64{0, 0}, rng)
		if err != nil {
			tst.Error("Error: ", err)
		}
		err = s.Run(1000)
		if err != nil {
			tst.Error("Error: ", err)
		}
		return s.Chain().History()
	}
	h1 := run()
	h2 := run()
	for i := range h1 {
		for j := range h1[i].Position {
			if h1[i].Position[j] != h2[i].Position[j] {
				tst.Fatal("Adaptive histories diverge at step", i)
			}
		}
	}
}
