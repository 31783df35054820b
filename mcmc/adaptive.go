package mcmc

import (
	"math"
	"math/rand"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
	"github.com/pkg/errors"
)

// AdaptiveSettings are settings for the adaptive Gaussian kernel.
type AdaptiveSettings struct {
	// Skip is the number of steps before the first covariance update.
	Skip int
	// Interval is the number of steps between covariance updates.
	Interval int
	// Epsilon is the diagonal regularization added to the scaled
	// empirical covariance to keep it positive definite.
	Epsilon float64
	// SD is the per-dimension proposal standard deviation used before
	// the first successful covariance update.
	SD float64
}

// NewAdaptiveSettings creates settings with the default adaptation
// schedule.
func NewAdaptiveSettings() *AdaptiveSettings {
	return &AdaptiveSettings{
		Skip:     100,
		Interval: 50,
		Epsilon:  1e-6,
		SD:       0.1,
	}
}

// AdaptiveGaussian is an adaptive Metropolis kernel: a Gaussian random
// walk whose covariance is periodically re-estimated from the accepted
// history, scaled by 2.4^2/d. The running statistics are updated only on
// accepted steps; updates are triggered by the step count.
type AdaptiveGaussian struct {
	*AdaptiveSettings
	dim    int
	sd     float64
	acc    *RunningCov
	sigma  *mat64.SymDense
	normal *distmv.Normal
	rng    *rand.Rand
	z      []float64
}

// NewAdaptiveGaussian creates an adaptive Gaussian kernel for a
// d-dimensional target. The kernel must use the same random stream as
// its chain.
func NewAdaptiveGaussian(d int, as *AdaptiveSettings, rng *rand.Rand) (*AdaptiveGaussian, error) {
	if d <= 0 {
		return nil, errors.Wrapf(ErrConfiguration, "invalid dimension %d", d)
	}
	if as.Skip < 0 || as.Interval <= 0 {
		return nil, errors.Wrapf(ErrConfiguration,
			"invalid adaptation schedule (skip=%d, interval=%d)",
			as.Skip, as.Interval)
	}
	if as.Epsilon <= 0 || as.SD <= 0 {
		return nil, errors.Wrapf(ErrConfiguration,
			"epsilon and SD should be > 0 (epsilon=%v, SD=%v)",
			as.Epsilon, as.SD)
	}
	return &AdaptiveGaussian{
		AdaptiveSettings: as,
		dim:              d,
		sd:               2.4 * 2.4 / float64(d),
		acc:              NewRunningCov(d),
		sigma:            mat64.NewSymDense(d, nil),
		rng:              rng,
		z:                make([]float64, d),
	}, nil
}

// Propose writes candidate = x + z. Before the first successful
// covariance update z is an independent draw with standard deviation SD
// per dimension.
func (k *AdaptiveGaussian) Propose(dst, x []float64) {
	if k.normal == nil {
		for i := range dst {
			dst[i] = x[i] + k.rng.NormFloat64()*k.SD
		}
		return
	}
	k.normal.Rand(k.z)
	floats.AddTo(dst, x, k.z)
}

// Update feeds accepted positions into the running covariance and
// refreshes the proposal distribution on schedule.
func (k *AdaptiveGaussian) Update(c *Chain) {
	if s := c.last(); s.Accepted {
		k.acc.Add(s.Position)
	}
	n := c.Steps()
	if n >= k.Skip && (n-k.Skip)%k.Interval == 0 {
		k.refresh(n)
	}
}

// EmpiricalCov returns the current empirical covariance estimate, or nil
// if fewer than two positions were accumulated.
func (k *AdaptiveGaussian) EmpiricalCov() *mat64.SymDense {
	return k.acc.Cov(nil)
}

// refresh recomputes the proposal covariance. A failed factorization is
// recoverable: the cycle is skipped and the previous proposal kept.
func (k *AdaptiveGaussian) refresh(step int) {
	cov := k.acc.Cov(k.sigma)
	if cov == nil {
		return
	}
	for i := 0; i < k.dim; i++ {
		for j := i; j < k.dim; j++ {
			v := k.sd * cov.At(i, j)
			if i == j {
				v += k.Epsilon
			}
			// The factorization below accepts non-finite
			// matrices.
			if math.IsNaN(v) || math.IsInf(v, 0) {
				log.Warningf("step %d: %v, keeping previous proposal", step,
					errors.Wrap(ErrAdaptation, "covariance is not finite"))
				return
			}
			k.sigma.SetSym(i, j, v)
		}
	}
	normal, ok := distmv.NewNormal(make([]float64, k.dim), k.sigma, k.rng)
	if !ok {
		log.Warningf("step %d: %v, keeping previous proposal", step,
			errors.Wrap(ErrAdaptation, "matrix is not positive definite"))
		return
	}
	k.normal = normal
}
