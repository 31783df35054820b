package mcmc

import (
	"math/rand"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
	"github.com/pkg/errors"
)

// Kernel proposes candidate positions for a chain. All kernels in this
// package are symmetric, so the Metropolis acceptance rule needs no
// Hastings correction.
type Kernel interface {
	// Propose writes a candidate position to dst given the current
	// position x.
	Propose(dst, x []float64)
	// Update notifies the kernel of a committed step, so adaptive
	// kernels can update their statistics.
	Update(c *Chain)
}

// RandomWalk is a Gaussian random-walk kernel with fixed proposal scale,
// either a per-dimension scale vector or a full covariance matrix.
type RandomWalk struct {
	scale  []float64
	normal *distmv.Normal
	rng    *rand.Rand
	z      []float64
}

// NewRandomWalk creates a random-walk kernel with per-dimension step
// sizes. The kernel must use the same random stream as its chain.
func NewRandomWalk(scale []float64, rng *rand.Rand) (*RandomWalk, error) {
	if len(scale) == 0 {
		return nil, errors.Wrap(ErrConfiguration, "empty proposal scale")
	}
	for i, s := range scale {
		if s <= 0 {
			return nil, errors.Wrapf(ErrConfiguration,
				"proposal scale %d is not positive (%v)", i, s)
		}
	}
	c := make([]float64, len(scale))
	copy(c, scale)
	return &RandomWalk{scale: c, rng: rng}, nil
}

// NewRandomWalkCov creates a random-walk kernel drawing increments from a
// zero-mean multivariate normal with the given covariance.
func NewRandomWalkCov(sigma mat64.Symmetric, rng *rand.Rand) (*RandomWalk, error) {
	d := sigma.Symmetric()
	normal, ok := distmv.NewNormal(make([]float64, d), sigma, rng)
	if !ok {
		return nil, errors.Wrap(ErrConfiguration,
			"proposal covariance is not positive definite")
	}
	return &RandomWalk{normal: normal, rng: rng, z: make([]float64, d)}, nil
}

// Propose writes candidate = x + z, z drawn from the proposal
// distribution.
func (k *RandomWalk) Propose(dst, x []float64) {
	if k.normal != nil {
		k.normal.Rand(k.z)
		floats.AddTo(dst, x, k.z)
		return
	}
	for i, s := range k.scale {
		dst[i] = x[i] + k.rng.NormFloat64()*s
	}
}

// Update is a no-op: the kernel is stateless beyond its scale.
func (k *RandomWalk) Update(c *Chain) {}
