/*

Package mcmc implements Markov chain Monte Carlo samplers for drawing
approximate samples from an arbitrary unnormalized probability density.

Three proposal kernels are provided: a fixed Gaussian random walk
(RandomWalk), an adaptive Metropolis kernel which learns the proposal
covariance from the chain (AdaptiveGaussian), and differential evolution
(DE-MC), where candidates are built from the difference of two other
chains' positions (Ensemble).

All kernels share the symmetric-proposal Metropolis acceptance rule. The
target density is supplied as a LogProber returning the natural-log
unnormalized density; -Inf marks zero-probability regions.

*/
package mcmc

import (
	"math"
	"math/rand"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

// log is the global logging variable.
var log = logging.MustGetLogger("mcmc")

// LogProber computes the natural-log unnormalized density of the target
// distribution. Implementations must be deterministic for a fixed
// argument; the sampler may re-evaluate a point and relies on getting the
// same answer.
type LogProber interface {
	// LogProb returns the log-density at x. -Inf marks a
	// zero-probability point; NaN is treated as an evaluation error.
	LogProb(x []float64) float64
	// Dim returns the dimensionality of the parameter space.
	Dim() int
}

// Func adapts a plain function to the LogProber interface.
type Func struct {
	F func(x []float64) float64
	D int
}

// LogProb calls the wrapped function.
func (f Func) LogProb(x []float64) float64 { return f.F(x) }

// Dim returns the dimensionality.
func (f Func) Dim() int { return f.D }

// NewRand creates a new random stream for a given seed. Every chain owns
// one stream; all its proposal and acceptance draws come from it in a
// fixed order, so runs are reproducible for a fixed seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// evaluate calls the target, converting panics and NaN results into
// evaluation errors.
func evaluate(t LogProber, x []float64) (l float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrEvaluation, "target panicked: %v", r)
		}
	}()
	l = t.LogProb(x)
	if math.IsNaN(l) {
		return l, errors.Wrap(ErrEvaluation, "target returned NaN")
	}
	return l, nil
}

// uniform returns a random value in (0, 1], so its logarithm is always
// finite.
func uniform(rng *rand.Rand) float64 {
	return 1 - rng.Float64()
}
