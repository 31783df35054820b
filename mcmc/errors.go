package mcmc

import (
	"github.com/pkg/errors"
)

// Error categories. Use errors.Cause (or errors.Is) to test which
// category a returned error belongs to.
var (
	// ErrConfiguration indicates an invalid sampler setup (wrong
	// dimensionality, non-positive-definite covariance, too few
	// chains, non-positive step count). Configuration errors are
	// fatal and reported before any steps run.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEvaluation indicates that the target panicked or returned
	// NaN. Fatal on the initial position, otherwise the candidate is
	// rejected and sampling continues.
	ErrEvaluation = errors.New("target evaluation failed")
	// ErrAdaptation indicates that a covariance update did not
	// produce a positive-definite matrix. The adaptation cycle is
	// skipped and the previous proposal parameters are kept.
	ErrAdaptation = errors.New("covariance adaptation failed")
)
