// Package dist provides log-density functions of common target
// distributions for demonstrations and tests.
package dist

import (
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
	"github.com/pkg/errors"
)

// LogProber computes the natural-log unnormalized density at a point.
type LogProber interface {
	LogProb(x []float64) float64
	Dim() int
}

// Normal is a product of independent normal densities.
type Normal struct {
	Mu    []float64
	Sigma []float64
}

// NewStdNormal creates a d-dimensional standard normal target.
func NewStdNormal(d int) *Normal {
	n := &Normal{
		Mu:    make([]float64, d),
		Sigma: make([]float64, d),
	}
	for i := range n.Sigma {
		n.Sigma[i] = 1
	}
	return n
}

// LogProb returns the log-density at x.
func (n *Normal) LogProb(x []float64) float64 {
	l := 0.0
	for i, v := range x {
		z := (v - n.Mu[i]) / n.Sigma[i]
		l -= 0.5*z*z + math.Log(n.Sigma[i]) + 0.5*math.Log(2*math.Pi)
	}
	return l
}

// Dim returns the dimensionality.
func (n *Normal) Dim() int { return len(n.Mu) }

// MVNormal is a multivariate normal density with full covariance.
type MVNormal struct {
	normal *distmv.Normal
	dim    int
}

// NewMVNormal creates a multivariate normal target. The covariance must
// be positive definite.
func NewMVNormal(mu []float64, sigma mat64.Symmetric) (*MVNormal, error) {
	if len(mu) != sigma.Symmetric() {
		return nil, errors.Errorf(
			"mean has %d dimensions, covariance %d",
			len(mu), sigma.Symmetric())
	}
	normal, ok := distmv.NewNormal(mu, sigma, nil)
	if !ok {
		return nil, errors.New("covariance is not positive definite")
	}
	return &MVNormal{normal: normal, dim: len(mu)}, nil
}

// LogProb returns the log-density at x.
func (n *MVNormal) LogProb(x []float64) float64 {
	return n.normal.LogProb(x)
}

// Dim returns the dimensionality.
func (n *MVNormal) Dim() int { return n.dim }

// Mixture is a weighted mixture of target densities of equal
// dimensionality.
type Mixture struct {
	Weights    []float64
	Components []LogProber
}

// LogProb returns log sum_i w_i exp(LogProb_i(x)) computed stably.
func (m *Mixture) LogProb(x []float64) float64 {
	max := math.Inf(-1)
	ls := make([]float64, len(m.Components))
	for i, c := range m.Components {
		ls[i] = math.Log(m.Weights[i]) + c.LogProb(x)
		if ls[i] > max {
			max = ls[i]
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, l := range ls {
		sum += math.Exp(l - max)
	}
	return max + math.Log(sum)
}

// Dim returns the dimensionality.
func (m *Mixture) Dim() int { return m.Components[0].Dim() }

// NewBimodal creates a one-dimensional equal-weight mixture of two
// normal densities.
func NewBimodal(mu1, mu2, sigma float64) *Mixture {
	return &Mixture{
		Weights: []float64{0.5, 0.5},
		Components: []LogProber{
			&Normal{Mu: []float64{mu1}, Sigma: []float64{sigma}},
			&Normal{Mu: []float64{mu2}, Sigma: []float64{sigma}},
		},
	}
}

// Rosenbrock is the two-dimensional Rosenbrock ("banana") density
// -(A-x)^2 - B(y-x^2)^2.
type Rosenbrock struct {
	A float64
	B float64
}

// LogProb returns the log-density at x.
func (r *Rosenbrock) LogProb(x []float64) float64 {
	return -(r.A-x[0])*(r.A-x[0]) - r.B*(x[1]-x[0]*x[0])*(x[1]-x[0]*x[0])
}

// Dim returns the dimensionality.
func (r *Rosenbrock) Dim() int { return 2 }

// Box restricts a target to an axis-aligned box; the log-density is -Inf
// outside the support.
type Box struct {
	Target   LogProber
	Min, Max []float64
}

// LogProb returns the log-density at x, -Inf outside the box.
func (b *Box) LogProb(x []float64) float64 {
	for i, v := range x {
		if v < b.Min[i] || v > b.Max[i] {
			return math.Inf(-1)
		}
	}
	return b.Target.LogProb(x)
}

// Dim returns the dimensionality.
func (b *Box) Dim() int { return b.Target.Dim() }
