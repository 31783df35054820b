package mcmc

import (
	"math"

	"github.com/gonum/stat"
	"github.com/pkg/errors"
)

// Sample is a single recorded step of a chain: the chain position after
// the step, its log-density and whether the candidate was accepted.
type Sample struct {
	Position []float64 `json:"position"`
	LogProb  float64   `json:"logProb"`
	Accepted bool      `json:"accepted"`
}

// Chain stores the state and full history of a single random walk. The
// current position always equals the last accepted (or initial) position,
// never a rejected candidate.
type Chain struct {
	current  []float64
	logProb  float64
	history  []Sample
	accepted int
}

// newChain creates a chain at the given initial position, evaluating the
// target immediately. An evaluation error or a zero-probability initial
// position is fatal.
func newChain(t LogProber, initial []float64) (*Chain, error) {
	if len(initial) != t.Dim() {
		return nil, errors.Wrapf(ErrConfiguration,
			"initial position has %d dimensions, target expects %d",
			len(initial), t.Dim())
	}
	l, err := evaluate(t, initial)
	if err != nil {
		return nil, errors.Wrap(err, "initial position")
	}
	if math.IsInf(l, -1) {
		return nil, errors.Wrap(ErrConfiguration,
			"initial position has zero probability")
	}
	current := make([]float64, len(initial))
	copy(current, initial)
	return &Chain{
		current: current,
		logProb: l,
	}, nil
}

// commit records the outcome of one step. On acceptance the candidate
// becomes the current position; on rejection the current position is
// recorded again with the accepted flag unset.
func (c *Chain) commit(candidate []float64, l float64, accepted bool) {
	if accepted {
		copy(c.current, candidate)
		c.logProb = l
		c.accepted++
	}
	pos := make([]float64, len(c.current))
	copy(pos, c.current)
	c.history = append(c.history, Sample{
		Position: pos,
		LogProb:  c.logProb,
		Accepted: accepted,
	})
}

// Current returns the current position. The caller must not modify it.
func (c *Chain) Current() []float64 {
	return c.current
}

// LogProb returns the log-density of the current position.
func (c *Chain) LogProb() float64 {
	return c.logProb
}

// Steps returns the number of steps performed so far.
func (c *Chain) Steps() int {
	return len(c.history)
}

// Accepted returns the number of accepted steps.
func (c *Chain) Accepted() int {
	return c.accepted
}

// AcceptanceRate returns the fraction of accepted steps.
func (c *Chain) AcceptanceRate() float64 {
	if len(c.history) == 0 {
		return 0
	}
	return float64(c.accepted) / float64(len(c.history))
}

// History returns the full chain history. The caller must not modify it.
func (c *Chain) History() []Sample {
	return c.history
}

// last returns the most recent history entry.
func (c *Chain) last() *Sample {
	return &c.history[len(c.history)-1]
}

// Estimate returns the per-dimension posterior mean and standard
// deviation computed from the history after discarding the first burn
// steps.
func (c *Chain) Estimate(burn int) (mean, sd []float64, err error) {
	if burn < 0 || c.Steps()-burn < 2 {
		return nil, nil, errors.Wrapf(ErrConfiguration,
			"cannot estimate from %d steps with burn-in %d",
			c.Steps(), burn)
	}
	d := len(c.current)
	mean = make([]float64, d)
	sd = make([]float64, d)
	col := make([]float64, c.Steps()-burn)
	for j := 0; j < d; j++ {
		for i, s := range c.history[burn:] {
			col[i] = s.Position[j]
		}
		mean[j] = stat.Mean(col, nil)
		sd[j] = stat.StdDev(col, nil)
	}
	return mean, sd, nil
}
