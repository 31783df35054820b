package mcmc

import (
	"math"
	"testing"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

func init() {
	// disable logging for tests
	logging.SetLevel(logging.WARNING, "mcmc")
}

// stdNormal is a d-dimensional standard normal test target.
func stdNormal(d int) LogProber {
	return Func{
		D: d,
		F: func(x []float64) float64 {
			l := 0.0
			for _, v := range x {
				l -= 0.5 * v * v
			}
			return l
		},
	}
}

func TestInitialNaNFatal(tst *testing.T) {
	target := Func{D: 1, F: func(x []float64) float64 { return math.NaN() }}
	rng := NewRand(1)
	k, err := NewRandomWalk([]float64{1}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	_, err = NewSampler(target, k, []float64{0}, rng)
	if err == nil {
		tst.Error("No error for NaN initial evaluation")
	}
	if errors.Cause(err) != ErrEvaluation {
		tst.Error("Wrong error category:", err)
	}
}

func TestInitialInfeasibleFatal(tst *testing.T) {
	target := Func{D: 1, F: func(x []float64) float64 { return math.Inf(-1) }}
	rng := NewRand(1)
	k, err := NewRandomWalk([]float64{1}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	_, err = NewSampler(target, k, []float64{0}, rng)
	if err == nil {
		tst.Error("No error for infeasible initial position")
	}
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("Wrong error category:", err)
	}
}

func TestDimensionMismatch(tst *testing.T) {
	rng := NewRand(1)
	k, err := NewRandomWalk([]float64{1, 1}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	_, err = NewSampler(stdNormal(2), k, []float64{0}, rng)
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("No configuration error for dimension mismatch:", err)
	}
}

func TestRejectionKeepsState(tst *testing.T) {
	// Only the initial position is feasible, so every candidate is
	// rejected.
	initial := []float64{0.5}
	target := Func{D: 1, F: func(x []float64) float64 {
		if x[0] != initial[0] {
			return math.Inf(-1)
		}
		return 0
	}}
	rng := NewRand(3)
	k, err := NewRandomWalk([]float64{1}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	s, err := NewSampler(target, k, initial, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	err = s.Run(10)
	if err != nil {
		tst.Error("Error: ", err)
	}

	c := s.Chain()
	if c.Steps() != 10 {
		tst.Error("Wrong number of steps:", c.Steps())
	}
	if c.Accepted() != 0 {
		tst.Error("Rejected candidates counted as accepted:", c.Accepted())
	}
	if c.Current()[0] != initial[0] || c.LogProb() != 0 {
		tst.Error("Rejection changed the current state:",
			c.Current(), c.LogProb())
	}
	for i, smp := range c.History() {
		if smp.Accepted || smp.Position[0] != initial[0] || smp.LogProb != 0 {
			tst.Error("Wrong history entry", i, ":", smp)
		}
	}
}

func TestLogProbNotStale(tst *testing.T) {
	target := stdNormal(3)
	rng := NewRand(5)
	k, err := NewRandomWalk([]float64{1, 1, 1}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	s, err := NewSampler(target, k, []float64{0, 0, 0}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	err = s.Run(500)
	if err != nil {
		tst.Error("Error: ", err)
	}
	for i, smp := range s.Chain().History() {
		if smp.LogProb != target.LogProb(smp.Position) {
			tst.Error("Stale log-density at step", i)
		}
	}
}

func TestDeterminism(tst *testing.T) {
	run := func() []Sample {
		rng := NewRand(42)
		k, err := NewRandomWalk([]float64{1, 1}, rng)
		if err != nil {
			tst.Error("Error: ", err)
		}
		s, err := NewSampler(stdNormal(2), k, []float64{1, -1}, rng)
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
	if len(h1) != len(h2) {
		tst.Fatal("History length mismatch:", len(h1), len(h2))
	}
	for i := range h1 {
		if h1[i].Accepted != h2[i].Accepted || h1[i].LogProb != h2[i].LogProb {
			tst.Fatal("Histories diverge at step", i)
		}
		for j := range h1[i].Position {
			if h1[i].Position[j] != h2[i].Position[j] {
				tst.Fatal("Positions diverge at step", i)
			}
		}
	}
}

func TestEstimateBurnTooLarge(tst *testing.T) {
	rng := NewRand(1)
	k, err := NewRandomWalk([]float64{1}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	s, err := NewSampler(stdNormal(1), k, []float64{0}, rng)
	if err != nil {
		tst.Error("Error: ", err)
	}
	err = s.Run(10)
	if err != nil {
		tst.Error("Error: ", err)
	}
	_, _, err = s.Chain().Estimate(10)
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("No configuration error for too large burn-in:", err)
	}
}
