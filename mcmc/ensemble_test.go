package mcmc

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

// bimodal is a one-dimensional mixture of two well-separated normals.
func bimodal() LogProber {
	logNormal := func(x, mu float64) float64 {
		z := x - mu
		return -0.5*z*z - 0.5*math.Log(2*math.Pi)
	}
	return Func{D: 1, F: func(x []float64) float64 {
		a := logNormal(x[0], -8) + math.Log(0.5)
		b := logNormal(x[0], 10) + math.Log(0.5)
		max := math.Max(a, b)
		return max + math.Log(math.Exp(a-max)+math.Exp(b-max))
	}}
}

func TestEnsembleTooSmall(tst *testing.T) {
	initial := [][]float64{{0}, {1}}
	_, err := NewEnsemble(stdNormal(1), initial, nil, 1)
	if err == nil {
		tst.Error("No error for 2-chain differential evolution")
	}
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("Wrong error category:", err)
	}
}

func TestEnsembleDimensionMismatch(tst *testing.T) {
	initial := [][]float64{{0, 0}, {1, 1}, {2}}
	_, err := NewEnsemble(stdNormal(2), initial, nil, 1)
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("No configuration error for dimension mismatch:", err)
	}
}

func TestEnsembleInvalidGenerations(tst *testing.T) {
	initial := [][]float64{{0}, {1}, {2}}
	e, err := NewEnsemble(stdNormal(1), initial, nil, 1)
	if err != nil {
		tst.Error("Error: ", err)
	}
	err = e.Run(-1)
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("No configuration error for negative generations:", err)
	}
}

func TestBimodalCoverage(tst *testing.T) {
	if testing.Short() {
		tst.Skip("skipping long-running test")
	}
	initial := [][]float64{{-9}, {-8}, {-7}, {9}, {10}, {11}}
	e, err := NewEnsemble(bimodal(), initial, nil, 42)
	if err != nil {
		tst.Error("Error: ", err)
	}
	err = e.Run(10000)
	if err != nil {
		tst.Error("Error: ", err)
	}

	// Pooled mass in both modes must be non-trivial.
	var low, high, total float64
	for _, c := range e.Chains() {
		for _, smp := range c.History()[1000:] {
			if smp.Position[0] < 1 {
				low++
			} else {
				high++
			}
			total++
		}
	}
	tst.Logf("mass: low=%.3f, high=%.3f", low/total, high/total)
	if low/total < 0.05 || high/total < 0.05 {
		tst.Error("Mode collapse: ", low/total, high/total)
	}
}

func TestLockstepParallelDeterminism(tst *testing.T) {
	run := func(workers int) []*Chain {
		initial := [][]float64{{-1, 0}, {0, 1}, {1, -1}, {2, 2}}
		e, err := NewEnsemble(stdNormal(2), initial, nil, 7)
		if err != nil {
			tst.Error("Error: ", err)
		}
		if workers > 1 {
			err = e.SetWorkers(workers)
			if err != nil {
				tst.Error("Error: ", err)
			}
		}
		err = e.Run(500)
		if err != nil {
			tst.Error("Error: ", err)
		}
		return e.Chains()
	}

	serial := run(1)
	parallel := run(3)
	for i := range serial {
		h1 := serial[i].History()
		h2 := parallel[i].History()
		if len(h1) != len(h2) {
			tst.Fatal("History length mismatch for chain", i)
		}
		for t := range h1 {
			if h1[t].Accepted != h2[t].Accepted {
				tst.Fatal("Chains diverge at chain", i, "step", t)
			}
			for j := range h1[t].Position {
				if h1[t].Position[j] != h2[t].Position[j] {
					tst.Fatal("Positions diverge at chain", i, "step", t)
				}
			}
		}
	}
}

func TestSequentialOrder(tst *testing.T) {
	initial := [][]float64{{-1}, {0}, {1}}
	e, err := NewEnsemble(stdNormal(1), initial, nil, 3)
	if err != nil {
		tst.Error("Error: ", err)
	}
	e.SetUpdateOrder(Sequential)
	err = e.Run(200)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if e.Generation() != 200 {
		tst.Error("Wrong number of generations:", e.Generation())
	}
	for i, c := range e.Chains() {
		if c.Steps() != 200 {
			tst.Error("Wrong number of steps for chain", i, ":", c.Steps())
		}
	}
}

func TestParallelRequiresLockstep(tst *testing.T) {
	initial := [][]float64{{-1}, {0}, {1}}
	e, err := NewEnsemble(stdNormal(1), initial, nil, 3)
	if err != nil {
		tst.Error("Error: ", err)
	}
	e.SetUpdateOrder(Sequential)
	err = e.SetWorkers(2)
	if errors.Cause(err) != ErrConfiguration {
		tst.Error("No configuration error for parallel sequential updates:", err)
	}
}

func TestEnsembleDiagnostics(tst *testing.T) {
	initial := [][]float64{{-1}, {0}, {1}, {2}}
	e, err := NewEnsemble(stdNormal(1), initial, nil, 5)
	if err != nil {
		tst.Error("Error: ", err)
	}
	e.DiagPeriod = 100
	e.DiagWindow = 100
	err = e.Run(1000)
	if err != nil {
		tst.Error("Error: ", err)
	}
	diag := e.Diagnostics()
	if len(diag) == 0 {
		tst.Fatal("No diagnostics recorded")
	}
	last := diag[len(diag)-1]
	tst.Log("final PSRF:", last.PSRF)
	if last.PSRF[0] > 2 {
		tst.Error("PSRF far from 1 for identical chains:", last.PSRF[0])
	}
}
