package main

import (
	"fmt"
	"os"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/gomc/dist"
	"bitbucket.org/Davydov/gomc/mcmc"
)

// getTargetFromString returns a target density from a string.
func getTargetFromString(name string, d int) (mcmc.LogProber, error) {
	switch name {
	case "normal":
		log.Infof("Using %d-dimensional standard normal target", d)
		return dist.NewStdNormal(d), nil
	case "corr":
		log.Info("Using 2-dimensional correlated normal target (rho=0.8)")
		sigma := mat64.NewSymDense(2, []float64{1, 0.8, 0.8, 1})
		return dist.NewMVNormal([]float64{0, 0}, sigma)
	case "bimodal":
		log.Info("Using bimodal mixture target (modes at -8 and 10)")
		return dist.NewBimodal(-8, 10, 1), nil
	case "rosenbrock":
		log.Info("Using Rosenbrock target")
		return &dist.Rosenbrock{A: 1, B: 100}, nil
	}
	return nil, fmt.Errorf("Unknown target distribution: %s", name)
}

// samplerSettings stores settings for creation of a new sampler from the
// command line parameters (global variables).
type samplerSettings struct {
	method string
	target mcmc.LogProber

	iterations int
	burn       int

	report int
	accept int

	scale float64

	skip     int
	interval int
	epsilon  float64

	nchains    int
	gamma      float64
	jitter     float64
	inflate    float64
	sequential bool
	diagPeriod int

	seed int64

	trajF *os.File
}

// newSamplerSettings creates settings from the command line parameters.
func newSamplerSettings(target mcmc.LogProber) *samplerSettings {
	return &samplerSettings{
		method: *method,
		target: target,

		iterations: *iterations,
		burn:       *burn,

		report: *report,
		accept: *accept,

		scale: *scale,

		skip:     *skip,
		interval: *interval,
		epsilon:  *epsilon,

		nchains:    *nchains,
		gamma:      *gamma,
		jitter:     *jitter,
		inflate:    *inflate,
		sequential: *sequential,
		diagPeriod: *diagPeriod,

		seed: *seed,
	}
}

// createSingle creates a single-chain sampler from the settings.
func (s *samplerSettings) createSingle(initial []float64) (*mcmc.Sampler, error) {
	rng := mcmc.NewRand(s.seed)
	var kernel mcmc.Kernel
	var err error
	switch s.method {
	case "mh":
		scale := make([]float64, s.target.Dim())
		for i := range scale {
			scale[i] = s.scale
		}
		kernel, err = mcmc.NewRandomWalk(scale, rng)
	case "am":
		as := mcmc.NewAdaptiveSettings()
		as.Skip = s.skip
		as.Interval = s.interval
		as.Epsilon = s.epsilon
		as.SD = s.scale
		log.Infof("Setting adaptive parameters, skip=%v, interval=%v", as.Skip, as.Interval)
		kernel, err = mcmc.NewAdaptiveGaussian(s.target.Dim(), as, rng)
	default:
		return nil, fmt.Errorf("Unknown sampling method: %s", s.method)
	}
	if err != nil {
		return nil, err
	}

	sampler, err := mcmc.NewSampler(s.target, kernel, initial, rng)
	if err != nil {
		return nil, err
	}
	sampler.AccPeriod = s.accept
	sampler.SetReportPeriod(s.report)
	if s.trajF != nil {
		sampler.SetTrajectoryOutput(s.trajF)
	}
	return sampler, nil
}

// createEnsemble creates a DE-MC ensemble from the settings.
func (s *samplerSettings) createEnsemble(initial [][]float64) (*mcmc.Ensemble, error) {
	set := mcmc.NewDESettings()
	set.Gamma = s.gamma
	if s.jitter > 0 {
		set.Jitter = s.jitter
	}

	e, err := mcmc.NewEnsemble(s.target, initial, set, s.seed)
	if err != nil {
		return nil, err
	}
	e.AccPeriod = s.accept
	e.DiagPeriod = s.diagPeriod
	if s.sequential {
		e.SetUpdateOrder(mcmc.Sequential)
	}
	return e, nil
}

// initialPositions draws overdispersed starting positions for an
// ensemble run.
func (s *samplerSettings) initialPositions() [][]float64 {
	rng := mcmc.NewRand(s.seed + int64(s.nchains))
	d := s.target.Dim()
	initial := make([][]float64, s.nchains)
	for i := range initial {
		initial[i] = make([]float64, d)
		for j := range initial[i] {
			initial[i][j] = rng.NormFloat64() * s.inflate
		}
	}
	return initial
}
