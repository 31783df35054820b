package mcmc

import (
	"math"
	"math/rand"
	"os"
	"os/signal"
	"sync"

	"github.com/gonum/floats"
	"github.com/gonum/stat"
	"github.com/pkg/errors"
)

// UpdateOrder selects how ensemble chains advance within a generation.
type UpdateOrder int

const (
	// Lockstep computes all proposals of a generation against a frozen
	// snapshot of the previous generation and commits them as a
	// barrier. This is the default and the only order in which
	// parallel evaluation is allowed.
	Lockstep UpdateOrder = iota
	// Sequential updates chains one at a time; an updated position is
	// immediately visible as a donor to the chains that follow.
	Sequential
)

// DESettings are settings for differential-evolution proposals.
type DESettings struct {
	// Gamma is the differential scale factor; 0 selects the default
	// 2.38/sqrt(2d).
	Gamma float64
	// Jitter is the standard deviation of the per-dimension
	// perturbation noise keeping the chain irreducible.
	Jitter float64
}

// NewDESettings creates settings with the default scale and jitter.
func NewDESettings() *DESettings {
	return &DESettings{
		Gamma:  0,
		Jitter: 1e-6,
	}
}

// DiagPoint is one record of the convergence diagnostic series.
type DiagPoint struct {
	Step int       `json:"step"`
	PSRF []float64 `json:"psrf"`
}

// Ensemble owns a set of chains advanced with differential-evolution
// proposals (DE-MC): candidate = current + gamma*(donor1 - donor2) +
// noise, donors drawn from the other chains. All chains advance in
// lockstep by default; see UpdateOrder.
type Ensemble struct {
	target   LogProber
	samplers []*Sampler
	chains   []*Chain
	order    UpdateOrder
	workers  int
	snapshot [][]float64
	gen      int

	// AccPeriod is the number of generations between acceptance-rate
	// log messages.
	AccPeriod int
	// DiagPeriod is the number of generations between recorded
	// convergence diagnostics (0 disables recording).
	DiagPeriod int
	// DiagWindow is the trailing window used for the diagnostic.
	DiagWindow int

	diag []DiagPoint
	sig  chan os.Signal
}

// NewEnsemble creates an ensemble of len(initial) chains starting from
// the given positions. At least three chains of equal dimensionality are
// required. Chain i draws from a stream seeded with seed+i, so runs are
// reproducible and independent of evaluation order.
func NewEnsemble(t LogProber, initial [][]float64, set *DESettings, seed int64) (*Ensemble, error) {
	if t == nil {
		return nil, errors.Wrap(ErrConfiguration, "nil target")
	}
	n := len(initial)
	if n < 3 {
		return nil, errors.Wrapf(ErrConfiguration,
			"differential evolution requires at least 3 chains (%d)", n)
	}
	if set == nil {
		set = NewDESettings()
	}
	if set.Jitter <= 0 || set.Gamma < 0 {
		return nil, errors.Wrapf(ErrConfiguration,
			"invalid DE settings (gamma=%v, jitter=%v)",
			set.Gamma, set.Jitter)
	}
	d := t.Dim()
	gamma := set.Gamma
	if gamma == 0 {
		gamma = 2.38 / math.Sqrt(2*float64(d))
	}
	e := &Ensemble{
		target:     t,
		samplers:   make([]*Sampler, n),
		chains:     make([]*Chain, n),
		snapshot:   make([][]float64, n),
		workers:    1,
		AccPeriod:  1000,
		DiagWindow: 100,
	}
	for i := range initial {
		rng := NewRand(seed + int64(i))
		k := &deWalk{
			ens:    e,
			self:   i,
			gamma:  gamma,
			jitter: set.Jitter,
			rng:    rng,
			diff:   make([]float64, d),
		}
		s, err := NewSampler(t, k, initial[i], rng)
		if err != nil {
			return nil, errors.Wrapf(err, "chain %d", i)
		}
		s.AccPeriod = 0
		s.SetReportPeriod(0)
		e.samplers[i] = s
		e.chains[i] = s.chain
		e.snapshot[i] = make([]float64, d)
	}
	return e, nil
}

// SetUpdateOrder selects lockstep or sequential chain updates.
func (e *Ensemble) SetUpdateOrder(order UpdateOrder) {
	e.order = order
}

// SetWorkers sets the number of parallel evaluation workers. Values
// above one require the Lockstep order and a target safe for concurrent
// calls.
func (e *Ensemble) SetWorkers(n int) error {
	if n < 1 {
		return errors.Wrapf(ErrConfiguration, "invalid worker count %d", n)
	}
	if n > 1 && e.order != Lockstep {
		return errors.Wrap(ErrConfiguration,
			"parallel evaluation requires lockstep updates")
	}
	e.workers = n
	return nil
}

// WatchSignals makes Run stop cleanly after the current generation when
// one of the signals arrives.
func (e *Ensemble) WatchSignals(sigs ...os.Signal) {
	e.sig = make(chan os.Signal, 1)
	signal.Notify(e.sig, sigs...)
}

// Chains returns the ensemble's chains.
func (e *Ensemble) Chains() []*Chain {
	return e.chains
}

// Generation returns the number of completed generations.
func (e *Ensemble) Generation() int {
	return e.gen
}

// Diagnostics returns the recorded convergence diagnostic series.
func (e *Ensemble) Diagnostics() []DiagPoint {
	return e.diag
}

// AcceptanceRate returns the acceptance rate pooled over all chains.
func (e *Ensemble) AcceptanceRate() float64 {
	var accepted, steps int
	for _, c := range e.chains {
		accepted += c.accepted
		steps += c.Steps()
	}
	if steps == 0 {
		return 0
	}
	return float64(accepted) / float64(steps)
}

// Run advances every chain by the given number of generations.
func (e *Ensemble) Run(generations int) error {
	if generations <= 0 {
		return errors.Wrapf(ErrConfiguration,
			"number of generations should be positive (%d)", generations)
	}
	lastAccepted := 0
	for _, c := range e.chains {
		lastAccepted += c.accepted
	}
	for i := 0; i < generations; i++ {
		if e.AccPeriod > 0 && i > 0 && i%e.AccPeriod == 0 {
			accepted := 0
			for _, c := range e.chains {
				accepted += c.accepted
			}
			log.Infof("Acceptance rate %.2f%%",
				100*float64(accepted-lastAccepted)/
					float64(e.AccPeriod*len(e.chains)))
			lastAccepted = accepted
		}
		e.step()
		if e.DiagPeriod > 0 && e.gen%e.DiagPeriod == 0 &&
			e.chains[0].Steps() >= e.DiagWindow {
			psrf, err := PSRF(e.chains, e.DiagWindow)
			if err == nil {
				e.diag = append(e.diag,
					DiagPoint{Step: e.chains[0].Steps(), PSRF: psrf})
			}
		}

		select {
		case sig := <-e.sig:
			log.Warningf("Received signal %v, exiting.", sig)
			return nil
		default:
		}
	}
	return nil
}

// step advances all chains by one generation.
func (e *Ensemble) step() {
	switch e.order {
	case Lockstep:
		// Donors are read from the frozen snapshot, so commits
		// within the generation cannot influence proposals and
		// chains may step in parallel.
		for i, c := range e.chains {
			copy(e.snapshot[i], c.current)
		}
		if e.workers > 1 {
			e.stepParallel()
		} else {
			for _, s := range e.samplers {
				s.Step()
			}
		}
	case Sequential:
		for _, s := range e.samplers {
			s.Step()
		}
	}
	e.gen++
}

// stepParallel steps every chain on a bounded set of workers. Each chain
// only draws from its own stream and commits only to itself, so the
// result is identical to the serial lockstep order.
func (e *Ensemble) stepParallel() {
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for _, s := range e.samplers {
		wg.Add(1)
		sem <- struct{}{}
		go func(s *Sampler) {
			defer wg.Done()
			s.Step()
			<-sem
		}(s)
	}
	wg.Wait()
}

// position returns the donor position of chain i for the current
// generation.
func (e *Ensemble) position(i int) []float64 {
	if e.order == Lockstep {
		return e.snapshot[i]
	}
	return e.chains[i].current
}

// donors draws two distinct chains other than self, uniformly without
// replacement.
func (e *Ensemble) donors(self int, rng *rand.Rand) (r1, r2 []float64) {
	n := len(e.chains)
	i := rng.Intn(n - 1)
	if i >= self {
		i++
	}
	j := rng.Intn(n - 2)
	a, b := self, i
	if a > b {
		a, b = b, a
	}
	if j >= a {
		j++
	}
	if j >= b {
		j++
	}
	return e.position(i), e.position(j)
}

// deWalk is the differential-evolution proposal kernel of a single
// ensemble member.
type deWalk struct {
	ens    *Ensemble
	self   int
	gamma  float64
	jitter float64
	rng    *rand.Rand
	diff   []float64
}

// Propose writes candidate = x + gamma*(r1-r2) + jitter noise.
func (k *deWalk) Propose(dst, x []float64) {
	r1, r2 := k.ens.donors(k.self, k.rng)
	floats.SubTo(k.diff, r1, r2)
	for i := range dst {
		dst[i] = x[i] + k.gamma*k.diff[i] + k.rng.NormFloat64()*k.jitter
	}
}

// Update is a no-op: the kernel has no adaptation state.
func (k *deWalk) Update(c *Chain) {}

// Estimate returns the per-dimension posterior mean and standard
// deviation pooled over all chains, discarding the first burn steps of
// each chain.
func (e *Ensemble) Estimate(burn int) (mean, sd []float64, err error) {
	steps := e.chains[0].Steps()
	if burn < 0 || steps-burn < 2 {
		return nil, nil, errors.Wrapf(ErrConfiguration,
			"cannot estimate from %d steps with burn-in %d", steps, burn)
	}
	d := e.target.Dim()
	mean = make([]float64, d)
	sd = make([]float64, d)
	col := make([]float64, 0, (steps-burn)*len(e.chains))
	for j := 0; j < d; j++ {
		col = col[:0]
		for _, c := range e.chains {
			for _, s := range c.history[burn:] {
				col = append(col, s.Position[j])
			}
		}
		mean[j] = stat.Mean(col, nil)
		sd[j] = stat.StdDev(col, nil)
	}
	return mean, sd, nil
}
