package mcmc

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"os/signal"

	"github.com/pkg/errors"
)

// Sampler drives the Metropolis accept/reject loop for a single chain:
// it pulls a candidate from the kernel, evaluates the target, applies the
// acceptance test and commits the outcome. A sampler can be resumed:
// Run may be called repeatedly and the chain keeps growing.
type Sampler struct {
	target LogProber
	kernel Kernel
	chain  *Chain
	rng    *rand.Rand

	candidate []float64

	// AccPeriod is the number of steps between acceptance-rate log
	// messages.
	AccPeriod int
	repPeriod int
	traj      io.Writer
	wroteHdr  bool
	sig       chan os.Signal
}

// NewSampler creates a sampler for the given target, kernel and initial
// position. The kernel and the sampler must share the random stream, so
// each chain consumes a single reproducible sequence of draws. The
// initial position is evaluated immediately; an infeasible or failing
// initial evaluation is fatal.
func NewSampler(t LogProber, k Kernel, initial []float64, rng *rand.Rand) (*Sampler, error) {
	if t == nil || k == nil {
		return nil, errors.Wrap(ErrConfiguration, "nil target or kernel")
	}
	chain, err := newChain(t, initial)
	if err != nil {
		return nil, err
	}
	return &Sampler{
		target:    t,
		kernel:    k,
		chain:     chain,
		rng:       rng,
		candidate: make([]float64, t.Dim()),
		AccPeriod: 1000,
		repPeriod: 10,
	}, nil
}

// Chain returns the sampler's chain.
func (s *Sampler) Chain() *Chain {
	return s.chain
}

// SetReportPeriod sets the number of steps between trajectory lines.
func (s *Sampler) SetReportPeriod(period int) {
	s.repPeriod = period
}

// SetTrajectoryOutput sets a writer receiving tab-separated trajectory
// lines.
func (s *Sampler) SetTrajectoryOutput(w io.Writer) {
	s.traj = w
}

// WatchSignals makes Run stop cleanly after the current step when one of
// the signals arrives. The chain stays valid and can be resumed.
func (s *Sampler) WatchSignals(sigs ...os.Signal) {
	s.sig = make(chan os.Signal, 1)
	signal.Notify(s.sig, sigs...)
}

// Step advances the chain by one transition. Evaluation errors reject
// the candidate and sampling continues.
func (s *Sampler) Step() {
	s.kernel.Propose(s.candidate, s.chain.current)
	l, err := evaluate(s.target, s.candidate)
	if err != nil {
		log.Debugf("step %d: %v, rejecting candidate", s.chain.Steps(), err)
		l = math.Inf(-1)
	}
	// Symmetric-proposal Metropolis rule; -Inf candidates are
	// rejected without drawing u.
	accepted := false
	if !math.IsInf(l, -1) {
		accepted = math.Log(uniform(s.rng)) <= l-s.chain.logProb
	}
	s.chain.commit(s.candidate, l, accepted)
	s.kernel.Update(s.chain)
}

// Run advances the chain by the given number of steps.
func (s *Sampler) Run(steps int) error {
	if steps <= 0 {
		return errors.Wrapf(ErrConfiguration,
			"number of steps should be positive (%d)", steps)
	}
	accepted := s.chain.accepted
	for i := 0; i < steps; i++ {
		if s.AccPeriod > 0 && i > 0 && i%s.AccPeriod == 0 {
			log.Infof("Acceptance rate %.2f%%",
				100*float64(s.chain.accepted-accepted)/float64(s.AccPeriod))
			accepted = s.chain.accepted
		}
		if s.repPeriod > 0 && s.chain.Steps()%s.repPeriod == 0 {
			s.printLine()
		}
		s.Step()

		select {
		case sig := <-s.sig:
			log.Warningf("Received signal %v, exiting.", sig)
			return nil
		default:
		}
	}
	s.printLine()
	return nil
}

// printLine writes one trajectory line (and the header on first use).
func (s *Sampler) printLine() {
	if s.traj == nil {
		return
	}
	if !s.wroteHdr {
		fmt.Fprintf(s.traj, "step\tlogProb")
		for i := range s.chain.current {
			fmt.Fprintf(s.traj, "\tx%d", i)
		}
		fmt.Fprintln(s.traj)
		s.wroteHdr = true
	}
	fmt.Fprintf(s.traj, "%d\t%f", s.chain.Steps(), s.chain.logProb)
	for _, v := range s.chain.current {
		fmt.Fprintf(s.traj, "\t%f", v)
	}
	fmt.Fprintln(s.traj)
}
