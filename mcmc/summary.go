package mcmc

import (
	"github.com/gonum/mathext"
)

// Summary stores summary information for a single chain run.
type Summary struct {
	// Steps is the number of steps performed.
	Steps int `json:"steps"`
	// Accepted is the number of accepted steps.
	Accepted int `json:"accepted"`
	// AcceptanceRate is the fraction of accepted steps.
	AcceptanceRate float64 `json:"acceptanceRate"`
	// Mean is the per-dimension posterior mean after burn-in.
	Mean []float64 `json:"mean"`
	// SD is the per-dimension posterior standard deviation.
	SD []float64 `json:"sd"`
	// Lower95 and Upper95 are normal-approximation 95% credible
	// bounds.
	Lower95 []float64 `json:"lower95"`
	Upper95 []float64 `json:"upper95"`
}

// EnsembleSummary stores summary information for an ensemble run.
type EnsembleSummary struct {
	// Chains are the per-chain summaries.
	Chains []*Summary `json:"chains"`
	// AcceptanceRate is the acceptance rate pooled over all chains.
	AcceptanceRate float64 `json:"acceptanceRate"`
	// Mean and SD are pooled posterior estimates.
	Mean []float64 `json:"mean"`
	SD   []float64 `json:"sd"`
	// Diagnostics is the recorded convergence diagnostic series.
	Diagnostics []DiagPoint `json:"diagnostics,omitempty"`
}

// Summary computes a run summary from the chain history after discarding
// the first burn steps.
func (c *Chain) Summary(burn int) (*Summary, error) {
	mean, sd, err := c.Estimate(burn)
	if err != nil {
		return nil, err
	}
	s := &Summary{
		Steps:          c.Steps(),
		Accepted:       c.accepted,
		AcceptanceRate: c.AcceptanceRate(),
		Mean:           mean,
		SD:             sd,
		Lower95:        make([]float64, len(mean)),
		Upper95:        make([]float64, len(mean)),
	}
	z := mathext.NormalQuantile(0.975)
	for i := range mean {
		s.Lower95[i] = mean[i] - z*sd[i]
		s.Upper95[i] = mean[i] + z*sd[i]
	}
	return s, nil
}

// Summary computes per-chain and pooled summaries for the ensemble.
func (e *Ensemble) Summary(burn int) (*EnsembleSummary, error) {
	mean, sd, err := e.Estimate(burn)
	if err != nil {
		return nil, err
	}
	s := &EnsembleSummary{
		Chains:         make([]*Summary, len(e.chains)),
		AcceptanceRate: e.AcceptanceRate(),
		Mean:           mean,
		SD:             sd,
		Diagnostics:    e.diag,
	}
	for i, c := range e.chains {
		s.Chains[i], err = c.Summary(burn)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
