package main

import "bitbucket.org/Davydov/gomc/mcmc"

// RunSummary is storing gomc run summary information.
type RunSummary struct {
	// Version stores gomc version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of threads used.
	NThreads int `json:"nThreads"`
	// TotalTime is the total running time in seconds.
	TotalTime float64 `json:"time"`
	// Target is the sampled target distribution.
	Target string `json:"target"`
	// Method is the sampling method.
	Method string `json:"method"`
	// Chain is the chain summary for single-chain methods.
	Chain *mcmc.Summary `json:"chain,omitempty"`
	// Ensemble is the ensemble summary for DE-MC runs.
	Ensemble *mcmc.EnsembleSummary `json:"ensemble,omitempty"`
}
