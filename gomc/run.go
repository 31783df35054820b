package main

import (
	"os"
	"syscall"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/gomc/checkpoint"
	"bitbucket.org/Davydov/gomc/mcmc"
)

// checkpointChunk is the number of iterations between checkpoint-age
// checks.
const checkpointChunk = 1000

// openCheckpoint opens the checkpoint database if requested.
func openCheckpoint() (*bolt.DB, *checkpoint.CheckpointIO, error) {
	if *checkpointF == "" {
		return nil, nil, nil
	}
	db, err := bolt.Open(*checkpointF, 0644, nil)
	if err != nil {
		return nil, nil, err
	}
	cio := checkpoint.NewCheckpointIO(db, []byte("gomc"), *checkpointT)
	return db, cio, nil
}

// runSingle runs a single-chain sampler (mh or am).
func runSingle(s *samplerSettings) (*RunSummary, error) {
	db, cio, err := openCheckpoint()
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	initial := make([]float64, s.target.Dim())
	if cio != nil {
		state, err := cio.Load()
		if err != nil {
			return nil, err
		}
		if state != nil && !state.Final {
			log.Notice("Warm start from checkpoint")
			initial = state.Positions()[0]
		}
	}

	if *outF != "" {
		f, err := os.Create(*outF)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		s.trajF = f
	}

	sampler, err := s.createSingle(initial)
	if err != nil {
		return nil, err
	}
	sampler.WatchSignals(os.Interrupt, syscall.SIGTERM)

	chains := []*mcmc.Chain{sampler.Chain()}
	for done := 0; done < s.iterations; {
		chunk := checkpointChunk
		if s.iterations-done < chunk {
			chunk = s.iterations - done
		}
		if err := sampler.Run(chunk); err != nil {
			return nil, err
		}
		done += chunk
		if cio != nil && cio.Old() {
			if err := cio.Save(checkpoint.Capture(chains, s.seed, false)); err != nil {
				return nil, err
			}
		}
	}
	if cio != nil {
		if err := cio.Save(checkpoint.Capture(chains, s.seed, true)); err != nil {
			return nil, err
		}
	}

	log.Notice("Finished sampling")
	chainSummary, err := sampler.Chain().Summary(s.burn)
	if err != nil {
		return nil, err
	}
	log.Noticef("Acceptance rate %.2f%%", 100*chainSummary.AcceptanceRate)
	printEstimates(chainSummary.Mean, chainSummary.SD)

	return &RunSummary{
		Target: *targetName,
		Method: s.method,
		Chain:  chainSummary,
	}, nil
}

// runEnsemble runs a DE-MC ensemble.
func runEnsemble(s *samplerSettings) (*RunSummary, error) {
	db, cio, err := openCheckpoint()
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	initial := s.initialPositions()
	if cio != nil {
		state, err := cio.Load()
		if err != nil {
			return nil, err
		}
		if state != nil && !state.Final && len(state.Chains) == s.nchains {
			log.Notice("Warm start from checkpoint")
			initial = state.Positions()
		}
	}

	e, err := s.createEnsemble(initial)
	if err != nil {
		return nil, err
	}
	if *nThreads != 1 && !s.sequential {
		if err := e.SetWorkers(s.nchains); err != nil {
			return nil, err
		}
	}
	e.WatchSignals(os.Interrupt, syscall.SIGTERM)

	for done := 0; done < s.iterations; {
		chunk := checkpointChunk
		if s.iterations-done < chunk {
			chunk = s.iterations - done
		}
		if err := e.Run(chunk); err != nil {
			return nil, err
		}
		done += chunk
		if cio != nil && cio.Old() {
			if err := cio.Save(checkpoint.Capture(e.Chains(), s.seed, false)); err != nil {
				return nil, err
			}
		}
	}
	if cio != nil {
		if err := cio.Save(checkpoint.Capture(e.Chains(), s.seed, true)); err != nil {
			return nil, err
		}
	}

	log.Notice("Finished sampling")
	ensembleSummary, err := e.Summary(s.burn)
	if err != nil {
		return nil, err
	}
	log.Noticef("Acceptance rate %.2f%%", 100*ensembleSummary.AcceptanceRate)
	printEstimates(ensembleSummary.Mean, ensembleSummary.SD)
	if d := e.Diagnostics(); len(d) > 0 {
		log.Noticef("Final PSRF: %v", d[len(d)-1].PSRF)
	}

	return &RunSummary{
		Target:   *targetName,
		Method:   s.method,
		Ensemble: ensembleSummary,
	}, nil
}
