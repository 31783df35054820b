// Package checkpoint saves and restores sampler state using a bolt
// database, so long runs can be warm-started from where they stopped.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/gomc/mcmc"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the key name for all run states.
var MAIN = []byte("main")

// ChainState is the persisted state of a single chain. Only the state
// needed to resume sampling is stored, not the full history.
type ChainState struct {
	Position []float64 `json:"position"`
	LogProb  float64   `json:"logProb"`
	Steps    int       `json:"steps"`
	Accepted int       `json:"accepted"`
}

// RunState is the persisted state of a sampling run.
type RunState struct {
	Seed   int64        `json:"seed"`
	Chains []ChainState `json:"chains"`
	Final  bool         `json:"final"`
}

// Capture extracts the resumable state of a set of chains.
func Capture(chains []*mcmc.Chain, seed int64, final bool) *RunState {
	s := &RunState{
		Seed:   seed,
		Chains: make([]ChainState, len(chains)),
		Final:  final,
	}
	for i, c := range chains {
		pos := make([]float64, len(c.Current()))
		copy(pos, c.Current())
		s.Chains[i] = ChainState{
			Position: pos,
			LogProb:  c.LogProb(),
			Steps:    c.Steps(),
			Accepted: c.Accepted(),
		}
	}
	return s
}

// Positions returns the stored chain positions, usable as initial
// positions of a warm-started run.
func (s *RunState) Positions() [][]float64 {
	p := make([][]float64, len(s.Chains))
	for i := range s.Chains {
		p[i] = s.Chains[i].Position
	}
	return p
}

// CheckpointIO saves and loads run states.
type CheckpointIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewCheckpointIO creates a new CheckpointIO saving at most once every
// given number of seconds.
func NewCheckpointIO(db *bolt.DB, key []byte, seconds float64) *CheckpointIO {
	return &CheckpointIO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
}

// Save saves a run state to the database.
func (s *CheckpointIO) Save(state *RunState) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	data, err := json.Marshal(state)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, data)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// Load returns the stored run state, or nil if there is none.
func (s *CheckpointIO) Load() (*RunState, error) {
	b, err := LoadData(s.db, s.key)
	if err != nil || b == nil {
		return nil, err
	}

	var state *RunState
	err = json.Unmarshal(b, &state)
	if err != nil {
		return nil, err
	}
	if state == nil || len(state.Chains) == 0 {
		return nil, nil
	}

	if state.Final {
		log.Noticef("Found finished sampling checkpoint (steps=%v)",
			state.Chains[0].Steps)
	} else {
		log.Noticef("Found unfinished sampling checkpoint (steps=%v)",
			state.Chains[0].Steps)
	}
	return state, nil
}

// Old returns true if the last checkpoint save was too long ago.
func (s *CheckpointIO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets the last checkpoint time to now.
func (s *CheckpointIO) SetNow() {
	s.last = time.Now()
}

// SaveData saves values in a bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads data from a bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
