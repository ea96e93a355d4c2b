// Package store is the keyed memoization layer over simulation runs:
// (scenario hash) -> committed EpochState sequence. It is owned by the
// calling layer; the engine itself never reads or writes it.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/dtaolabs/subnetsim/log"
	"github.com/dtaolabs/subnetsim/simerrors"
	"github.com/dtaolabs/subnetsim/types"
)

var runPrefix = []byte("run/")

// StoredRun is the persisted form of one completed (or cancelled) run.
type StoredRun struct {
	Config  types.ScenarioConfig `json:"config"`
	History []types.EpochState   `json:"history"`
	Summary *types.Summary       `json:"summary"`

	// Prices is the optional pool price trajectory simulated alongside.
	Prices []float64 `json:"prices,omitempty"`
}

// RunStore wraps LevelDB for run persistence. Thread-safe: LevelDB handles
// its own synchronization.
type RunStore struct {
	db *leveldb.DB
}

// NewRunStore opens or creates a LevelDB database at the given path. If
// path is empty, uses in-memory storage.
func NewRunStore(path string) (*RunStore, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open run store at %s: %w", path, err)
	}
	return &RunStore{db: db}, nil
}

// NewMemoryRunStore creates an in-memory RunStore for testing.
func NewMemoryRunStore() (*RunStore, error) {
	return NewRunStore("")
}

func (rs *RunStore) Close() error {
	return rs.db.Close()
}

func runKey(hash common.Hash) []byte {
	return append(append([]byte(nil), runPrefix...), hash.Bytes()...)
}

// Put stores a run under its scenario hash, replacing any previous run of
// the same scenario.
func (rs *RunStore) Put(run *StoredRun) (common.Hash, error) {
	hash := run.Config.Hash()
	enc, err := json.Marshal(run)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode run %s: %w", hash.Hex(), err)
	}
	if err := rs.db.Put(runKey(hash), enc, nil); err != nil {
		return common.Hash{}, fmt.Errorf("put run %s: %w", hash.Hex(), err)
	}
	log.Debug(log.StoreMonitoring, "run stored", "hash", hash.Hex(), "epochs", len(run.History))
	return hash, nil
}

// Get retrieves the run stored under a scenario hash.
func (rs *RunStore) Get(hash common.Hash) (*StoredRun, error) {
	data, err := rs.db.Get(runKey(hash), nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("%w hash=%s", simerrors.ErrRunNotFound, hash.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", hash.Hex(), err)
	}
	var run StoredRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("%w hash=%s: %v", simerrors.ErrRunCorrupted, hash.Hex(), err)
	}
	return &run, nil
}

// Has reports whether a run is stored for the scenario hash.
func (rs *RunStore) Has(hash common.Hash) (bool, error) {
	ok, err := rs.db.Has(runKey(hash), nil)
	if err != nil {
		return false, fmt.Errorf("has run %s: %w", hash.Hex(), err)
	}
	return ok, nil
}

// Delete removes a stored run; deleting a missing run is not an error.
func (rs *RunStore) Delete(hash common.Hash) error {
	return rs.db.Delete(runKey(hash), nil)
}

// List returns the scenario hashes of every stored run, in key order.
func (rs *RunStore) List() ([]common.Hash, error) {
	iter := rs.db.NewIterator(util.BytesPrefix(runPrefix), nil)
	defer iter.Release()
	var hashes []common.Hash
	for iter.Next() {
		key := iter.Key()
		hashes = append(hashes, common.BytesToHash(key[len(runPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return hashes, nil
}
