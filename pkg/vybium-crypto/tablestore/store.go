// Package tablestore persists precomputed tables on LevelDB: field
// element vectors too large to recompute on every start, and NTT twiddle
// tables keyed by domain size.
package tablestore

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldberr "github.com/syndtr/goleveldb/leveldb/errors"
	ldbs "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vybium/vybium-crypto/internal/vybium-crypto/logging"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("tablestore: not found")

// Store is a LevelDB-backed byte store. It hands out named vectors and
// twiddle caches that share the one database.
type Store struct {
	db     *leveldb.DB
	logger logging.Logger
}

// NewInMemoryStore returns a store backed by memory only, for tests and
// short-lived processes.
func NewInMemoryStore(l logging.Logger) (*Store, error) {
	db, err := leveldb.Open(ldbs.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: l}, nil
}

// NewStore opens a persistent store at the given path, creating it when
// absent. A corrupted database is recovered rather than refused.
func NewStore(path string, l logging.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		if !ldberr.IsCorrupted(err) {
			return nil, err
		}

		l.Warningf("tablestore open failed, attempting recovery: %v", err)
		db, err = leveldb.RecoverFile(path, nil)
		if err != nil {
			return nil, fmt.Errorf("tablestore recovery: %w", err)
		}
		l.Warning("tablestore recovery done")
	}

	return &Store{db: db, logger: l}, nil
}

func (s *Store) get(key []byte) ([]byte, error) {
	data, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Store) put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *Store) delete(key []byte) error {
	return s.db.Delete(key, nil)
}

func (s *Store) write(batch *leveldb.Batch) error {
	return s.db.Write(batch, nil)
}

// Close releases the resources used by the store.
func (s *Store) Close() error {
	return s.db.Close()
}
