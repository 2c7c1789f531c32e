package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
)

// EmbeddingStore persists computed embedding vectors keyed by content hash,
// so that restarting the process does not re-embed unchanged text.
type EmbeddingStore interface {
	Get(key string) ([]float32, bool, error)
	Put(key string, vector []float32) error
	Close() error
}

// BadgerStore implements EmbeddingStore on an embedded BadgerDB. Vectors
// are stored as little-endian float32 sequences.
type BadgerStore struct {
	db *badger.DB
}

// BadgerStoreParams configures OpenBadgerStore.
type BadgerStoreParams struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory skips disk persistence, for tests.
	InMemory bool
}

// OpenBadgerStore opens (creating if needed) a badger database at the given
// path. Badger's own logging is disabled; it is noisy and not keyval-shaped.
func OpenBadgerStore(params BadgerStoreParams) (*BadgerStore, error) {
	opts := badger.DefaultOptions(params.Path).WithLogger(nil)
	if params.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding store at %s: %w", params.Path, err)
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the vector stored under key, or (nil, false, nil) on a miss.
func (s *BadgerStore) Get(key string) ([]float32, bool, error) {
	var vector []float32
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vector = decodeVector(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read embedding %s: %w", key, err)
	}
	return vector, true, nil
}

// Put stores the vector under key, overwriting any previous value.
func (s *BadgerStore) Put(key string, vector []float32) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encodeVector(vector))
	})
	if err != nil {
		return fmt.Errorf("failed to write embedding %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vector
}
