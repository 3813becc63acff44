// Package keyvaluedb abstracts the key-value database that backs the record
// store. Three on-disk backends are supported (pebble by default, bbolt, and
// goleveldb) plus an in-memory backend for tests and ephemeral nodes.
package keyvaluedb

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when operating on a closed database.
	ErrClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("key not found")
)

// DB is the contract every backend implements.
type DB interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies all operations atomically where the backend supports it.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator traverses keys in [start, end). A nil start begins at the
	// first key; a nil end runs to the last.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)

	Close() error
}

// Iterator traverses key-value entries in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOpType distinguishes puts from deletes in a batch.
type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// BatchOperation is a single operation in a batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

// Backend names a database implementation.
type Backend string

const (
	BackendPebble  Backend = "pebble"
	BackendBBolt   Backend = "bbolt"
	BackendLevelDB Backend = "leveldb"
	BackendMemory  Backend = "memory"
)

// Open creates or opens a database of the given backend at path. The memory
// backend ignores path.
func Open(backend Backend, path string) (DB, error) {
	switch backend {
	case BackendPebble, "":
		return OpenPebble(path)
	case BackendBBolt:
		return OpenBBolt(path)
	case BackendLevelDB:
		return OpenLevelDB(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown key-value backend %q", backend)
	}
}
