package keyvaluedb

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var recordsBucket = []byte("records")

// BBoltDB is the bbolt-backed implementation: a single file, a single bucket.
type BBoltDB struct {
	db *bbolt.DB
}

// OpenBBolt opens or creates a bbolt database file at path.
func OpenBBolt(path string) (*BBoltDB, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt at %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BBoltDB{db: db}, nil
}

func (b *BBoltDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	if b.db == nil {
		return nil, ErrClosed
	}

	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(recordsBucket).Get(key)
		if v == nil {
			return ErrKeyNotFound
		}
		// bbolt values are only valid inside the transaction.
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *BBoltDB) Put(ctx context.Context, key, value []byte) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).Put(key, value)
	})
}

func (b *BBoltDB) Delete(ctx context.Context, key []byte) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).Delete(key)
	})
}

func (b *BBoltDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		for _, op := range ops {
			var err error
			switch op.Type {
			case BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case BatchDelete:
				err = bucket.Delete(op.Key)
			default:
				return fmt.Errorf("unknown batch operation type: %d", op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BBoltDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if b.db == nil {
		return nil, ErrClosed
	}

	// Snapshot the range up front; bbolt read transactions must not outlive
	// the iterator in caller hands.
	var keys, values [][]byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(recordsBucket).Cursor()

		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			keyCopy := make([]byte, len(k))
			copy(keyCopy, k)
			valCopy := make([]byte, len(v))
			copy(valCopy, v)
			keys = append(keys, keyCopy)
			values = append(values, valCopy)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sliceIterator{keys: keys, values: values}, nil
}

func (b *BBoltDB) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// sliceIterator walks a pre-collected range. Shared by the bbolt and memory
// backends.
type sliceIterator struct {
	keys   [][]byte
	values [][]byte
	pos    int
}

func (it *sliceIterator) Next() bool {
	if it.pos >= len(it.keys) {
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Key() []byte {
	if it.pos == 0 || it.pos > len(it.keys) {
		return nil
	}
	return it.keys[it.pos-1]
}

func (it *sliceIterator) Value() []byte {
	if it.pos == 0 || it.pos > len(it.values) {
		return nil
	}
	return it.values[it.pos-1]
}

func (it *sliceIterator) Error() error { return nil }
func (it *sliceIterator) Close() error { return nil }
