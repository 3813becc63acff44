// Package recorddb persists ledger records to a key-value database so a node
// can rebuild its in-memory store on restart. Records are msgpack-encoded,
// optionally compressed, and keyed by type prefix.
package recorddb

import (
	"context"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/storage/keyvaluedb"
)

const (
	certificatePrefix = "cert/"
	walletPrefix      = "wallet/"
	orderPrefix       = "order/"
)

// RecordDB writes committed change sets to a keyvaluedb backend and reloads
// them at startup.
type RecordDB struct {
	db     keyvaluedb.DB
	comp   Compressor
	handle codec.Handle
}

// New wraps db with the given compressor name ("none" or "lz4").
func New(db keyvaluedb.DB, compression string) (*RecordDB, error) {
	comp, err := NewCompressor(compression)
	if err != nil {
		return nil, err
	}
	return &RecordDB{
		db:     db,
		comp:   comp,
		handle: &codec.MsgpackHandle{},
	}, nil
}

// Persist writes every mutation in the change set as a single batch. A change
// set is the unit of atomicity in the store, so it must also be the unit of
// atomicity on disk.
func (r *RecordDB) Persist(changes *ledger.ChangeSet) error {
	if changes == nil || changes.Empty() {
		return nil
	}

	var ops []keyvaluedb.BatchOperation
	for id, cert := range changes.Certificates {
		value, err := r.encode(cert)
		if err != nil {
			return fmt.Errorf("encode certificate %s: %w", id, err)
		}
		ops = append(ops, keyvaluedb.BatchOperation{
			Type: keyvaluedb.BatchPut, Key: []byte(certificatePrefix + id), Value: value,
		})
	}
	for id, wallet := range changes.Wallets {
		value, err := r.encode(wallet)
		if err != nil {
			return fmt.Errorf("encode wallet %s: %w", id, err)
		}
		ops = append(ops, keyvaluedb.BatchOperation{
			Type: keyvaluedb.BatchPut, Key: []byte(walletPrefix + id), Value: value,
		})
	}
	for id, order := range changes.Orders {
		value, err := r.encode(order)
		if err != nil {
			return fmt.Errorf("encode order %s: %w", id, err)
		}
		ops = append(ops, keyvaluedb.BatchOperation{
			Type: keyvaluedb.BatchPut, Key: []byte(orderPrefix + id), Value: value,
		})
	}
	for _, id := range changes.DeletedOrders {
		ops = append(ops, keyvaluedb.BatchOperation{
			Type: keyvaluedb.BatchDelete, Key: []byte(orderPrefix + id),
		})
	}

	return r.db.Batch(context.Background(), ops)
}

// Load reads every persisted record into the store. Called once at startup
// before the engine accepts transactions.
func (r *RecordDB) Load(store *ledger.Store) error {
	changes := ledger.NewChangeSet()

	err := r.scan(certificatePrefix, func(id string, value []byte) error {
		var cert ledger.Certificate
		if err := r.decode(value, &cert); err != nil {
			return fmt.Errorf("decode certificate %s: %w", id, err)
		}
		changes.Certificates[id] = cert
		return nil
	})
	if err != nil {
		return err
	}

	err = r.scan(walletPrefix, func(id string, value []byte) error {
		var wallet ledger.Wallet
		if err := r.decode(value, &wallet); err != nil {
			return fmt.Errorf("decode wallet %s: %w", id, err)
		}
		changes.Wallets[id] = wallet
		return nil
	})
	if err != nil {
		return err
	}

	err = r.scan(orderPrefix, func(id string, value []byte) error {
		var order ledger.Order
		if err := r.decode(value, &order); err != nil {
			return fmt.Errorf("decode order %s: %w", id, err)
		}
		changes.Orders[id] = order
		return nil
	})
	if err != nil {
		return err
	}

	store.Commit(changes)
	return nil
}

// Close closes the underlying database.
func (r *RecordDB) Close() error {
	return r.db.Close()
}

func (r *RecordDB) scan(prefix string, fn func(id string, value []byte) error) error {
	start := []byte(prefix)
	end := prefixEnd(start)

	iter, err := r.db.Iterator(context.Background(), start, end)
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.Next() {
		id := string(iter.Key()[len(prefix):])
		if err := fn(id, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (r *RecordDB) encode(record any) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, r.handle).Encode(record); err != nil {
		return nil, err
	}
	return r.comp.Compress(buf)
}

func (r *RecordDB) decode(value []byte, record any) error {
	raw, err := r.comp.Decompress(value)
	if err != nil {
		return err
	}
	return codec.NewDecoderBytes(raw, r.handle).Decode(record)
}

// prefixEnd returns the smallest key greater than every key with the given
// prefix, for use as an exclusive iterator upper bound.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
