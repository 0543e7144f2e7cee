package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"trovechain/storage"
)

// ErrTxClosed is returned when a committed or discarded transaction is used.
var ErrTxClosed = errors.New("state: transaction closed")

// Tx buffers writes over the committed state. Reads observe the buffered
// writes first. A nil buffered value marks a deletion.
type Tx struct {
	db     storage.Database
	writes map[string][]byte
	closed bool
}

func (tx *Tx) get(key []byte) ([]byte, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	hashed := hashedKey(key)
	if value, ok := tx.writes[string(hashed)]; ok {
		return value, nil
	}
	value, err := tx.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

// KVPut stores the rlp encoding of value under key.
func (tx *Tx) KVPut(key []byte, value interface{}) error {
	if tx.closed {
		return ErrTxClosed
	}
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	tx.writes[string(hashedKey(key))] = encoded
	return nil
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key existed.
func (tx *Tx) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := tx.get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes key.
func (tx *Tx) KVDelete(key []byte) error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.writes[string(hashedKey(key))] = nil
	return nil
}

// Pending reports the number of buffered writes.
func (tx *Tx) Pending() int { return len(tx.writes) }

// Commit applies every buffered write in a single storage batch.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true
	if len(tx.writes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tx.writes))
	for k := range tx.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := tx.db.NewBatch()
	for _, k := range keys {
		if value := tx.writes[k]; value == nil {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), value)
		}
	}
	tx.writes = nil
	return batch.Write()
}

// Discard drops the buffered writes. It is safe to call after Commit.
func (tx *Tx) Discard() {
	tx.closed = true
	tx.writes = nil
}
