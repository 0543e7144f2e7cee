package state

import (
	"errors"
	"fmt"

	"trovechain/storage"
)

var errNilManager = errors.New("state: manager unavailable")

// Manager owns the committed ledger state. All writes go through a Tx so a
// failed operation never leaves partial state behind.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens a write overlay on top of the committed state.
func (m *Manager) Begin() *Tx {
	return &Tx{db: m.db, writes: make(map[string][]byte)}
}

// View runs fn against a throwaway overlay. Writes made by fn are dropped.
func (m *Manager) View(fn func(tx *Tx) error) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	tx := m.Begin()
	defer tx.Discard()
	return fn(tx)
}

// Update runs fn inside a transaction and commits it when fn succeeds.
func (m *Manager) Update(fn func(tx *Tx) error) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	tx := m.Begin()
	if err := fn(tx); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}
