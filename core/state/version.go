package state

import (
	"errors"
	"fmt"
	"math"
)

// StateVersion identifies the expected on-disk schema layout. Increment it
// whenever the stored structure changes incompatibly.
const StateVersion uint32 = 1

var (
	stateVersionKey = []byte("state/version")
	// ErrStateVersionMismatch indicates the stored schema version does not
	// match the version supported by the current binary.
	ErrStateVersionMismatch = errors.New("state: schema version mismatch")
)

// SetStateVersion records the provided schema version.
func (tx *Tx) SetStateVersion(version uint32) error {
	return tx.KVPut(stateVersionKey, uint64(version))
}

// StateVersion returns the stored schema version and whether it was present.
func (tx *Tx) StateVersion() (uint32, bool, error) {
	var stored uint64
	ok, err := tx.KVGet(stateVersionKey, &stored)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	if stored > uint64(math.MaxUint32) {
		return 0, false, fmt.Errorf("state: schema version overflow: %d", stored)
	}
	return uint32(stored), true, nil
}

// EnsureStateVersion verifies that the stored schema matches this binary.
// A database without a version is stamped with the current one.
func (m *Manager) EnsureStateVersion() error {
	return m.Update(func(tx *Tx) error {
		version, ok, err := tx.StateVersion()
		if err != nil {
			return err
		}
		if !ok {
			return tx.SetStateVersion(StateVersion)
		}
		if version != StateVersion {
			return fmt.Errorf("%w: on-disk=%d expected=%d", ErrStateVersionMismatch, version, StateVersion)
		}
		return nil
	})
}
