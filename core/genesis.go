package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/core/state"
	"trovechain/native/bank"
)

// Allocation funds an account at genesis.
type Allocation struct {
	Owner      common.Address
	Collateral *uint256.Int
}

// Genesis initialises the ledger: schema version, sorted list capacity, fee
// clock, the reward token supply and the initial collateral allocations. It
// is a no-op when the ledger was already initialised.
func (s *System) Genesis(ctx context.Context, allocs []Allocation) error {
	if err := s.state.EnsureStateVersion(); err != nil {
		return err
	}
	err := s.execute(ctx, "genesis", false, nil, func(m *modules) error {
		existing, err := m.tx.TroveGlobals()
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		if err := m.list.Init(s.cfg.ListMaxSize); err != nil {
			return err
		}
		if err := m.troves.Genesis(); err != nil {
			return err
		}
		if err := m.issuance.Genesis(); err != nil {
			return err
		}
		for _, alloc := range allocs {
			if alloc.Collateral == nil || alloc.Collateral.IsZero() {
				continue
			}
			if err := m.ledger.Mint(bank.TokenCollateral, alloc.Owner, alloc.Collateral); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("ledger genesis", "allocations", len(allocs))
	return nil
}

// Initialized reports whether Genesis has run.
func (s *System) Initialized() (bool, error) {
	var ok bool
	err := s.state.View(func(tx *state.Tx) error {
		g, err := tx.TroveGlobals()
		ok = g != nil
		return err
	})
	return ok, err
}

// Faucet mints collateral to owner. It backs development deployments and
// tests; production configurations disable it via the "bank.faucet" pause.
func (s *System) Faucet(ctx context.Context, owner common.Address, amount *uint256.Int) error {
	return s.execute(ctx, "faucet", false, nil, func(m *modules) error {
		if s.pauses.IsPaused("bank") || s.pauses.IsPaused("bank.faucet") {
			return errFaucetDisabled
		}
		if amount == nil || amount.IsZero() {
			return errZeroFaucet
		}
		return m.ledger.Mint(bank.TokenCollateral, owner, amount)
	})
}
