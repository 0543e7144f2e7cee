package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	"trovechain/native/decmath"
	"trovechain/native/stability"
	"trovechain/native/staking"
	"trovechain/native/trove"
)

// MaxPageSize bounds a single sorted list page.
const MaxPageSize = 500

// ListEntry is one position of the sorted list as returned by List.
type ListEntry struct {
	Owner common.Address
	NICR  *uint256.Int
}

// PoolView summarises the stability pool and the community issuance backing
// its rewards.
type PoolView struct {
	State         *stability.PoolState
	SupplyCap     *uint256.Int
	TotalIssued   *uint256.Int
	Undistributed *uint256.Int
}

// StakingView summarises the fee staking pool and the fees it holds.
type StakingView struct {
	State      *staking.PoolState
	HeldColl   *uint256.Int
	HeldStable *uint256.Int
}

// FeeRates reports the current borrowing and redemption rates after decay.
type FeeRates struct {
	BaseRate       *uint256.Int
	BorrowingRate  *uint256.Int
	RedemptionRate *uint256.Int
}

// TroveView returns owner's position including pending redistribution rewards.
func (s *System) TroveView(owner common.Address) (*trove.TroveView, error) {
	var out *trove.TroveView
	err := s.view(true, func(m *modules) error {
		var err error
		out, err = m.troves.TroveView(owner, m.price)
		return err
	})
	return out, err
}

// SystemView returns the system wide accounting at the current price.
func (s *System) SystemView() (*trove.SystemView, error) {
	var out *trove.SystemView
	err := s.view(true, func(m *modules) error {
		var err error
		out, err = m.troves.SystemView(m.price)
		return err
	})
	return out, err
}

// DepositView returns owner's compounded deposit and pending gains.
func (s *System) DepositView(owner common.Address) (*stability.View, error) {
	var out *stability.View
	err := s.view(false, func(m *modules) error {
		var err error
		out, err = m.pool.DepositView(owner)
		return err
	})
	return out, err
}

// PoolView returns the stability pool accumulators and issuance totals.
func (s *System) PoolView() (*PoolView, error) {
	out := &PoolView{}
	err := s.view(false, func(m *modules) error {
		var err error
		if out.State, err = m.pool.Pool(); err != nil {
			return err
		}
		if out.TotalIssued, err = m.issuance.TotalIssued(); err != nil {
			return err
		}
		out.SupplyCap = m.issuance.SupplyCap()
		out.Undistributed, err = m.ledger.BalanceOf(bank.TokenReward, bank.CommunityIssuance)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StakeView returns owner's reward token stake and pending fee gains.
func (s *System) StakeView(owner common.Address) (*staking.View, error) {
	var out *staking.View
	err := s.view(false, func(m *modules) error {
		var err error
		out, err = m.staking.StakeView(owner)
		return err
	})
	return out, err
}

// StakingPoolView returns the fee accumulators and the balances backing
// unclaimed gains.
func (s *System) StakingPoolView() (*StakingView, error) {
	out := &StakingView{}
	err := s.view(false, func(m *modules) error {
		var err error
		if out.State, err = m.staking.Pool(); err != nil {
			return err
		}
		if out.HeldColl, err = m.ledger.BalanceOf(bank.TokenCollateral, bank.StakingPool); err != nil {
			return err
		}
		out.HeldStable, err = m.ledger.BalanceOf(bank.TokenStable, bank.StakingPool)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Balance returns owner's balance of token.
func (s *System) Balance(token bank.Token, owner common.Address) (*uint256.Int, error) {
	var out *uint256.Int
	err := s.view(false, func(m *modules) error {
		var err error
		out, err = m.ledger.BalanceOf(token, owner)
		return err
	})
	return out, err
}

// FeeRates returns the decayed base rate and the rates derived from it.
func (s *System) FeeRates() (*FeeRates, error) {
	out := &FeeRates{}
	err := s.view(false, func(m *modules) error {
		g, err := m.tx.TroveGlobals()
		if err != nil {
			return err
		}
		if g == nil {
			g = trove.NewGlobals()
		}
		out.BaseRate = decmath.Clone(g.BaseRate)
		one := decmath.One()
		if out.BorrowingRate, err = m.troves.BorrowingFee(one); err != nil {
			return err
		}
		out.RedemptionRate, err = m.troves.RedemptionRate()
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns up to limit positions in descending NICR order, starting at
// start or at the head when start is zero.
func (s *System) List(start common.Address, limit int) ([]ListEntry, error) {
	if limit <= 0 {
		limit = MaxPageSize
	}
	if limit > MaxPageSize {
		return nil, ErrPageTooLarge
	}
	var out []ListEntry
	err := s.view(false, func(m *modules) error {
		var inner error
		err := m.list.Walk(start, limit, func(id common.Address) bool {
			nicr, err := m.troves.NominalICR(id)
			if err != nil {
				inner = err
				return false
			}
			out = append(out, ListEntry{Owner: id, NICR: nicr})
			return true
		})
		if err != nil {
			return err
		}
		return inner
	})
	return out, err
}

// RedemptionHints computes the hints a redemption of amount would need.
func (s *System) RedemptionHints(amount *uint256.Int, maxIterations uint64) (*trove.RedemptionHints, error) {
	var out *trove.RedemptionHints
	err := s.view(true, func(m *modules) error {
		var err error
		out, err = m.troves.RedemptionHints(amount, m.price, maxIterations)
		return err
	})
	return out, err
}

// InsertHints returns the neighbours a position with coll and debt would
// be inserted between.
func (s *System) InsertHints(coll, debt *uint256.Int) (common.Address, common.Address, error) {
	var prev, next common.Address
	err := s.view(false, func(m *modules) error {
		nicr := decmath.ComputeNominalCR(coll, debt)
		var err error
		prev, next, err = m.troves.InsertHints(nicr, 0, s.sampler)
		return err
	})
	return prev, next, err
}

// CheckList verifies the sorted list linkage and ordering.
func (s *System) CheckList() error {
	return s.view(false, func(m *modules) error {
		return m.list.Check()
	})
}
