package issuance

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	"trovechain/native/decmath"
)

var (
	errNilState   = errors.New("issuance: state not configured")
	errNilClock   = errors.New("issuance: clock not configured")
	errNilTokens  = errors.New("issuance: token ledger not configured")
	errBadFactor  = errors.New("issuance: factor must be below one unit")
	errZeroSupply = errors.New("issuance: supply cap must be positive")
)

// State is the persisted progress of the issuance schedule.
type State struct {
	Genesis     uint64
	TotalIssued *uint256.Int
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{Genesis: s.Genesis, TotalIssued: decmath.Clone(s.TotalIssued)}
}

type scheduleState interface {
	IssuanceState() (*State, error)
	PutIssuanceState(state *State) error
}

type minter interface {
	Mint(token bank.Token, to common.Address, amount *uint256.Int) error
}

// Schedule releases a fixed supply of reward tokens along an exponentially
// decaying curve: after m minutes, cap*(1 - factor^m) has been issued.
type Schedule struct {
	state     scheduleState
	tokens    minter
	now       func() time.Time
	supplyCap *uint256.Int
	factor    *uint256.Int
}

// NewSchedule validates the curve parameters.
func NewSchedule(supplyCap, factor *uint256.Int) (*Schedule, error) {
	if supplyCap == nil || supplyCap.IsZero() {
		return nil, errZeroSupply
	}
	if factor == nil || !factor.Lt(decmath.One()) {
		return nil, errBadFactor
	}
	return &Schedule{supplyCap: decmath.Clone(supplyCap), factor: decmath.Clone(factor)}, nil
}

// Copy returns an unbound schedule with the same curve.
func (s *Schedule) Copy() *Schedule {
	return &Schedule{supplyCap: s.supplyCap, factor: s.factor}
}

// SetState wires the schedule to the external persistence layer.
func (s *Schedule) SetState(state scheduleState) { s.state = state }

// SetTokens configures the ledger used to mint the supply at genesis.
func (s *Schedule) SetTokens(tokens minter) { s.tokens = tokens }

// SetClock injects the time source.
func (s *Schedule) SetClock(now func() time.Time) { s.now = now }

// SupplyCap returns the total amount the schedule will ever release.
func (s *Schedule) SupplyCap() *uint256.Int { return decmath.Clone(s.supplyCap) }

// Genesis starts the curve at the current time and mints the full supply
// into the issuance account. Calling it again is a no-op.
func (s *Schedule) Genesis() error {
	if s.state == nil {
		return errNilState
	}
	if s.now == nil {
		return errNilClock
	}
	if s.tokens == nil {
		return errNilTokens
	}
	current, err := s.state.IssuanceState()
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	if err := s.tokens.Mint(bank.TokenReward, bank.CommunityIssuance, s.supplyCap); err != nil {
		return err
	}
	return s.state.PutIssuanceState(&State{
		Genesis:     uint64(s.now().Unix()),
		TotalIssued: new(uint256.Int),
	})
}

// Issue returns the tokens released since the previous call and records
// them as issued. Before genesis nothing is released.
func (s *Schedule) Issue() (*uint256.Int, error) {
	if s.state == nil {
		return nil, errNilState
	}
	if s.now == nil {
		return nil, errNilClock
	}
	current, err := s.state.IssuanceState()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return new(uint256.Int), nil
	}
	latest := s.cumulativeAt(current.Genesis, uint64(s.now().Unix()))
	issued := decmath.Clone(current.TotalIssued)
	if !latest.Gt(issued) {
		return new(uint256.Int), nil
	}
	released := decmath.Sub(latest, issued)
	next := current.Clone()
	next.TotalIssued = latest
	if err := s.state.PutIssuanceState(next); err != nil {
		return nil, err
	}
	return released, nil
}

// TotalIssued reports the amount released so far.
func (s *Schedule) TotalIssued() (*uint256.Int, error) {
	if s.state == nil {
		return nil, errNilState
	}
	current, err := s.state.IssuanceState()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return new(uint256.Int), nil
	}
	return decmath.Clone(current.TotalIssued), nil
}

func (s *Schedule) cumulativeAt(genesis, now uint64) *uint256.Int {
	if now <= genesis {
		return new(uint256.Int)
	}
	minutes := (now - genesis) / 60
	remaining := decmath.Pow(s.factor, minutes)
	fraction := decmath.Sub(decmath.One(), decmath.Min(remaining, decmath.One()))
	return decmath.MulFrac(s.supplyCap, fraction)
}
