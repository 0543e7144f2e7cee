package bank

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	nativecommon "trovechain/native/common"
	"trovechain/native/decmath"
)

// Token identifies one of the assets tracked by the ledger.
type Token string

const (
	// TokenCollateral is the native collateral asset.
	TokenCollateral Token = "COLL"
	// TokenStable is the system stablecoin minted against collateral.
	TokenStable Token = "TUSD"
	// TokenReward is the protocol reward token paid to pool depositors.
	TokenReward Token = "TRWD"
)

// Valid reports whether t is a known token.
func (t Token) Valid() bool {
	switch t {
	case TokenCollateral, TokenStable, TokenReward:
		return true
	default:
		return false
	}
}

// Module accounts hold protocol owned balances.
var (
	ActivePool        = ModuleAddress("active-pool")
	DefaultPool       = ModuleAddress("default-pool")
	StabilityPool     = ModuleAddress("stability-pool")
	GasPool           = ModuleAddress("gas-pool")
	CollSurplusPool   = ModuleAddress("coll-surplus-pool")
	StakingPool       = ModuleAddress("staking-pool")
	CommunityIssuance = ModuleAddress("community-issuance")
)

// ModuleAddress derives the deterministic account of a protocol module.
func ModuleAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("trovechain/module/" + name))[12:])
}

var (
	errNilState            = errors.New("bank: state not configured")
	ErrUnknownToken        = nativecommon.NewError(nativecommon.KindInvalidOperation, "bank: unknown token")
	ErrInsufficientBalance = nativecommon.NewError(nativecommon.KindPreconditionFailed, "bank: insufficient balance")
	ErrSelfTransfer        = nativecommon.NewError(nativecommon.KindInvalidOperation, "bank: transfer to self")
)

type ledgerState interface {
	TokenBalance(token Token, owner common.Address) (*uint256.Int, error)
	PutTokenBalance(token Token, owner common.Address, amount *uint256.Int) error
	TokenSupply(token Token) (*uint256.Int, error)
	PutTokenSupply(token Token, amount *uint256.Int) error
}

// Ledger moves balances between accounts. Protocol code treats every
// authorised transfer as infallible: any error aborts the whole operation.
type Ledger struct {
	state ledgerState
}

// NewLedger constructs a ledger bound to the supplied state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

// SetState rebinds the ledger to a different state view.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// BalanceOf returns the balance of owner in token.
func (l *Ledger) BalanceOf(token Token, owner common.Address) (*uint256.Int, error) {
	if err := l.check(token); err != nil {
		return nil, err
	}
	return l.balance(token, owner)
}

// TotalSupply returns the circulating supply of token.
func (l *Ledger) TotalSupply(token Token) (*uint256.Int, error) {
	if err := l.check(token); err != nil {
		return nil, err
	}
	supply, err := l.state.TokenSupply(token)
	if err != nil {
		return nil, err
	}
	return decmath.Clone(supply), nil
}

// Transfer moves amount of token from one account to another. Zero amounts
// are accepted and leave state untouched.
func (l *Ledger) Transfer(token Token, from, to common.Address, amount *uint256.Int) error {
	if err := l.check(token); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return nil
	}
	if from == to {
		return ErrSelfTransfer
	}
	fromBal, err := l.balance(token, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientBalance, from.Hex(),
			decmath.Format(fromBal), token, decmath.Format(amount))
	}
	toBal, err := l.balance(token, to)
	if err != nil {
		return err
	}
	if err := l.state.PutTokenBalance(token, from, decmath.Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.state.PutTokenBalance(token, to, decmath.Add(toBal, amount))
}

// Mint credits amount of token to the account and grows the supply.
func (l *Ledger) Mint(token Token, to common.Address, amount *uint256.Int) error {
	if err := l.check(token); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return nil
	}
	supply, err := l.state.TokenSupply(token)
	if err != nil {
		return err
	}
	bal, err := l.balance(token, to)
	if err != nil {
		return err
	}
	if err := l.state.PutTokenSupply(token, decmath.Add(decmath.Clone(supply), amount)); err != nil {
		return err
	}
	return l.state.PutTokenBalance(token, to, decmath.Add(bal, amount))
}

// Burn debits amount of token from the account and shrinks the supply.
func (l *Ledger) Burn(token Token, from common.Address, amount *uint256.Int) error {
	if err := l.check(token); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return nil
	}
	bal, err := l.balance(token, from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s %s, burning %s", ErrInsufficientBalance, from.Hex(),
			decmath.Format(bal), token, decmath.Format(amount))
	}
	supply, err := l.state.TokenSupply(token)
	if err != nil {
		return err
	}
	if err := l.state.PutTokenBalance(token, from, decmath.Sub(bal, amount)); err != nil {
		return err
	}
	return l.state.PutTokenSupply(token, decmath.Sub(decmath.Clone(supply), amount))
}

func (l *Ledger) check(token Token) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if !token.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	return nil
}

func (l *Ledger) balance(token Token, owner common.Address) (*uint256.Int, error) {
	bal, err := l.state.TokenBalance(token, owner)
	if err != nil {
		return nil, err
	}
	return decmath.Clone(bal), nil
}
