package bank

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/decmath"
)

type memLedger struct {
	balances map[Token]map[common.Address]*uint256.Int
	supply   map[Token]*uint256.Int
}

func newMemLedger() *memLedger {
	return &memLedger{
		balances: make(map[Token]map[common.Address]*uint256.Int),
		supply:   make(map[Token]*uint256.Int),
	}
}

func (m *memLedger) TokenBalance(token Token, owner common.Address) (*uint256.Int, error) {
	return m.balances[token][owner], nil
}

func (m *memLedger) PutTokenBalance(token Token, owner common.Address, amount *uint256.Int) error {
	if m.balances[token] == nil {
		m.balances[token] = make(map[common.Address]*uint256.Int)
	}
	m.balances[token][owner] = amount
	return nil
}

func (m *memLedger) TokenSupply(token Token) (*uint256.Int, error) { return m.supply[token], nil }

func (m *memLedger) PutTokenSupply(token Token, amount *uint256.Int) error {
	m.supply[token] = amount
	return nil
}

func TestMintTransferBurn(t *testing.T) {
	ledger := NewLedger(newMemLedger())
	alice := common.HexToAddress("0x01")

	if err := ledger.Mint(TokenStable, alice, decmath.Units(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(TokenStable, alice, StabilityPool, decmath.Units(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := ledger.Burn(TokenStable, StabilityPool, decmath.Units(15)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	bal, _ := ledger.BalanceOf(TokenStable, alice)
	if !bal.Eq(decmath.Units(60)) {
		t.Fatalf("unexpected alice balance %s", decmath.Format(bal))
	}
	pool, _ := ledger.BalanceOf(TokenStable, StabilityPool)
	if !pool.Eq(decmath.Units(25)) {
		t.Fatalf("unexpected pool balance %s", decmath.Format(pool))
	}
	supply, _ := ledger.TotalSupply(TokenStable)
	if !supply.Eq(decmath.Units(85)) {
		t.Fatalf("unexpected supply %s", decmath.Format(supply))
	}
}

func TestTransferRejections(t *testing.T) {
	ledger := NewLedger(newMemLedger())
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")

	if err := ledger.Transfer(TokenCollateral, alice, bob, decmath.Units(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := ledger.Transfer(Token("XYZ"), alice, bob, decmath.Units(1)); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected unknown token, got %v", err)
	}
	if err := ledger.Transfer(TokenCollateral, alice, bob, new(uint256.Int)); err != nil {
		t.Fatalf("zero transfer should be a no-op: %v", err)
	}
	if err := ledger.Burn(TokenReward, alice, decmath.Units(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance on burn, got %v", err)
	}
}

func TestModuleAddressesDistinct(t *testing.T) {
	seen := map[common.Address]bool{}
	for _, addr := range []common.Address{ActivePool, DefaultPool, StabilityPool, GasPool, CollSurplusPool, StakingPool, CommunityIssuance} {
		if seen[addr] {
			t.Fatalf("duplicate module address %s", addr.Hex())
		}
		seen[addr] = true
	}
}
