package issuance

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/bank"
	"trovechain/native/decmath"
)

type memState struct {
	state  *State
	minted map[common.Address]*uint256.Int
}

func (m *memState) IssuanceState() (*State, error) { return m.state.Clone(), nil }

func (m *memState) PutIssuanceState(state *State) error {
	m.state = state.Clone()
	return nil
}

func (m *memState) Mint(token bank.Token, to common.Address, amount *uint256.Int) error {
	if m.minted == nil {
		m.minted = make(map[common.Address]*uint256.Int)
	}
	m.minted[to] = decmath.Clone(amount)
	return nil
}

func TestIssuanceFollowsYearlyHalving(t *testing.T) {
	factor := decmath.MustParse("999998681227695000")
	schedule, err := NewSchedule(decmath.Units(32_000_000), factor)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	state := &memState{}
	now := time.Unix(1_700_000_000, 0)
	schedule.SetState(state)
	schedule.SetTokens(state)
	schedule.SetClock(func() time.Time { return now })

	if err := schedule.Genesis(); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if !state.minted[bank.CommunityIssuance].Eq(decmath.Units(32_000_000)) {
		t.Fatalf("expected full supply minted, got %v", state.minted[bank.CommunityIssuance])
	}
	issued, err := schedule.Issue()
	if err != nil || !issued.IsZero() {
		t.Fatalf("expected nothing at genesis, got %v %v", issued, err)
	}

	now = now.Add(365 * 24 * time.Hour)
	issued, err = schedule.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Half the supply is released in the first year, within 0.01%.
	half := decmath.Units(16_000_000)
	if decmath.Diff(issued, half).Gt(decmath.Units(1_600)) {
		t.Fatalf("expected about 16M after a year, got %s", decmath.Format(issued))
	}

	again, err := schedule.Issue()
	if err != nil || !again.IsZero() {
		t.Fatalf("expected no new issuance within the same minute, got %v %v", again, err)
	}
	total, _ := schedule.TotalIssued()
	if !total.Eq(issued) {
		t.Fatalf("total issued %s does not match released %s", total, issued)
	}
}

func TestNewScheduleValidation(t *testing.T) {
	if _, err := NewSchedule(new(uint256.Int), decmath.Frac(1, 2)); err == nil {
		t.Fatalf("expected zero supply rejection")
	}
	if _, err := NewSchedule(decmath.Units(1), decmath.One()); err == nil {
		t.Fatalf("expected factor rejection")
	}
}

func TestCopyKeepsCurveButNotBindings(t *testing.T) {
	schedule, err := NewSchedule(decmath.Units(1_000), decmath.MustParse("999998681227695000"))
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	schedule.SetState(&memState{})
	cp := schedule.Copy()
	if cp.SupplyCap().Cmp(decmath.Units(1_000)) != 0 {
		t.Fatalf("copy lost supply cap: %s", cp.SupplyCap())
	}
	if err := cp.Genesis(); err != errNilState {
		t.Fatalf("expected unbound copy, got %v", err)
	}
}
