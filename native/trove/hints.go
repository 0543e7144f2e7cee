package trove

import (
	"encoding/binary"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"trovechain/native/decmath"
)

// Sampler draws uniform indexes for the approximate hint search.
// *math/rand/v2.Rand satisfies it.
type Sampler interface {
	Uint64N(n uint64) uint64
}

// KeccakSampler derives a deterministic index sequence by repeatedly hashing
// a seed, so hint searches can be reproduced from the seed alone.
type KeccakSampler struct {
	seed common.Hash
}

// NewKeccakSampler seeds the sampler.
func NewKeccakSampler(seed uint64) *KeccakSampler {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)
	return &KeccakSampler{seed: crypto.Keccak256Hash(buf[:])}
}

// Seed returns the latest seed of the chain.
func (s *KeccakSampler) Seed() common.Hash { return s.seed }

func (s *KeccakSampler) Uint64N(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	s.seed = crypto.Keccak256Hash(s.seed.Bytes())
	v := new(uint256.Int).SetBytes32(s.seed.Bytes())
	return new(uint256.Int).Mod(v, uint256.NewInt(n)).Uint64()
}

// DefaultHintTrials returns 15*sqrt(n), capped by the configured limit.
func (e *Engine) DefaultHintTrials(n uint64) uint64 {
	trials := uint64(15 * math.Sqrt(float64(n)))
	if trials == 0 {
		trials = 1
	}
	if limit := e.limits.MaxHintTrials; limit > 0 && trials > limit {
		trials = limit
	}
	return trials
}

// ApproxHint samples positions from the owner array and returns the one
// whose NICR is closest to nicr, starting from the tail of the list. The
// result seeds FindInsertPosition.
func (e *Engine) ApproxHint(nicr *uint256.Int, trials uint64, sampler Sampler) (common.Address, *uint256.Int, error) {
	if e == nil || e.state == nil {
		return common.Address{}, nil, errNilState
	}
	if e.list == nil {
		return common.Address{}, nil, errNilList
	}
	count, err := e.state.TroveOwnerCount()
	if err != nil {
		return common.Address{}, nil, err
	}
	if count == 0 {
		return common.Address{}, new(uint256.Int), nil
	}
	if trials == 0 {
		trials = e.DefaultHintTrials(count)
	}
	if limit := e.limits.MaxHintTrials; limit > 0 && trials > limit {
		trials = limit
	}
	hint, err := e.list.Last()
	if err != nil {
		return common.Address{}, nil, err
	}
	hintNICR, err := e.NominalICR(hint)
	if err != nil {
		return common.Address{}, nil, err
	}
	diff := decmath.Diff(hintNICR, nicr)
	for i := uint64(1); i < trials; i++ {
		owner, err := e.state.TroveOwnerAt(sampler.Uint64N(count))
		if err != nil {
			return common.Address{}, nil, err
		}
		current, err := e.NominalICR(owner)
		if err != nil {
			return common.Address{}, nil, err
		}
		if d := decmath.Diff(current, nicr); d.Lt(diff) {
			diff = d
			hint = owner
		}
	}
	return hint, diff, nil
}

// InsertHints returns the neighbours a position with nicr would be
// inserted between, using an approximate hint to bound the walk.
func (e *Engine) InsertHints(nicr *uint256.Int, trials uint64, sampler Sampler) (common.Address, common.Address, error) {
	hint, _, err := e.ApproxHint(nicr, trials, sampler)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return e.list.FindInsertPosition(nicr, hint, hint)
}

// RedemptionHints simulates a redemption of amount at price and returns the
// first position to redeem from, the NICR the last partially redeemed
// position would end at and the amount that can actually be redeemed.
func (e *Engine) RedemptionHints(amount, price *uint256.Int, maxIterations uint64) (*RedemptionHints, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := requirePrice(price); err != nil {
		return nil, err
	}
	amount = decmath.Clone(amount)
	remaining := decmath.Clone(amount)
	current, err := e.firstAboveMCR(price)
	if err != nil {
		return nil, err
	}
	hints := &RedemptionHints{FirstHint: current, PartialNICR: new(uint256.Int)}
	iterations := maxIterations
	if iterations == 0 {
		iterations = ^uint64(0)
	}
	gasComp := e.params.GasCompensation
	for current != (common.Address{}) && !remaining.IsZero() && iterations > 0 {
		iterations--
		_, coll, debt, err := e.entirePosition(current)
		if err != nil {
			return nil, err
		}
		netDebt := decmath.Sub(debt, gasComp)
		if netDebt.Gt(remaining) {
			if netDebt.Gt(e.params.MinNetDebt) {
				redeemable := decmath.Min(remaining, decmath.Sub(netDebt, e.params.MinNetDebt))
				newColl := decmath.Sub(coll, decmath.MulDiv(redeemable, decmath.One(), price))
				newDebt := decmath.Add(decmath.Sub(netDebt, redeemable), gasComp)
				hints.PartialNICR = decmath.ComputeNominalCR(newColl, newDebt)
				remaining = decmath.Sub(remaining, redeemable)
			}
			break
		}
		remaining = decmath.Sub(remaining, netDebt)
		if current, err = e.list.Prev(current); err != nil {
			return nil, err
		}
	}
	hints.TruncatedAmount = decmath.Sub(amount, remaining)
	return hints, nil
}
