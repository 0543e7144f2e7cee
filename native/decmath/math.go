package decmath

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// Decimals is the number of fractional digits carried by every amount.
	Decimals = 18
	// MaxDecayMinutes caps the exponent accepted by Pow at 1000 years.
	MaxDecayMinutes = 525_600_000
)

var (
	unit          = uint256.NewInt(1_000_000_000_000_000_000)
	halfUnit      = uint256.NewInt(500_000_000_000_000_000)
	nicrPrecision = uint256.MustFromDecimal("100000000000000000000") // 1e20
	infinity      = new(uint256.Int).SetAllOne()
)

// ArithmeticError is raised (as a panic value) when a fixed-point operation
// cannot be represented in 256 bits or divides by zero. Callers executing
// ledger transactions recover it at the transaction boundary.
type ArithmeticError struct {
	Op string
}

func (e ArithmeticError) Error() string {
	return fmt.Sprintf("decmath: arithmetic failure in %s", e.Op)
}

func fail(op string) {
	panic(ArithmeticError{Op: op})
}

// One returns a fresh copy of the fixed-point unit (1e18).
func One() *uint256.Int { return new(uint256.Int).Set(unit) }

// Zero returns a fresh zero value.
func Zero() *uint256.Int { return new(uint256.Int) }

// Infinity returns the sentinel ratio reported for positions without debt.
func Infinity() *uint256.Int { return new(uint256.Int).Set(infinity) }

// IsInfinite reports whether x equals the Infinity sentinel.
func IsInfinite(x *uint256.Int) bool { return x != nil && x.Eq(infinity) }

// NICRPrecision returns the scale applied to nominal collateral ratios (1e20).
func NICRPrecision() *uint256.Int { return new(uint256.Int).Set(nicrPrecision) }

// Units converts a whole-number amount into its fixed-point representation.
func Units(v uint64) *uint256.Int {
	return Mul(uint256.NewInt(v), unit)
}

// Frac builds the fixed-point value num/den, rounding down.
func Frac(num, den uint64) *uint256.Int {
	return MulDiv(uint256.NewInt(num), unit, uint256.NewInt(den))
}

// MustParse decodes a base-10 integer string holding a raw fixed-point value.
func MustParse(raw string) *uint256.Int {
	return uint256.MustFromDecimal(raw)
}

// Clone returns a copy of x treating nil as zero.
func Clone(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(x)
}

// Add returns x+y and fails on overflow.
func Add(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		fail("add")
	}
	return z
}

// Sub returns x-y and fails on underflow.
func Sub(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		fail("sub")
	}
	return new(uint256.Int).Sub(x, y)
}

// Mul returns x*y and fails on overflow.
func Mul(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		fail("mul")
	}
	return z
}

// Div returns floor(x/y) and fails when y is zero.
func Div(x, y *uint256.Int) *uint256.Int {
	if y.IsZero() {
		fail("div")
	}
	return new(uint256.Int).Div(x, y)
}

// MulDiv returns floor(x*y/d). The product is held at 512 bits so the only
// failure modes are a zero denominator or a quotient that needs more than 256
// bits.
func MulDiv(x, y, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		fail("muldiv")
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		fail("muldiv")
	}
	return z
}

// MulFrac scales x by the fixed-point fraction f, rounding down.
func MulFrac(x, f *uint256.Int) *uint256.Int {
	return MulDiv(x, f, unit)
}

// DivFrac returns x/y as a fixed-point fraction, rounding down.
func DivFrac(x, y *uint256.Int) *uint256.Int {
	return MulDiv(x, unit, y)
}

// DecMul multiplies two fixed-point values rounding half up. It is only used
// by Pow, where the rounding direction of each squaring step is irrelevant to
// solvency.
func DecMul(x, y *uint256.Int) *uint256.Int {
	prod := Mul(x, y)
	prod = Add(prod, halfUnit)
	return prod.Div(prod, unit)
}

// Pow raises the fixed-point base to an integer exponent by repeated
// squaring. The exponent is capped at MaxDecayMinutes.
func Pow(base *uint256.Int, n uint64) *uint256.Int {
	if n > MaxDecayMinutes {
		n = MaxDecayMinutes
	}
	if n == 0 {
		return One()
	}
	y := One()
	x := Clone(base)
	for n > 1 {
		if n%2 == 0 {
			x = DecMul(x, x)
			n /= 2
			continue
		}
		y = DecMul(x, y)
		x = DecMul(x, x)
		n = (n - 1) / 2
	}
	return DecMul(x, y)
}

// Min returns the smaller of x and y.
func Min(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return Clone(x)
	}
	return Clone(y)
}

// Max returns the larger of x and y.
func Max(x, y *uint256.Int) *uint256.Int {
	if x.Gt(y) {
		return Clone(x)
	}
	return Clone(y)
}

// Diff returns |x-y|.
func Diff(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int).Sub(y, x)
	}
	return new(uint256.Int).Sub(x, y)
}

// ComputeCR returns the collateral ratio coll*price/debt. Positions with no
// debt report Infinity instead of failing.
func ComputeCR(coll, debt, price *uint256.Int) *uint256.Int {
	if debt.IsZero() {
		return Infinity()
	}
	return MulDiv(coll, price, debt)
}

// ComputeNominalCR returns the price independent ordering key
// coll*1e20/debt, or Infinity for debt-free positions.
func ComputeNominalCR(coll, debt *uint256.Int) *uint256.Int {
	if debt.IsZero() {
		return Infinity()
	}
	return MulDiv(coll, nicrPrecision, debt)
}
