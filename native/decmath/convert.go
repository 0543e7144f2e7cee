package decmath

import (
	"errors"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	errNegative     = errors.New("decmath: negative amounts are not representable")
	errTooPrecise   = errors.New("decmath: more than 18 fractional digits")
	errOutOfRange   = errors.New("decmath: amount exceeds 256 bits")
	errEmptyDecimal = errors.New("decmath: empty amount")
)

// ToDecimal renders a fixed-point value as a human readable decimal.
func ToDecimal(x *uint256.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x.ToBig(), -Decimals)
}

// Format renders x with its natural number of fractional digits, e.g. "1.1".
func Format(x *uint256.Int) string {
	if IsInfinite(x) {
		return "inf"
	}
	return ToDecimal(x).String()
}

// FromDecimal converts a decimal into fixed point, rejecting negative values
// and values carrying sub-wei precision.
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if d.Sign() < 0 {
		return nil, errNegative
	}
	shifted := d.Shift(Decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, errTooPrecise
	}
	value, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, errOutOfRange
	}
	return value, nil
}

// Parse converts a decimal string such as "1800.5" into fixed point.
func Parse(raw string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errEmptyDecimal
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, err
	}
	return FromDecimal(d)
}
