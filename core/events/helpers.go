package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"trovechain/native/decmath"
)

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return decmath.Format(v)
}

func formatAddress(a common.Address) string {
	return a.Hex()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}
