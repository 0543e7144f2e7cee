package core

import nativecommon "trovechain/native/common"

var (
	errFaucetDisabled = nativecommon.NewError(nativecommon.KindPreconditionFailed, "core: faucet disabled")
	errZeroFaucet     = nativecommon.NewError(nativecommon.KindPreconditionFailed, "core: faucet amount must be positive")

	// ErrInvalidSearchSteps rejects an unbounded sorted list search.
	ErrInvalidSearchSteps = nativecommon.NewError(nativecommon.KindInvalidOperation, "core: max search steps must be positive")

	// ErrPageTooLarge is returned when a list page exceeds the query cap.
	ErrPageTooLarge = nativecommon.NewError(nativecommon.KindResourceExhausted, "core: page size exceeds limit")
)
