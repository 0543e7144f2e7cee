package common

import (
	"errors"
	"sync"
)

// Kind classifies ledger failures so callers can decide whether to retry with
// different parameters or abandon the operation.
type Kind string

const (
	KindUnknown            Kind = "unknown"
	KindInvalidOperation   Kind = "invalid_operation"
	KindResourceExhausted  Kind = "resource_exhausted"
	KindPreconditionFailed Kind = "precondition_failed"
	KindArithmetic         Kind = "arithmetic"
)

var (
	kindsMu sync.RWMutex
	kinds   = make(map[error]Kind)
)

// NewError creates a sentinel error and records its kind.
func NewError(kind Kind, msg string) error {
	err := errors.New(msg)
	kindsMu.Lock()
	kinds[err] = kind
	kindsMu.Unlock()
	return err
}

// ErrArithmetic marks failures raised by fixed-point arithmetic.
var ErrArithmetic = NewError(KindArithmetic, "arithmetic failure")

// KindOf walks the wrap chain of err and returns the kind of the first
// registered sentinel it finds.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	return kindOfLocked(err)
}

func kindOfLocked(err error) Kind {
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if kind, ok := kinds[cur]; ok {
			return kind
		}
		if joined, ok := cur.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				if kind := kindOfLocked(inner); kind != KindUnknown {
					return kind
				}
			}
		}
	}
	return KindUnknown
}
