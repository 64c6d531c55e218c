package pool

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes pool failures.
type ErrorCode string

const (
	// ErrCodeStoreFailure indicates an open, read, write or commit failure of the store.
	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"

	// ErrCodeCorruptedData indicates persisted bytes that fail to decode.
	ErrCodeCorruptedData ErrorCode = "CORRUPTED_DATA"

	// ErrCodeCorruptedHash indicates a persisted pool hash of the wrong length.
	ErrCodeCorruptedHash ErrorCode = "CORRUPTED_HASH"

	// ErrCodeHashMismatch indicates that the persisted hash differs from the
	// hash recomputed over the stored entries, or from a peer's hash.
	ErrCodeHashMismatch ErrorCode = "HASH_MISMATCH"
)

// Error is returned by every Pool operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the pool operation that failed.
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Op)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal returns true if err wraps a pool Error. All pool errors are fatal:
// the caller must stop processing slots rather than continue on divergent state.
func IsFatal(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// IsHashMismatch returns true if err wraps a HASH_MISMATCH pool error.
func IsHashMismatch(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeHashMismatch
	}
	return false
}

func storeErr(op string, err error) *Error {
	return &Error{Code: ErrCodeStoreFailure, Op: op, Err: err}
}

func corruptErr(op string, err error) *Error {
	return &Error{Code: ErrCodeCorruptedData, Op: op, Err: err}
}
