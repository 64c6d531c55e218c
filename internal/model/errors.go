package model

import (
	"errors"
	"fmt"
)

// CodecErrorCode categorizes codec failures.
type CodecErrorCode string

const (
	// ErrCodeMalformedData indicates bytes that violate the canonical layout,
	// an embedded bound or a field range.
	ErrCodeMalformedData CodecErrorCode = "MALFORMED_DATA"
)

// CodecError is returned by every decoder in this package.
//
// Only self-produced or upstream-validated bytes should reach the codec, so
// callers treat a CodecError as fatal.
type CodecError struct {
	Code    CodecErrorCode
	Field   string
	Message string
	Offset  int
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s (offset=%d)", e.Code, e.Field, e.Message, e.Offset)
	}
	return fmt.Sprintf("%s: %s (offset=%d)", e.Code, e.Message, e.Offset)
}

// IsMalformed returns true if err wraps a MalformedData codec error.
func IsMalformed(err error) bool {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeMalformedData
	}
	return false
}

func malformed(field string, offset int, format string, args ...any) *CodecError {
	return &CodecError{
		Code:    ErrCodeMalformedData,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}
