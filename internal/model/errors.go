package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrLookup     = errors.New("photo key lookup failed")
)

// LookupKind classifies why resolving photo keys failed.
type LookupKind int

const (
	LookupEmptyResult LookupKind = iota + 1
	LookupMalformedRow
	LookupStoreUnavailable
)

func (k LookupKind) String() string {
	switch k {
	case LookupEmptyResult:
		return "empty_result"
	case LookupMalformedRow:
		return "malformed_row"
	case LookupStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// LookupError is returned when photo keys cannot be resolved.
// Row is 1-indexed and only set for LookupMalformedRow.
type LookupError struct {
	Kind      LookupKind
	Row       int
	Attribute string
	Err       error
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case LookupEmptyResult:
		return "no photos matched the request"
	case LookupMalformedRow:
		return fmt.Sprintf("row %d is missing %s", e.Row, e.Attribute)
	default:
		return "failed to look up photo keys"
	}
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

func (e *LookupError) Unwrap() error { return e.Err }

// NewValidationError wraps ErrValidation with a field-specific message.
func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, message)
}
