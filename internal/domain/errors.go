package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidRange = errors.New("invalid range")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError carries every violated constraint; errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RangeError describes which input made a range unusable.
type RangeError struct {
	Reason string
}

func (e *RangeError) Error() string { return ErrInvalidRange.Error() + ": " + e.Reason }

func (e *RangeError) Is(target error) bool { return target == ErrInvalidRange }

func InvalidRange(reason string) error { return &RangeError{Reason: reason} }
