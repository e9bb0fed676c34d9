package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStart indicates the range start is not a valid number for the country.
	ErrInvalidStart = errors.New("invalid start number")
	// ErrInvalidEnd indicates the range end is not a valid number for the country.
	ErrInvalidEnd = errors.New("invalid end number")
	// ErrStartAfterEnd indicates the start national number is greater than the end.
	ErrStartAfterEnd = errors.New("start number is after end number")
	// ErrUnknownCountry indicates the calling code or region cannot be resolved.
	ErrUnknownCountry = errors.New("unknown country")
	// ErrExpansionTooLarge indicates the range holds more numbers than the configured cap.
	ErrExpansionTooLarge = errors.New("range expansion too large")
	// ErrRepositoryConflict indicates a uniqueness violation that the upsert did not resolve.
	ErrRepositoryConflict = errors.New("repository conflict")
	// ErrRepositoryFailure indicates a transport or storage error.
	ErrRepositoryFailure = errors.New("repository failure")
	// ErrNotFound indicates that a requested range or number does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidNumber is returned by NumberFormatValidator implementations when a digit
	// string is not a legal number. The range validator turns it into ErrInvalidStart/End.
	ErrInvalidNumber = errors.New("invalid phone number")
)

// RangeError is the single typed error a caller receives for a rejected range.
// It matches both its Kind and its Cause under errors.Is.
type RangeError struct {
	Kind  error
	Input string
	Cause error
}

func (e *RangeError) Error() string {
	msg := e.Kind.Error()
	if e.Input != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Input)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *RangeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NewRangeError builds a RangeError of the given kind.
func NewRangeError(kind error, input string, cause error) *RangeError {
	return &RangeError{Kind: kind, Input: input, Cause: cause}
}

// IsValidationError reports whether err was rejected before any storage write.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidStart) ||
		errors.Is(err, ErrInvalidEnd) ||
		errors.Is(err, ErrStartAfterEnd) ||
		errors.Is(err, ErrUnknownCountry) ||
		errors.Is(err, ErrExpansionTooLarge)
}
