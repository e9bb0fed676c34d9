package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeError_MatchesKindAndCause(t *testing.T) {
	err := NewRangeError(ErrInvalidStart, "999", ErrInvalidNumber)

	assert.ErrorIs(t, err, ErrInvalidStart)
	assert.ErrorIs(t, err, ErrInvalidNumber)
	assert.NotErrorIs(t, err, ErrInvalidEnd)
	assert.Equal(t, `invalid start number "999": invalid phone number`, err.Error())

	var rangeErr *RangeError
	wrapped := fmt.Errorf("saving range: %w", err)
	assert.True(t, errors.As(wrapped, &rangeErr))
	assert.Equal(t, "999", rangeErr.Input)
}

func TestRangeError_WithoutCauseOrInput(t *testing.T) {
	err := NewRangeError(ErrStartAfterEnd, "", nil)
	assert.ErrorIs(t, err, ErrStartAfterEnd)
	assert.Equal(t, "start number is after end number", err.Error())
}

func TestIsValidationError(t *testing.T) {
	for _, kind := range []error{ErrInvalidStart, ErrInvalidEnd, ErrStartAfterEnd, ErrUnknownCountry, ErrExpansionTooLarge} {
		assert.True(t, IsValidationError(NewRangeError(kind, "", nil)), kind.Error())
	}
	assert.False(t, IsValidationError(ErrRepositoryConflict))
	assert.False(t, IsValidationError(fmt.Errorf("tx: %w", ErrRepositoryFailure)))
	assert.False(t, IsValidationError(ErrNotFound))
}
