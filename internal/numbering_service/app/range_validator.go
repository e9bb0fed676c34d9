package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

// RangeValidator checks both endpoints of a range against the numbering plan.
// Interior numbers are not validated; they are assumed valid by interpolation of the
// national number between two valid endpoints.
type RangeValidator struct {
	numbers domain.NumberFormatValidator
}

// NewRangeValidator creates a RangeValidator.
func NewRangeValidator(numbers domain.NumberFormatValidator) *RangeValidator {
	return &RangeValidator{numbers: numbers}
}

// Validate normalizes startRaw and endRaw for country. A nil or digit-less endRaw makes a
// single-number range. The error is always a *domain.RangeError.
func (v *RangeValidator) Validate(ctx context.Context, startRaw string, endRaw *string, country domain.Country) (domain.NormalizedRange, error) {
	start, err := v.numbers.ValidateAndNormalize(ctx, stripNonDigits(startRaw), country.CallingCode)
	if err != nil {
		return domain.NormalizedRange{}, endpointError(domain.ErrInvalidStart, startRaw, country, err)
	}

	end := start
	if endRaw != nil {
		if endDigits := stripNonDigits(*endRaw); endDigits != "" {
			end, err = v.numbers.ValidateAndNormalize(ctx, endDigits, country.CallingCode)
			if err != nil {
				return domain.NormalizedRange{}, endpointError(domain.ErrInvalidEnd, *endRaw, country, err)
			}
		}
	}

	// Interior numbers are rebuilt from the national integer, so both endpoints must
	// share the same significant leading zeros.
	if start.LeadingZeros != end.LeadingZeros {
		return domain.NormalizedRange{}, domain.NewRangeError(domain.ErrInvalidEnd, *endRaw,
			fmt.Errorf("%s has %d leading zeros, %s has %d", end.Canonical, end.LeadingZeros, start.Canonical, start.LeadingZeros))
	}

	if start.NationalNumber > end.NationalNumber {
		return domain.NormalizedRange{}, domain.NewRangeError(domain.ErrStartAfterEnd,
			fmt.Sprintf("%s > %s", start.Canonical, end.Canonical), nil)
	}

	return domain.NormalizedRange{Country: country, Start: start, End: end}, nil
}

func endpointError(kind error, raw string, country domain.Country, cause error) error {
	if errors.Is(cause, domain.ErrUnknownCountry) {
		return domain.NewRangeError(domain.ErrUnknownCountry, "+"+country.CallingCode, cause)
	}
	return domain.NewRangeError(kind, raw, cause)
}

func stripNonDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
