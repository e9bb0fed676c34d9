package numberplan

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

const unknownRegion = "ZZ"

// Validator implements domain.NumberFormatValidator on top of libphonenumber metadata.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a Validator. It holds no mutable state and is safe for concurrent use.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger.With("component", "numberplan_validator")}
}

// ValidateAndNormalize parses "+<callingCode><rawDigits>" and requires it to be a valid
// number for the plan. Non-digits in either argument are ignored.
func (v *Validator) ValidateAndNormalize(ctx context.Context, rawDigits, callingCode string) (domain.NormalizedNumber, error) {
	num, full, err := v.parse(rawDigits, callingCode)
	if err != nil {
		return domain.NormalizedNumber{}, err
	}
	if !phonenumbers.IsValidNumber(num) {
		v.logger.DebugContext(ctx, "Number rejected by numbering plan", "number", full)
		return domain.NormalizedNumber{}, fmt.Errorf("%w: %s is not valid for its numbering plan", domain.ErrInvalidNumber, full)
	}
	return toNormalized(num), nil
}

// Normalize parses and formats "+<callingCode><rawDigits>" without the plan-validity check.
func (v *Validator) Normalize(_ context.Context, rawDigits, callingCode string) (domain.NormalizedNumber, error) {
	num, _, err := v.parse(rawDigits, callingCode)
	if err != nil {
		return domain.NormalizedNumber{}, err
	}
	return toNormalized(num), nil
}

// ResolveCountry derives a missing calling code from the region, or the main region from
// the calling code, and rejects pairs the numbering-plan metadata does not agree on.
func (v *Validator) ResolveCountry(ctx context.Context, country domain.Country) (domain.Country, error) {
	region := strings.ToUpper(strings.TrimSpace(country.RegionCode))
	cc := digitsOnly(country.CallingCode)

	switch {
	case cc == "" && region == "":
		return domain.Country{}, fmt.Errorf("%w: neither region nor calling code given", domain.ErrUnknownCountry)
	case cc == "":
		code := phonenumbers.GetCountryCodeForRegion(region)
		if code == 0 {
			return domain.Country{}, fmt.Errorf("%w: region %q", domain.ErrUnknownCountry, region)
		}
		return domain.Country{RegionCode: region, CallingCode: strconv.Itoa(code)}, nil
	}

	code, err := strconv.Atoi(cc)
	if err != nil {
		return domain.Country{}, fmt.Errorf("%w: calling code %q", domain.ErrUnknownCountry, cc)
	}
	regions := phonenumbers.GetRegionCodesForCountryCode(code)
	if len(regions) == 0 {
		return domain.Country{}, fmt.Errorf("%w: calling code +%d", domain.ErrUnknownCountry, code)
	}
	if region == "" {
		region = phonenumbers.GetRegionCodeForCountryCode(code)
	} else if !slices.Contains(regions, region) {
		v.logger.WarnContext(ctx, "Calling code does not serve region", "region", region, "calling_code", code, "expected_regions", regions)
		return domain.Country{}, fmt.Errorf("%w: calling code +%d does not serve region %q", domain.ErrUnknownCountry, code, region)
	}
	return domain.Country{RegionCode: region, CallingCode: strconv.Itoa(code)}, nil
}

func (v *Validator) parse(rawDigits, callingCode string) (*phonenumbers.PhoneNumber, string, error) {
	cc := digitsOnly(callingCode)
	if cc == "" {
		return nil, "", fmt.Errorf("%w: empty calling code", domain.ErrUnknownCountry)
	}
	code, err := strconv.Atoi(cc)
	if err != nil || phonenumbers.GetRegionCodeForCountryCode(code) == unknownRegion {
		return nil, "", fmt.Errorf("%w: calling code +%s", domain.ErrUnknownCountry, cc)
	}

	digits := digitsOnly(rawDigits)
	if digits == "" {
		return nil, "", fmt.Errorf("%w: no digits", domain.ErrInvalidNumber)
	}

	full := "+" + cc + digits
	num, err := phonenumbers.Parse(full, unknownRegion)
	if err != nil {
		return nil, full, fmt.Errorf("%w: %s could not be parsed: %v", domain.ErrInvalidNumber, full, err)
	}
	return num, full, nil
}

func toNormalized(num *phonenumbers.PhoneNumber) domain.NormalizedNumber {
	n := domain.NormalizedNumber{
		Canonical:      phonenumbers.Format(num, phonenumbers.E164),
		NationalNumber: num.GetNationalNumber(),
	}
	if num.GetItalianLeadingZero() {
		n.LeadingZeros = int(num.GetNumberOfLeadingZeros())
	}
	return n
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
