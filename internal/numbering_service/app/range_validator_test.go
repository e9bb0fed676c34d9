package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/adapters/numberplan"
	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

func strPtr(s string) *string { return &s }

func TestRangeValidator_Validate(t *testing.T) {
	v := NewRangeValidator(numberplan.NewValidator(discardLogger()))
	us := domain.Country{RegionCode: "US", CallingCode: "1"}
	ctx := context.Background()

	t.Run("FormattedEndpoints", func(t *testing.T) {
		r, err := v.Validate(ctx, "(202) 555-0100", strPtr("202.555.0105"), us)
		require.NoError(t, err)
		assert.Equal(t, "+12025550100", r.Start.Canonical)
		assert.Equal(t, "+12025550105", r.End.Canonical)
		assert.Equal(t, uint64(2025550100), r.Start.NationalNumber)
		assert.Equal(t, uint64(2025550105), r.End.NationalNumber)
		assert.Equal(t, uint64(6), r.Size())
		assert.Equal(t, us, r.Country)
	})

	t.Run("MissingEndMeansSingleNumber", func(t *testing.T) {
		for _, end := range []*string{nil, strPtr(""), strPtr(" - ")} {
			r, err := v.Validate(ctx, "2025550100", end, us)
			require.NoError(t, err)
			assert.Equal(t, r.Start, r.End)
			assert.Equal(t, uint64(1), r.Size())
		}
	})

	t.Run("InvalidStart", func(t *testing.T) {
		_, err := v.Validate(ctx, "123", strPtr("2025550105"), us)
		require.ErrorIs(t, err, domain.ErrInvalidStart)
		var rangeErr *domain.RangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.Equal(t, "123", rangeErr.Input)
		assert.ErrorIs(t, err, domain.ErrInvalidNumber)
	})

	t.Run("InvalidEnd", func(t *testing.T) {
		_, err := v.Validate(ctx, "2025550100", strPtr("555"), us)
		assert.ErrorIs(t, err, domain.ErrInvalidEnd)
		assert.NotErrorIs(t, err, domain.ErrInvalidStart)
	})

	t.Run("StartAfterEnd", func(t *testing.T) {
		_, err := v.Validate(ctx, "2025550105", strPtr("2025550100"), us)
		require.ErrorIs(t, err, domain.ErrStartAfterEnd)
		assert.Contains(t, err.Error(), "+12025550105 > +12025550100")
	})

	it := domain.Country{RegionCode: "IT", CallingCode: "39"}

	t.Run("LeadingZeroEndpoints", func(t *testing.T) {
		r, err := v.Validate(ctx, "06 6982 0000", strPtr("06 6982 0001"), it)
		require.NoError(t, err)
		assert.Equal(t, "+390669820000", r.Start.Canonical)
		assert.Equal(t, "+390669820001", r.End.Canonical)
		assert.Equal(t, 1, r.Start.LeadingZeros)
		assert.Equal(t, uint64(2), r.Size())
	})

	t.Run("MixedLeadingZeros", func(t *testing.T) {
		_, err := v.Validate(ctx, "0669820000", strPtr("3123456789"), it)
		require.ErrorIs(t, err, domain.ErrInvalidEnd)
		assert.NotErrorIs(t, err, domain.ErrStartAfterEnd)
	})

	t.Run("UnknownCallingCode", func(t *testing.T) {
		_, err := v.Validate(ctx, "2025550100", nil, domain.Country{CallingCode: "999"})
		require.ErrorIs(t, err, domain.ErrUnknownCountry)
		assert.NotErrorIs(t, err, domain.ErrInvalidStart)
	})
}
