package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoneNumber_Defaults(t *testing.T) {
	rangeID := uuid.New()
	circuit := int64(7)
	owner := OwnerAttributes{ServiceProviderID: 1, LocationID: 2, UsageTypeID: 3, CircuitID: &circuit}

	p := NewPhoneNumber(NormalizedNumber{Canonical: "+12025550100", NationalNumber: 2025550100}, Country{RegionCode: "US", CallingCode: "1"}, owner, rangeID)

	assert.Equal(t, "+12025550100", p.CanonicalNumber)
	assert.Equal(t, uint64(2025550100), p.NationalNumber)
	assert.True(t, p.IsActive)
	assert.Empty(t, p.AssignedTo)
	assert.Empty(t, p.Notes)
	assert.Nil(t, p.LastUsedAt)
	require.NotNil(t, p.RangeID)
	assert.Equal(t, rangeID, *p.RangeID)
	assert.Equal(t, owner, p.Owner)
}

func TestOwnerUpdate_ApplyLeavesOperatorStateAlone(t *testing.T) {
	lastUsed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	activated := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &PhoneNumber{
		CanonicalNumber: "+12025550100",
		Owner:           OwnerAttributes{LocationID: 1},
		IsActive:        false,
		AssignedTo:      "ops-desk",
		LastUsedAt:      &lastUsed,
		Notes:           "do not reassign",
		Status:          "ported",
		Comments:        "ticket 42",
		ActivationDate:  &activated,
	}
	before := *p

	newRange := uuid.New()
	OwnerUpdate{
		CanonicalNumber: p.CanonicalNumber,
		Country:         Country{RegionCode: "US", CallingCode: "1"},
		NationalNumber:  2025550100,
		Owner:           OwnerAttributes{LocationID: 9, UsageTypeID: 4, ServiceProviderID: 5},
		RangeID:         newRange,
	}.Apply(p)

	assert.Equal(t, int64(9), p.Owner.LocationID)
	assert.Equal(t, newRange, *p.RangeID)
	assert.Equal(t, before.IsActive, p.IsActive)
	assert.Equal(t, before.AssignedTo, p.AssignedTo)
	assert.Equal(t, before.LastUsedAt, p.LastUsedAt)
	assert.Equal(t, before.Notes, p.Notes)
	assert.Equal(t, before.Status, p.Status)
	assert.Equal(t, before.Comments, p.Comments)
	assert.Equal(t, before.ActivationDate, p.ActivationDate)
}

func TestNumberRange_Contains(t *testing.T) {
	r := &NumberRange{StartNational: 100, EndNational: 105}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(105))
	assert.False(t, r.Contains(99))
	assert.False(t, r.Contains(106))
}

func TestNormalizedRange_Size(t *testing.T) {
	r := NormalizedRange{Start: NormalizedNumber{NationalNumber: 2025550100}, End: NormalizedNumber{NationalNumber: 2025550105}}
	assert.Equal(t, uint64(6), r.Size())
}

func TestNationalDigits(t *testing.T) {
	assert.Equal(t, "2025550100", NationalDigits(2025550100, 0))
	assert.Equal(t, "0669820000", NationalDigits(669820000, 1))
	assert.Equal(t, "00123", NationalDigits(123, 2))
}
