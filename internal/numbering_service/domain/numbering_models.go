package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Country is the numbering-plan context a range is validated against.
// RegionCode is ISO 3166-1 alpha-2; CallingCode carries no leading "+".
type Country struct {
	RegionCode  string `json:"region_code"`
	CallingCode string `json:"calling_code"`
}

// OwnerAttributes are dictated by the owning range and mirrored onto every number in it.
type OwnerAttributes struct {
	ServiceProviderID int64  `json:"service_provider_id"`
	LocationID        int64  `json:"location_id"`
	UsageTypeID       int64  `json:"usage_type_id"`
	CircuitID         *int64 `json:"circuit_id,omitempty"`
}

// NumberRangeInput is what a caller submits to create (ID nil) or edit a range.
// EndNumber nil or blank means a single-number range.
type NumberRangeInput struct {
	ID          *uuid.UUID
	StartNumber string
	EndNumber   *string
	Country     Country
	Owner       OwnerAttributes
	Notes       string
}

// NormalizedNumber is the validator's canonical form of one number.
// LeadingZeros counts the significant zeros in front of NationalNumber (Italian fixed
// lines); they are part of the number, not a trunk prefix.
type NormalizedNumber struct {
	Canonical      string
	NationalNumber uint64
	LeadingZeros   int
}

// NationalDigits rebuilds the national significant number as dialled digits.
func NationalDigits(national uint64, leadingZeros int) string {
	return strings.Repeat("0", leadingZeros) + strconv.FormatUint(national, 10)
}

// NormalizedRange is a validated range: both endpoints canonical, start <= end.
type NormalizedRange struct {
	Country Country
	Start   NormalizedNumber
	End     NormalizedNumber
}

// Size is the number of national numbers in the inclusive range.
func (r NormalizedRange) Size() uint64 {
	return r.End.NationalNumber - r.Start.NationalNumber + 1
}

// NumberRange is the persisted range aggregate.
type NumberRange struct {
	ID            uuid.UUID       `json:"id"`
	StartNumber   string          `json:"start_number"`
	EndNumber     string          `json:"end_number"`
	StartNational uint64          `json:"start_national"`
	EndNational   uint64          `json:"end_national"`
	LeadingZeros  int             `json:"leading_zeros,omitempty"`
	Country       Country         `json:"country"`
	Owner         OwnerAttributes `json:"owner"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Contains reports whether national falls inside the range's current span.
func (r *NumberRange) Contains(national uint64) bool {
	return national >= r.StartNational && national <= r.EndNational
}

// PhoneNumber is the durable per-number record, keyed by CanonicalNumber.
type PhoneNumber struct {
	CanonicalNumber string          `json:"canonical_number"`
	Country         Country         `json:"country"`
	NationalNumber  uint64          `json:"national_significant_number"`
	Owner           OwnerAttributes `json:"owner"`
	RangeID         *uuid.UUID      `json:"range_id,omitempty"`

	// Operator-managed; never written by range synchronization after creation.
	IsActive         bool       `json:"is_active"`
	AssignedTo       string     `json:"assigned_to,omitempty"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Status           string     `json:"status,omitempty"`
	Comments         string     `json:"comments,omitempty"`
	ActivationDate   *time.Time `json:"activation_date,omitempty"`
	DeactivationDate *time.Time `json:"deactivation_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPhoneNumber creates a record owned by rangeID with operator-managed fields at their defaults.
func NewPhoneNumber(n NormalizedNumber, country Country, owner OwnerAttributes, rangeID uuid.UUID) *PhoneNumber {
	now := time.Now().UTC()
	id := rangeID
	return &PhoneNumber{
		CanonicalNumber: n.Canonical,
		Country:         country,
		NationalNumber:  n.NationalNumber,
		Owner:           owner,
		RangeID:         &id,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// OwnerUpdate is the exact set of fields synchronization may overwrite on an existing record.
type OwnerUpdate struct {
	CanonicalNumber string
	Country         Country
	NationalNumber  uint64
	Owner           OwnerAttributes
	RangeID         uuid.UUID
}

// Apply writes the owner fields onto p and nothing else.
func (u OwnerUpdate) Apply(p *PhoneNumber) {
	id := u.RangeID
	p.Country = u.Country
	p.NationalNumber = u.NationalNumber
	p.Owner = u.Owner
	p.RangeID = &id
	p.UpdatedAt = time.Now().UTC()
}

// SyncResult reports what synchronization did for one number.
type SyncResult struct {
	CanonicalNumber string
	Created         bool
}

// SaveState traces a range save through its pipeline.
type SaveState string

const (
	SaveStateReceived      SaveState = "received"
	SaveStateValidated     SaveState = "validated"
	SaveStateExpanding     SaveState = "expanding"
	SaveStateSynchronizing SaveState = "synchronizing"
	SaveStateCommitted     SaveState = "committed"
	SaveStateRejected      SaveState = "rejected"
)

// RangeSaveSummary is returned to the caller after a committed save.
type RangeSaveSummary struct {
	RangeID     uuid.UUID `json:"range_id"`
	StartNumber string    `json:"start_number"`
	EndNumber   string    `json:"end_number"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	State       SaveState `json:"state"`
}

// Total is the number of records touched.
func (s RangeSaveSummary) Total() int {
	return s.Created + s.Updated
}

// NumberPage is one page of a range's records with the offset and limit actually applied.
type NumberPage struct {
	RangeID uuid.UUID
	Offset  int
	Limit   int
	Numbers []*PhoneNumber
}

// ReconciliationReport lists records that still point at a range but fall outside its span.
type ReconciliationReport struct {
	RangeID uuid.UUID      `json:"range_id"`
	Orphans []*PhoneNumber `json:"orphans"`
}
