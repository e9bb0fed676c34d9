package domain

import (
	"context"

	"github.com/google/uuid"
)

// Transactor runs fn as one atomic unit of work. Repository calls made with the ctx
// passed to fn join the transaction; if fn returns an error nothing is committed.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PhoneNumberRepository stores per-number records keyed by canonical number.
type PhoneNumberRepository interface {
	// FindByCanonicalNumber returns ErrNotFound when no record exists. Inside a
	// transaction the row stays locked until commit.
	FindByCanonicalNumber(ctx context.Context, canonical string) (*PhoneNumber, error)
	// Create inserts a new record; a duplicate canonical number is ErrRepositoryConflict.
	Create(ctx context.Context, number *PhoneNumber) error
	// UpdateOwnerAttributes overwrites only the owner fields of an existing record.
	UpdateOwnerAttributes(ctx context.Context, update OwnerUpdate) error
	ListByRange(ctx context.Context, rangeID uuid.UUID, offset, limit int) ([]*PhoneNumber, error)
	// ListOutsideSpan returns records referencing rangeID whose national number is
	// outside [startNational, endNational].
	ListOutsideSpan(ctx context.Context, rangeID uuid.UUID, startNational, endNational uint64) ([]*PhoneNumber, error)
}

// NumberRangeRepository stores range aggregates.
type NumberRangeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*NumberRange, error)
	Create(ctx context.Context, r *NumberRange) error
	Update(ctx context.Context, r *NumberRange) error
}

// NumberFormatValidator is the numbering-plan boundary. The engine never implements
// numbering-plan rules itself.
type NumberFormatValidator interface {
	// ValidateAndNormalize requires a number that is valid for the plan.
	ValidateAndNormalize(ctx context.Context, rawDigits, callingCode string) (NormalizedNumber, error)
	// Normalize parses and formats without the plan-validity check.
	Normalize(ctx context.Context, rawDigits, callingCode string) (NormalizedNumber, error)
	// ResolveCountry fills in and cross-checks the calling code for a region.
	ResolveCountry(ctx context.Context, country Country) (Country, error)
}
