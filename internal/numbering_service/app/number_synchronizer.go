package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

// NumberSynchronizer materializes one expanded number as a durable record.
//
// A new record gets the range's owner attributes and default operator state. An existing
// record only has its owner attributes overwritten; is_active, assignment, notes, status,
// comments and lifecycle dates belong to operators and are never touched here.
type NumberSynchronizer struct {
	numbers domain.NumberFormatValidator
	repo    domain.PhoneNumberRepository
	logger  *slog.Logger
}

// NewNumberSynchronizer creates a NumberSynchronizer.
func NewNumberSynchronizer(numbers domain.NumberFormatValidator, repo domain.PhoneNumberRepository, logger *slog.Logger) *NumberSynchronizer {
	return &NumberSynchronizer{
		numbers: numbers,
		repo:    repo,
		logger:  logger.With("component", "number_synchronizer"),
	}
}

// Synchronize creates or updates the record for national within rng.
// Call it with the transaction context of the enclosing range save.
func (s *NumberSynchronizer) Synchronize(ctx context.Context, rng *domain.NumberRange, national uint64) (domain.SyncResult, error) {
	// Interior numbers are re-normalized, not re-validated against the plan.
	digits := domain.NationalDigits(national, rng.LeadingZeros)
	n, err := s.numbers.Normalize(ctx, digits, rng.Country.CallingCode)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("normalizing +%s%s: %w", rng.Country.CallingCode, digits, err)
	}
	if n.NationalNumber != national || n.LeadingZeros != rng.LeadingZeros {
		return domain.SyncResult{}, fmt.Errorf("%w: %s re-parsed as national number %s, expected %s",
			domain.ErrInvalidNumber, n.Canonical, domain.NationalDigits(n.NationalNumber, n.LeadingZeros), digits)
	}

	update := domain.OwnerUpdate{
		CanonicalNumber: n.Canonical,
		Country:         rng.Country,
		NationalNumber:  n.NationalNumber,
		Owner:           rng.Owner,
		RangeID:         rng.ID,
	}

	_, err = s.repo.FindByCanonicalNumber(ctx, n.Canonical)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		record := domain.NewPhoneNumber(n, rng.Country, rng.Owner, rng.ID)
		err := s.repo.Create(ctx, record)
		if err == nil {
			s.logger.DebugContext(ctx, "Phone number created", "number", n.Canonical, "range_id", rng.ID)
			return domain.SyncResult{CanonicalNumber: n.Canonical, Created: true}, nil
		}
		if !errors.Is(err, domain.ErrRepositoryConflict) {
			return domain.SyncResult{}, fmt.Errorf("creating %s: %w", n.Canonical, err)
		}
		// A concurrent save created it first; its owner fields are overwritten below.
		s.logger.DebugContext(ctx, "Phone number created concurrently", "number", n.Canonical, "range_id", rng.ID)
	case err != nil:
		return domain.SyncResult{}, fmt.Errorf("looking up %s: %w", n.Canonical, err)
	}

	if err := s.repo.UpdateOwnerAttributes(ctx, update); err != nil {
		return domain.SyncResult{}, fmt.Errorf("updating %s: %w", n.Canonical, err)
	}
	s.logger.DebugContext(ctx, "Phone number updated", "number", n.Canonical, "range_id", rng.ID)
	return domain.SyncResult{CanonicalNumber: n.Canonical, Created: false}, nil
}
