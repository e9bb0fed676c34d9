package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

// PhoneNumberRepository implements domain.PhoneNumberRepository on a Store.
type PhoneNumberRepository struct {
	store *Store
}

func (r *PhoneNumberRepository) FindByCanonicalNumber(ctx context.Context, canonical string) (*domain.PhoneNumber, error) {
	if err := r.store.checkFault(OpFindNumber); err != nil {
		return nil, err
	}
	var found *domain.PhoneNumber
	err := r.store.read(ctx, func(snap *snapshot) error {
		n, ok := snap.numbers[canonical]
		if !ok {
			return fmt.Errorf("phone number %s: %w", canonical, domain.ErrNotFound)
		}
		found = copyNumber(n)
		return nil
	})
	return found, err
}

func (r *PhoneNumberRepository) Create(ctx context.Context, number *domain.PhoneNumber) error {
	if err := r.store.checkFault(OpCreateNumber); err != nil {
		return err
	}
	return r.store.write(ctx, func(snap *snapshot) error {
		if _, exists := snap.numbers[number.CanonicalNumber]; exists {
			return fmt.Errorf("%w: phone number %s already exists", domain.ErrRepositoryConflict, number.CanonicalNumber)
		}
		snap.numbers[number.CanonicalNumber] = copyNumber(number)
		return nil
	})
}

func (r *PhoneNumberRepository) UpdateOwnerAttributes(ctx context.Context, update domain.OwnerUpdate) error {
	if err := r.store.checkFault(OpUpdateNumber); err != nil {
		return err
	}
	return r.store.write(ctx, func(snap *snapshot) error {
		n, ok := snap.numbers[update.CanonicalNumber]
		if !ok {
			return fmt.Errorf("phone number %s: %w", update.CanonicalNumber, domain.ErrNotFound)
		}
		owner := update.Owner
		if owner.CircuitID != nil {
			v := *owner.CircuitID
			owner.CircuitID = &v
		}
		update.Owner = owner
		update.Apply(n)
		return nil
	})
}

func (r *PhoneNumberRepository) ListByRange(ctx context.Context, rangeID uuid.UUID, offset, limit int) ([]*domain.PhoneNumber, error) {
	return r.list(ctx, rangeID, offset, limit, func(*domain.PhoneNumber) bool { return true })
}

func (r *PhoneNumberRepository) ListOutsideSpan(ctx context.Context, rangeID uuid.UUID, startNational, endNational uint64) ([]*domain.PhoneNumber, error) {
	return r.list(ctx, rangeID, 0, -1, func(n *domain.PhoneNumber) bool {
		return n.NationalNumber < startNational || n.NationalNumber > endNational
	})
}

// list returns matching records of rangeID ordered by national number; limit < 0 means all.
func (r *PhoneNumberRepository) list(ctx context.Context, rangeID uuid.UUID, offset, limit int, keep func(*domain.PhoneNumber) bool) ([]*domain.PhoneNumber, error) {
	var out []*domain.PhoneNumber
	err := r.store.read(ctx, func(snap *snapshot) error {
		for _, n := range snap.numbers {
			if n.RangeID != nil && *n.RangeID == rangeID && keep(n) {
				out = append(out, copyNumber(n))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *domain.PhoneNumber) int {
		return cmp.Compare(a.NationalNumber, b.NationalNumber)
	})
	if offset >= len(out) {
		return []*domain.PhoneNumber{}, nil
	}
	out = out[offset:]
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// NumberRangeRepository implements domain.NumberRangeRepository on a Store.
type NumberRangeRepository struct {
	store *Store
}

func (r *NumberRangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.NumberRange, error) {
	if err := r.store.checkFault(OpGetRange); err != nil {
		return nil, err
	}
	var found *domain.NumberRange
	err := r.store.read(ctx, func(snap *snapshot) error {
		rng, ok := snap.ranges[id]
		if !ok {
			return fmt.Errorf("number range %s: %w", id, domain.ErrNotFound)
		}
		found = copyRange(rng)
		return nil
	})
	return found, err
}

func (r *NumberRangeRepository) Create(ctx context.Context, rng *domain.NumberRange) error {
	if err := r.store.checkFault(OpCreateRange); err != nil {
		return err
	}
	return r.store.write(ctx, func(snap *snapshot) error {
		if _, exists := snap.ranges[rng.ID]; exists {
			return fmt.Errorf("%w: number range %s already exists", domain.ErrRepositoryConflict, rng.ID)
		}
		snap.ranges[rng.ID] = copyRange(rng)
		return nil
	})
}

func (r *NumberRangeRepository) Update(ctx context.Context, rng *domain.NumberRange) error {
	if err := r.store.checkFault(OpUpdateRange); err != nil {
		return err
	}
	return r.store.write(ctx, func(snap *snapshot) error {
		existing, ok := snap.ranges[rng.ID]
		if !ok {
			return fmt.Errorf("number range %s: %w", rng.ID, domain.ErrNotFound)
		}
		c := copyRange(rng)
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = time.Now().UTC()
		snap.ranges[rng.ID] = c
		return nil
	})
}
