package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/adapters/numberplan"
	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

func usRange() *domain.NumberRange {
	return &domain.NumberRange{
		ID:            uuid.New(),
		StartNumber:   "+12025550100",
		EndNumber:     "+12025550105",
		StartNational: 2025550100,
		EndNational:   2025550105,
		Country:       usCountry,
		Owner:         ownerA,
	}
}

func TestNumberSynchronizer_Synchronize(t *testing.T) {
	ctx := context.Background()
	canonical := "+12025550101"

	t.Run("CreatesMissingNumber", func(t *testing.T) {
		repo := new(mockPhoneNumberRepository)
		syncer := NewNumberSynchronizer(numberplan.NewValidator(discardLogger()), repo, discardLogger())
		rng := usRange()

		repo.On("FindByCanonicalNumber", ctx, canonical).Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(n *domain.PhoneNumber) bool {
			return n.CanonicalNumber == canonical && n.NationalNumber == 2025550101 && *n.RangeID == rng.ID && n.IsActive
		})).Return(nil).Once()

		res, err := syncer.Synchronize(ctx, rng, 2025550101)
		require.NoError(t, err)
		assert.Equal(t, domain.SyncResult{CanonicalNumber: canonical, Created: true}, res)
		repo.AssertExpectations(t)
	})

	t.Run("UpdatesExistingNumber", func(t *testing.T) {
		repo := new(mockPhoneNumberRepository)
		syncer := NewNumberSynchronizer(numberplan.NewValidator(discardLogger()), repo, discardLogger())
		rng := usRange()

		repo.On("FindByCanonicalNumber", ctx, canonical).Return(&domain.PhoneNumber{CanonicalNumber: canonical}, nil).Once()
		repo.On("UpdateOwnerAttributes", ctx, domain.OwnerUpdate{
			CanonicalNumber: canonical,
			Country:         usCountry,
			NationalNumber:  2025550101,
			Owner:           ownerA,
			RangeID:         rng.ID,
		}).Return(nil).Once()

		res, err := syncer.Synchronize(ctx, rng, 2025550101)
		require.NoError(t, err)
		assert.False(t, res.Created)
		repo.AssertExpectations(t)
	})

	t.Run("ConcurrentCreateFallsBackToUpdate", func(t *testing.T) {
		repo := new(mockPhoneNumberRepository)
		syncer := NewNumberSynchronizer(numberplan.NewValidator(discardLogger()), repo, discardLogger())
		rng := usRange()

		repo.On("FindByCanonicalNumber", ctx, canonical).Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.Anything).Return(domain.ErrRepositoryConflict).Once()
		repo.On("UpdateOwnerAttributes", ctx, mock.MatchedBy(func(u domain.OwnerUpdate) bool {
			return u.CanonicalNumber == canonical && u.RangeID == rng.ID && u.Owner == ownerA
		})).Return(nil).Once()

		res, err := syncer.Synchronize(ctx, rng, 2025550101)
		require.NoError(t, err)
		assert.Equal(t, domain.SyncResult{CanonicalNumber: canonical, Created: false}, res)
		repo.AssertExpectations(t)
	})

	t.Run("CreateFailureIsReturned", func(t *testing.T) {
		repo := new(mockPhoneNumberRepository)
		syncer := NewNumberSynchronizer(numberplan.NewValidator(discardLogger()), repo, discardLogger())
		storageErr := errors.Join(domain.ErrRepositoryFailure, errors.New("connection reset"))

		repo.On("FindByCanonicalNumber", ctx, canonical).Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.Anything).Return(storageErr).Once()

		_, err := syncer.Synchronize(ctx, usRange(), 2025550101)
		assert.ErrorIs(t, err, domain.ErrRepositoryFailure)
		repo.AssertNotCalled(t, "UpdateOwnerAttributes", mock.Anything, mock.Anything)
	})

	t.Run("KeepsLeadingZeros", func(t *testing.T) {
		repo := new(mockPhoneNumberRepository)
		syncer := NewNumberSynchronizer(numberplan.NewValidator(discardLogger()), repo, discardLogger())
		rng := &domain.NumberRange{
			ID:            uuid.New(),
			StartNational: 669820000,
			EndNational:   669820009,
			LeadingZeros:  1,
			Country:       domain.Country{RegionCode: "IT", CallingCode: "39"},
			Owner:         ownerA,
		}

		repo.On("FindByCanonicalNumber", ctx, "+390669820005").Return(nil, domain.ErrNotFound).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(n *domain.PhoneNumber) bool {
			return n.CanonicalNumber == "+390669820005" && n.NationalNumber == 669820005
		})).Return(nil).Once()

		res, err := syncer.Synchronize(ctx, rng, 669820005)
		require.NoError(t, err)
		assert.Equal(t, "+390669820005", res.CanonicalNumber)
		repo.AssertExpectations(t)
	})
}
