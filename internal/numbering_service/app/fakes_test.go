package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// planValidator is a NANP-only numbering plan with a configurable set of numbers that
// parse fine but are not valid for the plan.
type planValidator struct {
	unassigned map[string]bool
}

func (v *planValidator) normalize(rawDigits, callingCode string) (domain.NormalizedNumber, error) {
	if callingCode != "1" {
		return domain.NormalizedNumber{}, fmt.Errorf("%w: +%s", domain.ErrUnknownCountry, callingCode)
	}
	if len(rawDigits) != 10 {
		return domain.NormalizedNumber{}, fmt.Errorf("%w: %q", domain.ErrInvalidNumber, rawDigits)
	}
	n, err := strconv.ParseUint(rawDigits, 10, 64)
	if err != nil {
		return domain.NormalizedNumber{}, fmt.Errorf("%w: %q", domain.ErrInvalidNumber, rawDigits)
	}
	return domain.NormalizedNumber{Canonical: "+1" + rawDigits, NationalNumber: n}, nil
}

func (v *planValidator) ValidateAndNormalize(_ context.Context, rawDigits, callingCode string) (domain.NormalizedNumber, error) {
	n, err := v.normalize(rawDigits, callingCode)
	if err != nil {
		return n, err
	}
	if v.unassigned[n.Canonical] {
		return domain.NormalizedNumber{}, fmt.Errorf("%w: %s is unassigned", domain.ErrInvalidNumber, n.Canonical)
	}
	return n, nil
}

func (v *planValidator) Normalize(_ context.Context, rawDigits, callingCode string) (domain.NormalizedNumber, error) {
	return v.normalize(rawDigits, callingCode)
}

func (v *planValidator) ResolveCountry(_ context.Context, c domain.Country) (domain.Country, error) {
	if c.CallingCode != "1" {
		return domain.Country{}, fmt.Errorf("%w: +%s", domain.ErrUnknownCountry, c.CallingCode)
	}
	return domain.Country{RegionCode: "US", CallingCode: "1"}, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type mockPhoneNumberRepository struct {
	mock.Mock
}

func (m *mockPhoneNumberRepository) FindByCanonicalNumber(ctx context.Context, canonical string) (*domain.PhoneNumber, error) {
	args := m.Called(ctx, canonical)
	if n, ok := args.Get(0).(*domain.PhoneNumber); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPhoneNumberRepository) Create(ctx context.Context, number *domain.PhoneNumber) error {
	return m.Called(ctx, number).Error(0)
}

func (m *mockPhoneNumberRepository) UpdateOwnerAttributes(ctx context.Context, update domain.OwnerUpdate) error {
	return m.Called(ctx, update).Error(0)
}

func (m *mockPhoneNumberRepository) ListByRange(ctx context.Context, rangeID uuid.UUID, offset, limit int) ([]*domain.PhoneNumber, error) {
	args := m.Called(ctx, rangeID, offset, limit)
	numbers, _ := args.Get(0).([]*domain.PhoneNumber)
	return numbers, args.Error(1)
}

func (m *mockPhoneNumberRepository) ListOutsideSpan(ctx context.Context, rangeID uuid.UUID, startNational, endNational uint64) ([]*domain.PhoneNumber, error) {
	args := m.Called(ctx, rangeID, startNational, endNational)
	numbers, _ := args.Get(0).([]*domain.PhoneNumber)
	return numbers, args.Error(1)
}
