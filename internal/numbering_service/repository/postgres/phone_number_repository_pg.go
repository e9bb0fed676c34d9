package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
	"github.com/cschrachta/telephony-tracker/internal/platform/database"
)

const phoneNumberColumns = `canonical_number, region_code, calling_code, national_number,
	service_provider_id, location_id, usage_type_id, circuit_id, range_id,
	is_active, assigned_to, last_used_at, notes, status, comments,
	activation_date, deactivation_date, created_at, updated_at`

type PgPhoneNumberRepository struct {
	db     database.Querier
	logger *slog.Logger
}

// NewPgPhoneNumberRepository creates a PhoneNumberRepository. Calls made with a context
// from Transactor.WithinTx run on that transaction instead of db.
func NewPgPhoneNumberRepository(db database.Querier, logger *slog.Logger) domain.PhoneNumberRepository {
	return &PgPhoneNumberRepository{db: db, logger: logger.With("component", "phone_number_repository_pg")}
}

func scanPhoneNumber(row rowScanner) (*domain.PhoneNumber, error) {
	var (
		n        domain.PhoneNumber
		national int64
	)
	err := row.Scan(
		&n.CanonicalNumber, &n.Country.RegionCode, &n.Country.CallingCode, &national,
		&n.Owner.ServiceProviderID, &n.Owner.LocationID, &n.Owner.UsageTypeID, &n.Owner.CircuitID, &n.RangeID,
		&n.IsActive, &n.AssignedTo, &n.LastUsedAt, &n.Notes, &n.Status, &n.Comments,
		&n.ActivationDate, &n.DeactivationDate, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.NationalNumber = uint64(national)
	return &n, nil
}

func (r *PgPhoneNumberRepository) FindByCanonicalNumber(ctx context.Context, canonical string) (*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers WHERE canonical_number = $1` + lockClause(ctx)
	n, err := scanPhoneNumber(database.QuerierFrom(ctx, r.db).QueryRow(ctx, query, canonical))
	if err != nil {
		return nil, mapError("find phone number "+canonical, err)
	}
	return n, nil
}

// Create inserts n. If the number already exists, including one inserted by a concurrent
// transaction that has since committed, it returns ErrRepositoryConflict and leaves the
// transaction usable.
func (r *PgPhoneNumberRepository) Create(ctx context.Context, n *domain.PhoneNumber) error {
	query := `INSERT INTO phone_numbers (` + phoneNumberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (canonical_number) DO NOTHING`
	tag, err := database.QuerierFrom(ctx, r.db).Exec(ctx, query,
		n.CanonicalNumber, n.Country.RegionCode, n.Country.CallingCode, int64(n.NationalNumber),
		n.Owner.ServiceProviderID, n.Owner.LocationID, n.Owner.UsageTypeID, n.Owner.CircuitID, n.RangeID,
		n.IsActive, n.AssignedTo, n.LastUsedAt, n.Notes, n.Status, n.Comments,
		n.ActivationDate, n.DeactivationDate, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert phone number", "number", n.CanonicalNumber, "error", err)
		return mapError("create phone number "+n.CanonicalNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: phone number %s already exists", domain.ErrRepositoryConflict, n.CanonicalNumber)
	}
	return nil
}

// UpdateOwnerAttributes touches the owner columns only.
func (r *PgPhoneNumberRepository) UpdateOwnerAttributes(ctx context.Context, u domain.OwnerUpdate) error {
	query := `UPDATE phone_numbers
		SET region_code = $2, calling_code = $3, national_number = $4,
		    service_provider_id = $5, location_id = $6, usage_type_id = $7, circuit_id = $8,
		    range_id = $9, updated_at = NOW()
		WHERE canonical_number = $1`
	tag, err := database.QuerierFrom(ctx, r.db).Exec(ctx, query,
		u.CanonicalNumber, u.Country.RegionCode, u.Country.CallingCode, int64(u.NationalNumber),
		u.Owner.ServiceProviderID, u.Owner.LocationID, u.Owner.UsageTypeID, u.Owner.CircuitID,
		u.RangeID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update phone number owner", "number", u.CanonicalNumber, "error", err)
		return mapError("update phone number "+u.CanonicalNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("phone number %s: %w", u.CanonicalNumber, domain.ErrNotFound)
	}
	return nil
}

func (r *PgPhoneNumberRepository) ListByRange(ctx context.Context, rangeID uuid.UUID, offset, limit int) ([]*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers
		WHERE range_id = $1
		ORDER BY national_number
		LIMIT $2 OFFSET $3`
	return r.list(ctx, "list range numbers", query, rangeID, limit, offset)
}

func (r *PgPhoneNumberRepository) ListOutsideSpan(ctx context.Context, rangeID uuid.UUID, startNational, endNational uint64) ([]*domain.PhoneNumber, error) {
	query := `SELECT ` + phoneNumberColumns + ` FROM phone_numbers
		WHERE range_id = $1 AND (national_number < $2 OR national_number > $3)
		ORDER BY national_number`
	return r.list(ctx, "list numbers outside range", query, rangeID, int64(startNational), int64(endNational))
}

func (r *PgPhoneNumberRepository) list(ctx context.Context, op, query string, args ...any) ([]*domain.PhoneNumber, error) {
	rows, err := database.QuerierFrom(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	numbers := []*domain.PhoneNumber{}
	for rows.Next() {
		n, err := scanPhoneNumber(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return numbers, nil
}
