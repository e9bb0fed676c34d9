package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
	"github.com/cschrachta/telephony-tracker/internal/platform/database"
)

const numberRangeColumns = `id, start_number, end_number, start_national, end_national, leading_zeros,
	region_code, calling_code, service_provider_id, location_id, usage_type_id, circuit_id,
	notes, created_at, updated_at`

type PgNumberRangeRepository struct {
	db     database.Querier
	logger *slog.Logger
}

func NewPgNumberRangeRepository(db database.Querier, logger *slog.Logger) domain.NumberRangeRepository {
	return &PgNumberRangeRepository{db: db, logger: logger.With("component", "number_range_repository_pg")}
}

// GetByID locks the range row when called inside a transaction, so concurrent edits of
// one range serialize.
func (r *PgNumberRangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.NumberRange, error) {
	query := `SELECT ` + numberRangeColumns + ` FROM number_ranges WHERE id = $1` + lockClause(ctx)

	var (
		rng        domain.NumberRange
		start, end int64
	)
	err := database.QuerierFrom(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&rng.ID, &rng.StartNumber, &rng.EndNumber, &start, &end, &rng.LeadingZeros,
		&rng.Country.RegionCode, &rng.Country.CallingCode,
		&rng.Owner.ServiceProviderID, &rng.Owner.LocationID, &rng.Owner.UsageTypeID, &rng.Owner.CircuitID,
		&rng.Notes, &rng.CreatedAt, &rng.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get number range %s", id), err)
	}
	rng.StartNational = uint64(start)
	rng.EndNational = uint64(end)
	return &rng, nil
}

func (r *PgNumberRangeRepository) Create(ctx context.Context, rng *domain.NumberRange) error {
	query := `INSERT INTO number_ranges (` + numberRangeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := database.QuerierFrom(ctx, r.db).Exec(ctx, query,
		rng.ID, rng.StartNumber, rng.EndNumber, int64(rng.StartNational), int64(rng.EndNational), rng.LeadingZeros,
		rng.Country.RegionCode, rng.Country.CallingCode,
		rng.Owner.ServiceProviderID, rng.Owner.LocationID, rng.Owner.UsageTypeID, rng.Owner.CircuitID,
		rng.Notes, rng.CreatedAt, rng.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert number range", "range_id", rng.ID, "error", err)
		return mapError(fmt.Sprintf("create number range %s", rng.ID), err)
	}
	return nil
}

// Update rewrites the span, country, owner attributes and notes; created_at is kept.
func (r *PgNumberRangeRepository) Update(ctx context.Context, rng *domain.NumberRange) error {
	query := `UPDATE number_ranges
		SET start_number = $2, end_number = $3, start_national = $4, end_national = $5,
		    leading_zeros = $6, region_code = $7, calling_code = $8,
		    service_provider_id = $9, location_id = $10, usage_type_id = $11, circuit_id = $12,
		    notes = $13, updated_at = NOW()
		WHERE id = $1`
	tag, err := database.QuerierFrom(ctx, r.db).Exec(ctx, query,
		rng.ID, rng.StartNumber, rng.EndNumber, int64(rng.StartNational), int64(rng.EndNational),
		rng.LeadingZeros, rng.Country.RegionCode, rng.Country.CallingCode,
		rng.Owner.ServiceProviderID, rng.Owner.LocationID, rng.Owner.UsageTypeID, rng.Owner.CircuitID,
		rng.Notes,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update number range", "range_id", rng.ID, "error", err)
		return mapError(fmt.Sprintf("update number range %s", rng.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("number range %s: %w", rng.ID, domain.ErrNotFound)
	}
	return nil
}
