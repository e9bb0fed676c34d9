package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ServiceConfig holds the knobs of the range save pipeline.
type ServiceConfig struct {
	MaxExpansionSize int
	// SaveTimeout bounds one save; zero leaves the caller's deadline alone.
	SaveTimeout   time.Duration
	EventsEnabled bool
}

// RangeService runs validate -> expand -> synchronize -> commit for range saves.
type RangeService struct {
	numbers      domain.NumberFormatValidator
	validator    *RangeValidator
	expander     *RangeExpander
	synchronizer *NumberSynchronizer
	tx           domain.Transactor
	ranges       domain.NumberRangeRepository
	phoneNumbers domain.PhoneNumberRepository
	publisher    domain.EventPublisher
	logger       *slog.Logger
	config       ServiceConfig
	now          func() time.Time
}

// NewRangeService wires the pipeline. publisher may be nil.
func NewRangeService(
	numbers domain.NumberFormatValidator,
	tx domain.Transactor,
	ranges domain.NumberRangeRepository,
	phoneNumbers domain.PhoneNumberRepository,
	publisher domain.EventPublisher,
	logger *slog.Logger,
	cfg ServiceConfig,
) *RangeService {
	logger = logger.With("service", "numbering")
	return &RangeService{
		numbers:      numbers,
		validator:    NewRangeValidator(numbers),
		expander:     NewRangeExpander(cfg.MaxExpansionSize),
		synchronizer: NewNumberSynchronizer(numbers, phoneNumbers, logger),
		tx:           tx,
		ranges:       ranges,
		phoneNumbers: phoneNumbers,
		publisher:    publisher,
		logger:       logger,
		config:       cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SaveRange validates, expands and synchronizes a range as one unit of work.
// Validation failures return a *domain.RangeError before anything is written; a storage
// failure rolls back every write made by this call.
func (s *RangeService) SaveRange(ctx context.Context, in domain.NumberRangeInput) (*domain.RangeSaveSummary, error) {
	started := time.Now()
	summary, err := s.saveRange(ctx, in)
	rangeSaveDurationHist.Observe(time.Since(started).Seconds())
	rangeSavesCounter.WithLabelValues(saveOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	numbersSyncedCounter.WithLabelValues("created").Add(float64(summary.Created))
	numbersSyncedCounter.WithLabelValues("updated").Add(float64(summary.Updated))
	return summary, nil
}

func (s *RangeService) saveRange(ctx context.Context, in domain.NumberRangeInput) (*domain.RangeSaveSummary, error) {
	if s.config.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SaveTimeout)
		defer cancel()
	}

	logger := s.logger.With("start_input", in.StartNumber)
	if in.ID != nil {
		logger = logger.With("range_id", *in.ID)
	}
	state := domain.SaveStateReceived
	reject := func(err error) (*domain.RangeSaveSummary, error) {
		logger.WarnContext(ctx, "Range save rejected", "state", state, "next_state", domain.SaveStateRejected, "error", err)
		return nil, err
	}

	country, err := s.numbers.ResolveCountry(ctx, in.Country)
	if err != nil {
		return reject(domain.NewRangeError(domain.ErrUnknownCountry, in.Country.RegionCode+" +"+in.Country.CallingCode, err))
	}

	normalized, err := s.validator.Validate(ctx, in.StartNumber, in.EndNumber, country)
	if err != nil {
		return reject(err)
	}
	state = domain.SaveStateValidated
	logger.DebugContext(ctx, "Range validated", "state", state, "size", normalized.Size())

	state = domain.SaveStateExpanding
	nationals, err := s.expander.Expand(normalized)
	if err != nil {
		return reject(err)
	}

	now := s.now()
	rng := &domain.NumberRange{
		ID:            uuid.New(),
		StartNumber:   normalized.Start.Canonical,
		EndNumber:     normalized.End.Canonical,
		StartNational: normalized.Start.NationalNumber,
		EndNational:   normalized.End.NationalNumber,
		LeadingZeros:  normalized.Start.LeadingZeros,
		Country:       country,
		Owner:         in.Owner,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.ID != nil {
		rng.ID = *in.ID
	}

	var created, updated int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, updated = 0, 0

		var existing *domain.NumberRange
		if in.ID != nil {
			var err error
			existing, err = s.ranges.GetByID(ctx, *in.ID)
			if err != nil {
				return fmt.Errorf("loading range %s: %w", *in.ID, err)
			}
			rng.CreatedAt = existing.CreatedAt
		}

		state = domain.SaveStateSynchronizing
		for i, national := range nationals {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: aborted at number %d of %d: %w", domain.ErrRepositoryFailure, i+1, len(nationals), err)
			}
			res, err := s.synchronizer.Synchronize(ctx, rng, national)
			if err != nil {
				return fmt.Errorf("synchronizing number %d of %d: %w", i+1, len(nationals), err)
			}
			if res.Created {
				created++
			} else {
				updated++
			}
		}

		if existing != nil {
			return s.ranges.Update(ctx, rng)
		}
		return s.ranges.Create(ctx, rng)
	})
	if err != nil {
		return reject(err)
	}
	state = domain.SaveStateCommitted

	summary := &domain.RangeSaveSummary{
		RangeID:     rng.ID,
		StartNumber: rng.StartNumber,
		EndNumber:   rng.EndNumber,
		Created:     created,
		Updated:     updated,
		State:       state,
	}
	logger.InfoContext(ctx, "Range saved",
		"range_id", rng.ID,
		"start_number", rng.StartNumber,
		"end_number", rng.EndNumber,
		"created", created,
		"updated", updated,
	)
	s.publishSynced(ctx, rng, summary)
	return summary, nil
}

// publishSynced is best effort: the save has already committed.
func (s *RangeService) publishSynced(ctx context.Context, rng *domain.NumberRange, summary *domain.RangeSaveSummary) {
	if s.publisher == nil || !s.config.EventsEnabled {
		return
	}
	payload, err := json.Marshal(domain.RangeSyncedEvent{
		RangeID:     rng.ID,
		CountryCode: rng.Country.CallingCode,
		StartNumber: rng.StartNumber,
		EndNumber:   rng.EndNumber,
		Created:     summary.Created,
		Updated:     summary.Updated,
		OccurredAt:  s.now(),
	})
	if err != nil {
		rangeEventPublishFailures.Inc()
		s.logger.ErrorContext(ctx, "Failed to marshal range synced event", "range_id", rng.ID, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, domain.NATSRangeSyncedV1, payload); err != nil {
		rangeEventPublishFailures.Inc()
		s.logger.WarnContext(ctx, "Failed to publish range synced event", "range_id", rng.ID, "subject", domain.NATSRangeSyncedV1, "error", err)
	}
}

// ResyncRanges re-runs the save pipeline for stored ranges, one unit of work per range,
// stopping at the first failure. Summaries of ranges already committed are returned with it.
func (s *RangeService) ResyncRanges(ctx context.Context, ids []uuid.UUID) ([]*domain.RangeSaveSummary, error) {
	summaries := make([]*domain.RangeSaveSummary, 0, len(ids))
	for _, id := range ids {
		rng, err := s.ranges.GetByID(ctx, id)
		if err != nil {
			return summaries, fmt.Errorf("loading range %s: %w", id, err)
		}
		rangeID := rng.ID
		end := domain.NationalDigits(rng.EndNational, rng.LeadingZeros)
		summary, err := s.SaveRange(ctx, domain.NumberRangeInput{
			ID:          &rangeID,
			StartNumber: domain.NationalDigits(rng.StartNational, rng.LeadingZeros),
			EndNumber:   &end,
			Country:     rng.Country,
			Owner:       rng.Owner,
			Notes:       rng.Notes,
		})
		if err != nil {
			return summaries, fmt.Errorf("resyncing range %s: %w", id, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ReconcileRange reports records that reference the range but lie outside its current
// span, e.g. after the range shrank. Nothing is deleted.
func (s *RangeService) ReconcileRange(ctx context.Context, id uuid.UUID) (*domain.ReconciliationReport, error) {
	rng, err := s.ranges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	orphans, err := s.phoneNumbers.ListOutsideSpan(ctx, id, rng.StartNational, rng.EndNational)
	if err != nil {
		return nil, err
	}
	if len(orphans) > 0 {
		s.logger.InfoContext(ctx, "Range has records outside its span", "range_id", id, "orphans", len(orphans))
	}
	return &domain.ReconciliationReport{RangeID: id, Orphans: orphans}, nil
}

// GetRange returns a stored range.
func (s *RangeService) GetRange(ctx context.Context, id uuid.UUID) (*domain.NumberRange, error) {
	return s.ranges.GetByID(ctx, id)
}

// ListRangeNumbers pages through the records owned by a range in national-number order.
// A negative offset is treated as 0; limit defaults to 50 and is capped at 500.
func (s *RangeService) ListRangeNumbers(ctx context.Context, id uuid.UUID, offset, limit int) (*domain.NumberPage, error) {
	if _, err := s.ranges.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	numbers, err := s.phoneNumbers.ListByRange(ctx, id, offset, limit)
	if err != nil {
		return nil, err
	}
	return &domain.NumberPage{RangeID: id, Offset: offset, Limit: limit, Numbers: numbers}, nil
}

func saveOutcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case domain.IsValidationError(err):
		return "rejected_validation"
	case errors.Is(err, domain.ErrNotFound):
		return "rejected_not_found"
	default:
		return "rejected_storage"
	}
}
