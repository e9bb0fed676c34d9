// Package memory is an in-process implementation of the numbering repositories, used by
// tests and by local runs without Postgres.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

// Operation names accepted by InjectFault.
const (
	OpFindNumber   = "phone_numbers.find"
	OpCreateNumber = "phone_numbers.create"
	OpUpdateNumber = "phone_numbers.update_owner"
	OpGetRange     = "number_ranges.get"
	OpCreateRange  = "number_ranges.create"
	OpUpdateRange  = "number_ranges.update"
)

type snapshot struct {
	numbers map[string]*domain.PhoneNumber
	ranges  map[uuid.UUID]*domain.NumberRange
}

func (s *snapshot) clone() *snapshot {
	out := &snapshot{
		numbers: make(map[string]*domain.PhoneNumber, len(s.numbers)),
		ranges:  make(map[uuid.UUID]*domain.NumberRange, len(s.ranges)),
	}
	for k, v := range s.numbers {
		out.numbers[k] = copyNumber(v)
	}
	for k, v := range s.ranges {
		out.ranges[k] = copyRange(v)
	}
	return out
}

type fault struct {
	after int
	err   error
}

// Store keeps both repositories in memory. A transaction works on a private copy of the
// data that replaces the committed state only when fn succeeds; transactions are serialized.
type Store struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	committed *snapshot
	faults    map[string]fault
	calls     map[string]int
}

type txKey struct{}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		committed: &snapshot{
			numbers: map[string]*domain.PhoneNumber{},
			ranges:  map[uuid.UUID]*domain.NumberRange{},
		},
		faults: map[string]fault{},
		calls:  map[string]int{},
	}
}

// InjectFault lets op succeed after times, then fail with err wrapped in ErrRepositoryFailure.
func (s *Store) InjectFault(op string, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = fault{after: after, err: err}
	s.calls[op] = 0
}

// ClearFaults removes every injected fault.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.faults)
	clear(s.calls)
}

func (s *Store) checkFault(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	s.calls[op]++
	if s.calls[op] > f.after {
		return fmt.Errorf("%w: %s: %w", domain.ErrRepositoryFailure, op, f.err)
	}
	return nil
}

// WithinTx implements domain.Transactor. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*snapshot); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, working)); err != nil {
		return err
	}
	if err := checkRangeReferences(working); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = working
	s.mu.Unlock()
	return nil
}

// checkRangeReferences plays the part of the deferred foreign key on phone_numbers.range_id.
func checkRangeReferences(snap *snapshot) error {
	for _, n := range snap.numbers {
		if n.RangeID == nil {
			continue
		}
		if _, ok := snap.ranges[*n.RangeID]; !ok {
			return fmt.Errorf("%w: %s references missing range %s", domain.ErrRepositoryFailure, n.CanonicalNumber, *n.RangeID)
		}
	}
	return nil
}

// read runs fn against the transaction's working copy, or the committed state.
func (s *Store) read(ctx context.Context, fn func(*snapshot) error) error {
	if working, ok := ctx.Value(txKey{}).(*snapshot); ok {
		return fn(working)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

// write runs fn against the transaction's working copy, or as its own transaction.
func (s *Store) write(ctx context.Context, fn func(*snapshot) error) error {
	if working, ok := ctx.Value(txKey{}).(*snapshot); ok {
		return fn(working)
	}
	return s.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{}).(*snapshot))
	})
}

// Numbers returns a copy of every committed phone number record ordered by canonical number.
func (s *Store) Numbers() []*domain.PhoneNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.PhoneNumber, 0, len(s.committed.numbers))
	for _, k := range slices.Sorted(maps.Keys(s.committed.numbers)) {
		out = append(out, copyNumber(s.committed.numbers[k]))
	}
	return out
}

// Ranges returns how many ranges are committed.
func (s *Store) Ranges() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.committed.ranges)
}

// PhoneNumbers returns the PhoneNumberRepository view of the store.
func (s *Store) PhoneNumbers() *PhoneNumberRepository {
	return &PhoneNumberRepository{store: s}
}

// NumberRanges returns the NumberRangeRepository view of the store.
func (s *Store) NumberRanges() *NumberRangeRepository {
	return &NumberRangeRepository{store: s}
}

func copyNumber(n *domain.PhoneNumber) *domain.PhoneNumber {
	c := *n
	if n.RangeID != nil {
		id := *n.RangeID
		c.RangeID = &id
	}
	if n.Owner.CircuitID != nil {
		v := *n.Owner.CircuitID
		c.Owner.CircuitID = &v
	}
	c.LastUsedAt = copyTime(n.LastUsedAt)
	c.ActivationDate = copyTime(n.ActivationDate)
	c.DeactivationDate = copyTime(n.DeactivationDate)
	return &c
}

func copyRange(r *domain.NumberRange) *domain.NumberRange {
	c := *r
	if r.Owner.CircuitID != nil {
		v := *r.Owner.CircuitID
		c.Owner.CircuitID = &v
	}
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
