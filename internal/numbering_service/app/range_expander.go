package app

import (
	"fmt"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

// RangeExpander enumerates the national numbers of a validated range.
type RangeExpander struct {
	maxSize uint64
}

// NewRangeExpander creates an expander that refuses ranges of more than maxSize numbers.
func NewRangeExpander(maxSize int) *RangeExpander {
	if maxSize < 1 {
		maxSize = 1
	}
	return &RangeExpander{maxSize: uint64(maxSize)}
}

// MaxSize is the configured cap.
func (e *RangeExpander) MaxSize() int {
	return int(e.maxSize)
}

// Expand returns start..end inclusive in ascending order. The cap is checked before
// anything is allocated.
func (e *RangeExpander) Expand(r domain.NormalizedRange) ([]uint64, error) {
	start, end := r.Start.NationalNumber, r.End.NationalNumber
	if start > end {
		return nil, domain.NewRangeError(domain.ErrStartAfterEnd, fmt.Sprintf("%d > %d", start, end), nil)
	}
	// end-start cannot overflow; end-start+1 can.
	if end-start >= e.maxSize {
		return nil, domain.NewRangeError(domain.ErrExpansionTooLarge,
			fmt.Sprintf("%s..%s", r.Start.Canonical, r.End.Canonical),
			fmt.Errorf("range exceeds the limit of %d numbers", e.maxSize))
	}

	out := make([]uint64, 0, end-start+1)
	for n := start; ; n++ {
		out = append(out, n)
		if n == end {
			break
		}
	}
	return out, nil
}
