package app

import (
	"fmt"
	"sort"
	"time"

	"meters/internal/domain"
)

// TypeLister provides the current set of reading types.
type TypeLister interface {
	List() []string
}

// ReadingValidator checks the shape of a reading submission.
type ReadingValidator struct {
	types TypeLister
	floor int
	now   func() time.Time
}

// NewReadingValidator creates a validator accepting years from floor up to
// the current month.
func NewReadingValidator(types TypeLister, floor int) *ReadingValidator {
	return &ReadingValidator{types: types, floor: floor, now: time.Now}
}

// Validate returns a *domain.ValidationError listing every violation, or nil.
func (v *ReadingValidator) Validate(month, year int, values map[string]int64) error {
	var violations []string

	if month < 1 || month > 12 {
		violations = append(violations, fmt.Sprintf("month %d is outside 1..12", month))
	}
	if year < v.floor {
		violations = append(violations, fmt.Sprintf("year %d is before %d", year, v.floor))
	} else if month >= 1 && month <= 12 {
		if (domain.Period{Year: year, Month: month}).After(domain.PeriodOf(v.now())) {
			violations = append(violations, fmt.Sprintf("period %s is in the future", domain.Period{Year: year, Month: month}))
		}
	} else if year > v.now().Year() {
		violations = append(violations, fmt.Sprintf("year %d is in the future", year))
	}

	if len(values) == 0 {
		violations = append(violations, "at least one reading value is required")
	}

	known := make(map[string]struct{})
	for _, t := range v.types.List() {
		known[t] = struct{}{}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := known[k]; !ok {
			violations = append(violations, fmt.Sprintf("unknown reading type %q", k))
		}
		if values[k] < 0 {
			violations = append(violations, fmt.Sprintf("value for %q must not be negative", k))
		}
	}

	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}
