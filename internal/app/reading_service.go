package app

import (
	"context"
	"sort"
	"time"

	"meters/internal/domain"
)

// ReadingService encapsulates meter reading use cases.
type ReadingService struct {
	repo      domain.ReadingRepository
	validator *ReadingValidator
	audit     *Auditor
}

// NewReadingService creates a ReadingService backed by the given repository.
func NewReadingService(repo domain.ReadingRepository, validator *ReadingValidator, audit *Auditor) *ReadingService {
	return &ReadingService{repo: repo, validator: validator, audit: audit}
}

// Submit validates and stores a reading for username. At most one reading
// per user and month is accepted.
func (s *ReadingService) Submit(ctx context.Context, username string, month, year int, values map[string]int64) (domain.Reading, error) {
	if err := s.validator.Validate(month, year, values); err != nil {
		return domain.Reading{}, err
	}
	spec := AuditSpec{Operation: "Submit", Action: "reading submitted"}
	return Audited(ctx, s.audit, spec, func(ctx context.Context) (domain.Reading, error) {
		history, err := s.repo.FindByUsername(ctx, username)
		if err != nil {
			return domain.Reading{}, storeFault("load readings", err)
		}
		for _, r := range history {
			if r.Month == month && r.Year == year {
				return domain.Reading{}, domain.ErrReadingExists
			}
		}

		r := domain.Reading{
			Username:  username,
			Month:     month,
			Year:      year,
			Values:    values,
			CreatedAt: time.Now().UTC(),
		}
		id, err := s.repo.Save(ctx, r)
		if err != nil {
			return domain.Reading{}, storeFault("save reading", err)
		}
		r.ID = id
		return r, nil
	})
}

// History returns owner's readings, latest period first.
func (s *ReadingService) History(ctx context.Context, actor domain.AuthenticationResult, owner string) ([]domain.Reading, error) {
	if err := authorizeOwner(actor, owner); err != nil {
		return nil, err
	}
	items, err := s.repo.FindByUsername(ctx, owner)
	if err != nil {
		return nil, storeFault("load readings", err)
	}
	sortNewestFirst(items)
	return items, nil
}

// Latest returns owner's reading for the most recent period.
func (s *ReadingService) Latest(ctx context.Context, actor domain.AuthenticationResult, owner string) (domain.Reading, error) {
	items, err := s.History(ctx, actor, owner)
	if err != nil {
		return domain.Reading{}, err
	}
	if len(items) == 0 {
		return domain.Reading{}, domain.ErrReadingNotFound
	}
	return items[0], nil
}

// ForMonth returns owner's reading for a single period.
func (s *ReadingService) ForMonth(ctx context.Context, actor domain.AuthenticationResult, owner string, month, year int) (domain.Reading, error) {
	if err := authorizeOwner(actor, owner); err != nil {
		return domain.Reading{}, err
	}
	r, err := s.repo.FindByUsernameMonthYear(ctx, owner, month, year)
	if err != nil {
		return domain.Reading{}, storeFault("load reading", err)
	}
	if r == nil {
		return domain.Reading{}, domain.ErrReadingNotFound
	}
	return *r, nil
}

// All returns every user's readings. Callers gate this to administrators.
func (s *ReadingService) All(ctx context.Context) ([]domain.Reading, error) {
	spec := AuditSpec{Operation: "All", Action: "viewed all readings"}
	return Audited(ctx, s.audit, spec, func(ctx context.Context) ([]domain.Reading, error) {
		items, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, storeFault("load readings", err)
		}
		sortNewestFirst(items)
		return items, nil
	})
}

func sortNewestFirst(items []domain.Reading) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Period().After(items[j].Period())
	})
}
