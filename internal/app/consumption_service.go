package app

import (
	"context"
	"sort"

	"meters/internal/domain"
)

// ConsumptionService derives usage from cumulative meter readings.
type ConsumptionService struct {
	readings *ReadingService
}

// NewConsumptionService creates a ConsumptionService.
func NewConsumptionService(readings *ReadingService) *ConsumptionService {
	return &ConsumptionService{readings: readings}
}

// Monthly returns the per-type difference between each pair of consecutive
// readings, oldest first. Types missing from either reading are skipped.
func (s *ConsumptionService) Monthly(ctx context.Context, actor domain.AuthenticationResult, owner string) ([]domain.Consumption, error) {
	items, err := s.readings.History(ctx, actor, owner)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[j].Period().After(items[i].Period())
	})

	out := make([]domain.Consumption, 0, len(items))
	for i := 1; i < len(items); i++ {
		prev, cur := items[i-1], items[i]
		delta := make(map[string]int64, len(cur.Values))
		for k, v := range cur.Values {
			if p, ok := prev.Values[k]; ok {
				delta[k] = v - p
			}
		}
		out = append(out, domain.Consumption{
			From:       prev.Period(),
			To:         cur.Period(),
			Contiguous: prev.Period().Next() == cur.Period(),
			Values:     delta,
		})
	}
	return out, nil
}
