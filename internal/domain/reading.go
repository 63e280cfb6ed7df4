package domain

import (
	"context"
	"time"
)

// Reading is one user's set of meter values for a billing month.
type Reading struct {
	ID        int64            `json:"id"`
	Username  string           `json:"username"`
	Month     int              `json:"month"`
	Year      int              `json:"year"`
	Values    map[string]int64 `json:"values"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Period returns the reading's billing period.
func (r Reading) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}

// ReadingRepository is the port for reading persistence.
// FindByUsernameMonthYear returns (nil, nil) when nothing matches.
type ReadingRepository interface {
	Save(ctx context.Context, r Reading) (int64, error)
	FindByUsername(ctx context.Context, username string) ([]Reading, error)
	FindByUsernameMonthYear(ctx context.Context, username string, month, year int) (*Reading, error)
	FindAll(ctx context.Context) ([]Reading, error)
}

// Consumption is the per-type difference between two consecutive readings.
// Contiguous is false when months without a reading lie between From and To.
type Consumption struct {
	From       Period           `json:"from"`
	To         Period           `json:"to"`
	Contiguous bool             `json:"contiguous"`
	Values     map[string]int64 `json:"values"`
}
