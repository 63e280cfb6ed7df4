package domain

import (
	"fmt"
	"time"
)

// Period is a billing month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Index converts p to a month count so periods compare and subtract as integers.
func (p Period) Index() int {
	return p.Year*12 + p.Month - 1
}

// After reports whether p is later than q.
func (p Period) After(q Period) bool {
	return p.Index() > q.Index()
}

// Next returns the following billing period.
func (p Period) Next() Period {
	i := p.Index() + 1
	return Period{Year: i / 12, Month: i%12 + 1}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
