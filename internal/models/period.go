package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var periodKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Period is a ledger period (calendar year and month), independent of any
// payment timestamp so entries can be back-dated.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ParsePeriod parses a YYYY-MM key
func ParsePeriod(key string) (Period, error) {
	m := periodKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", key)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the UTC ledger period containing t
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Validate checks that the period names a real month
func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("invalid period year %d", p.Year)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("invalid period month %d", p.Month)
	}
	return nil
}

// Key renders the period as YYYY-MM
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Period) String() string {
	return p.Key()
}

// Index is a monotonically increasing month counter used for ordering
func (p Period) Index() int {
	return p.Year*12 + (p.Month - 1)
}

// Next returns the following period
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// AddMonths shifts the period by n months (n may be negative)
func (p Period) AddMonths(n int) Period {
	idx := p.Index() + n
	return Period{Year: idx / 12, Month: idx%12 + 1}
}

// Before reports whether p is strictly earlier than other
func (p Period) Before(other Period) bool {
	return p.Index() < other.Index()
}

// MonthsUntil returns how many months separate p from other
func (p Period) MonthsUntil(other Period) int {
	return other.Index() - p.Index()
}

// Start returns the first instant of the period in UTC
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}
