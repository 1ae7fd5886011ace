package shared

import (
	"errors"
	"time"
)

// YearMonth identifies a calendar month as "2006-01". Monthly cost snapshots
// are keyed by product + YearMonth.
type YearMonth string

// ErrInvalidYearMonth indicates a malformed year-month string.
var ErrInvalidYearMonth = errors.New("invalid year-month")

// YearMonthOf returns the YearMonth containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth(t.Format("2006-01"))
}

// ParseYearMonth validates and normalises a "2006-01" string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", ErrInvalidYearMonth
	}
	return YearMonthOf(t), nil
}

// Bounds returns the first instant of the month and the first instant of the
// next month, in UTC. Useful for month-range queries.
func (ym YearMonth) Bounds() (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", string(ym))
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidYearMonth
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

func (ym YearMonth) String() string {
	return string(ym)
}
