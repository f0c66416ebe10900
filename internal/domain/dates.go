package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Day truncates t to its calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// FloorDays returns floor((b - a) / 24h).
func FloorDays(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Round2 rounds half away from zero to 2 decimals.
func Round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
