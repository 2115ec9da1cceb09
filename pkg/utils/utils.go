package utils

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// WholeDaysBetween returns the number of complete 24h days from start to end,
// truncated toward zero.
func WholeDaysBetween(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}

// IsDateOverdue reports whether now is strictly after dueDate.
func IsDateOverdue(dueDate, now time.Time) bool {
	return now.After(dueDate)
}

// FloorAtZero clamps negative amounts to zero.
func FloorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// RoundHalfUp rounds to the nearest integer with .5 going up.
func RoundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

// MeanRounded is the arithmetic mean of values rounded half up; 0 for an empty set.
func MeanRounded(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return RoundHalfUp(float64(sum) / float64(len(values)))
}
