// Package fiscal implements Australian fiscal-year arithmetic.
// A fiscal year runs July 1 to June 30 and is labelled by its ending
// calendar year: FY2025 covers 2024-07-01 through 2025-06-30.
package fiscal

import (
	"fmt"
	"time"
)

// Year returns the fiscal year a date falls in.
func Year(d time.Time) int {
	if d.Month() < time.July {
		return d.Year()
	}
	return d.Year() + 1
}

// Resolve maps a two-digit shorthand label to a calendar year (25 -> 2025).
// Four-digit labels pass through unchanged.
func Resolve(fy int) int {
	if fy >= 1900 {
		return fy
	}
	return 2000 + fy
}

// Range returns the first and last instants of a fiscal year in UTC.
func Range(fy int) (time.Time, time.Time) {
	y := Resolve(fy)
	start := time.Date(y-1, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y, time.June, 30, 23, 59, 59, 0, time.UTC)
	return start, end
}

// Label formats a fiscal year the way the ATO writes it, e.g. "2024-25".
func Label(fy int) string {
	y := Resolve(fy)
	return fmt.Sprintf("%d-%02d", y-1, y%100)
}
