// Package calendar converts the continuous day numbers stored in result
// files (Modified Julian Day) to calendar dates.
package calendar

import (
	"errors"
	"math"
	"time"
)

// ErrNotFinite is returned for NaN or infinite day numbers.
var ErrNotFinite = errors.New("day number is not finite")

// MJD 0 = 1858-11-17 00:00 UTC.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// FromDayNumber converts a Modified Julian Day value to a UTC calendar
// date at day granularity. The fractional part of the day is truncated,
// matching the precision of the legacy result files.
func FromDayNumber(x float64) (time.Time, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return time.Time{}, ErrNotFinite
	}
	days := int(math.Floor(x))
	return mjdEpoch.AddDate(0, 0, days), nil
}

// ToDayNumber is the inverse of FromDayNumber for midnight UTC dates.
func ToDayNumber(t time.Time) float64 {
	return float64(t.UTC().Sub(mjdEpoch) / (24 * time.Hour))
}
