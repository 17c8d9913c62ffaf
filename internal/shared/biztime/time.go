// Package biztime centralizes time handling for the service.
// All storage and transport use UTC; implicit local timezone is prohibited.
package biztime

import (
	"fmt"
	"time"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time (any timezone) to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// ParseDateUTC parses a date string (MM/DD/YYYY) as UTC midnight.
// This is the date format the dev API accepts for fixed-date expiry.
func ParseDateUTC(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation("01/02/2006", dateStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q: %w", dateStr, err)
	}
	return t, nil
}

// AddDays returns t plus the given number of calendar days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}
