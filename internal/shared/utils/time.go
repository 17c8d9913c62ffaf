package utils

import (
	"fmt"
	"time"
)

// RelativeTime renders the distance between now and t as a human-readable
// string, e.g. "in 3 days", "5 hours ago". Used for the expires field of
// successful verification responses.
func RelativeTime(now, t time.Time) string {
	diff := t.Sub(now)
	future := diff >= 0
	if !future {
		diff = -diff
	}

	var quantity string
	switch {
	case diff < time.Minute:
		seconds := int(diff.Seconds())
		quantity = pluralize(seconds, "second")
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		quantity = pluralize(minutes, "minute")
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		quantity = pluralize(hours, "hour")
	case diff < 30*24*time.Hour:
		days := int(diff.Hours() / 24)
		quantity = pluralize(days, "day")
	case diff < 365*24*time.Hour:
		months := int(diff.Hours() / 24 / 30)
		quantity = pluralize(months, "month")
	default:
		years := int(diff.Hours() / 24 / 365)
		quantity = pluralize(years, "year")
	}

	if future {
		return "in " + quantity
	}
	return quantity + " ago"
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %s%s", n, unit, "s")
}
