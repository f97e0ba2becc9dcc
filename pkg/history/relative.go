package history

import (
	"fmt"
	"time"
)

// RelativeTime formats the span between t and now in a human-readable form,
// e.g. "3 weeks ago" or "2 years, 4 months". Times in the future render as
// an empty string.
func RelativeTime(t, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return ""
	}

	ago := func(n int, unit string, suffix bool) string {
		s := fmt.Sprintf("%d %s", n, unit)
		if n > 1 {
			s += "s"
		}
		if suffix {
			s += " ago"
		}
		return s
	}

	switch {
	case days <= 1:
		return "a day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 31:
		return ago(days/7, "week", true)
	}

	months := int(float64(days) / (365.0 / 12))
	if days < 365 {
		return ago(months, "month", true)
	}

	years := days / 365
	months %= 12
	if months < 1 {
		return ago(years, "year", true)
	}
	return ago(years, "year", false) + ", " + ago(months, "month", false)
}
