package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// ParseClock converts "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Hours past 23 are kept so overnight legs stay monotonic. Seconds are
// truncated.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("parse clock %q: want HH:MM or HH:MM:SS: %w", s, ErrInvalidInput)
	}

	vals := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			return 0, fmt.Errorf("parse clock %q: empty field: %w", s, ErrInvalidInput)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("parse clock %q: field %q is not a non-negative number: %w", s, p, ErrInvalidInput)
		}
		if i > 0 && v > 59 {
			return 0, fmt.Errorf("parse clock %q: field %q out of range: %w", s, p, ErrInvalidInput)
		}
		vals[i] = v
	}

	return vals[0]*60 + vals[1], nil
}

// FormatClock renders minutes as HH:MM on a 24h dial.
func FormatClock(minutes int) string {
	m := ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatDuration renders minutes as "3h 20m".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = -minutes
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// Elapsed returns the minutes from one clock reading to the next one,
// wrapping across midnight. The result is in [0, 1440).
func Elapsed(from, to int) int {
	return ((to-from)%MinutesPerDay + MinutesPerDay) % MinutesPerDay
}
