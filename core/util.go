package core

import (
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ContainsFold reports whether substr is within s, case-insensitively.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// UserRef is the public part of a user embedded in other objects (createdBy, tutor, ...).
type UserRef struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Email         string  `json:"email,omitempty"`
	AverageRating float64 `json:"averageRating,omitempty"`
}

// Weekdays in display order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayIndex returns the position of day in Weekdays or len(Weekdays) if unknown.
func WeekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}

// ParseClock parses a "HH:MM" wall clock time.
func ParseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}
