package normalize

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"watersafe/internal/model"
)

const day = 24 * time.Hour

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05.000",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate parses a record date. Values without a zone are read as UTC so a
// bare calendar date lands on UTC midnight.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", value)
}

// DaysBetween returns ceil((due - now) / 24h) in calendar days.
func DaysBetween(due, now time.Time) int {
	return int(math.Ceil(float64(due.Sub(now)) / float64(day)))
}

// DaysLeft applies the date policy: an empty or unparsable value counts as
// now, so it yields 0.
func DaysLeft(value string, now time.Time) int {
	due, err := ParseDate(value)
	if err != nil {
		return 0
	}
	return DaysBetween(due, now)
}

// InPast reports whether value parses to an instant strictly before now.
// Unparsable values are treated as now and are therefore not in the past.
func InPast(value string, now time.Time) bool {
	due, err := ParseDate(value)
	if err != nil {
		return false
	}
	return due.Before(now)
}

func IsClosedStatus(status string) bool {
	s := strings.TrimSpace(status)
	return s == model.ViolationResolved || s == model.ViolationClosed
}

func Priority(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return model.DefaultPriority
	}
	return v
}

// KeyPart substitutes "unknown" for absent key fields.
func KeyPart(value string) string {
	if strings.TrimSpace(value) == "" {
		return "unknown"
	}
	return value
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
