package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DueHour is the time of day a date-only due date falls on.
const DueHour = 17

// FormatDurationShort formats a duration using short units (s/m/h/d).
func FormatDurationShort(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}

	duration = duration.Truncate(time.Second)
	seconds := int64(duration.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	return fmt.Sprintf("%dd", days)
}

// FormatDue renders a due date as its calendar day plus a relative hint
// like "in 3d" or "2d overdue". Nil renders as "-".
func FormatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return "-"
	}
	day := due.In(now.Location()).Format(time.DateOnly)
	if due.After(now) {
		return fmt.Sprintf("%s (in %s)", day, FormatDurationShort(due.Sub(now)))
	}
	return fmt.Sprintf("%s (%s overdue)", day, FormatDurationShort(now.Sub(*due)))
}

// ParseDue parses a due date. It accepts "YYYY-MM-DD", RFC 3339
// timestamps, "today", "tomorrow" and day offsets like "+3d". Date-only
// forms fall at DueHour in now's location. An empty value or "none"
// clears the date and returns nil.
func ParseDue(value string, now time.Time) (*time.Time, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	atDueHour := func(t time.Time) *time.Time {
		due := time.Date(t.Year(), t.Month(), t.Day(), DueHour, 0, 0, 0, now.Location())
		return &due
	}

	switch value {
	case "", "none":
		return nil, nil
	case "today":
		return atDueHour(now), nil
	case "tomorrow":
		return atDueHour(now.AddDate(0, 0, 1)), nil
	}

	if strings.HasPrefix(value, "+") && strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(value[1 : len(value)-1])
		if err != nil || days < 0 {
			return nil, fmt.Errorf("invalid due offset %q", value)
		}
		return atDueHour(now.AddDate(0, 0, days)), nil
	}

	if t, err := time.ParseInLocation(time.DateOnly, value, now.Location()); err == nil {
		return atDueHour(t), nil
	}
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(value)); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid due date %q: use YYYY-MM-DD, RFC 3339, today, tomorrow or +Nd", value)
}
