package sync

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxCronSearch bounds the minute-by-minute search to one week.
const maxCronSearch = 7 * 24 * 60

type cronFields struct {
	minutes  map[int]bool
	hours    map[int]bool
	days     map[int]bool
	months   map[int]bool
	weekdays map[int]bool
}

// parseCronExpression splits a 5-field expression
// "minute hour day month dayOfWeek" and expands each field to its value set.
func parseCronExpression(expr string) (*cronFields, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, &ValidationError{Field: "expression",
			Message: fmt.Sprintf("cron expression must have 5 fields, got %d", len(fields))}
	}

	minutes, err := parseCronField(fields[0], 0, 59)
	if err != nil {
		return nil, &ValidationError{Field: "expression", Message: "invalid minute field (0-59)"}
	}
	hours, err := parseCronField(fields[1], 0, 23)
	if err != nil {
		return nil, &ValidationError{Field: "expression", Message: "invalid hour field (0-23)"}
	}
	days, err := parseCronField(fields[2], 1, 31)
	if err != nil {
		return nil, &ValidationError{Field: "expression", Message: "invalid day field (1-31)"}
	}
	months, err := parseCronField(fields[3], 1, 12)
	if err != nil {
		return nil, &ValidationError{Field: "expression", Message: "invalid month field (1-12)"}
	}
	weekdays, err := parseCronField(fields[4], 0, 6)
	if err != nil {
		return nil, &ValidationError{Field: "expression", Message: "invalid day-of-week field (0-6)"}
	}

	return &cronFields{
		minutes:  minutes,
		hours:    hours,
		days:     days,
		months:   months,
		weekdays: weekdays,
	}, nil
}

// parseCronField expands one field into its set of valid values. Supported
// forms: "*", "*/n", "a,b,c", "n".
func parseCronField(field string, min, max int) (map[int]bool, error) {
	values := make(map[int]bool)

	switch {
	case field == "*":
		for i := min; i <= max; i++ {
			values[i] = true
		}

	case strings.HasPrefix(field, "*/"):
		step, err := strconv.Atoi(field[2:])
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("invalid step %q", field)
		}
		for i := min; i <= max; i++ {
			if (i-min)%step == 0 {
				values[i] = true
			}
		}

	case strings.Contains(field, ","):
		for _, part := range strings.Split(field, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("invalid value %q", part)
			}
			if n < min || n > max {
				return nil, fmt.Errorf("value %d out of range %d-%d", n, min, max)
			}
			values[n] = true
		}

	default:
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", field)
		}
		if n < min || n > max {
			return nil, fmt.Errorf("value %d out of range %d-%d", n, min, max)
		}
		values[n] = true
	}

	return values, nil
}

// NextCronRun returns the first instant strictly after from that matches the
// expression's minute, hour, day and month constraints. The day-of-week
// field is parsed and range-checked but does not constrain the result.
//
// The search advances one minute at a time for at most a week; if nothing
// matches (e.g. "0 0 31 2 *") it falls back to from+24h rather than failing.
func NextCronRun(expr string, from time.Time) (time.Time, error) {
	fields, err := parseCronExpression(expr)
	if err != nil {
		return time.Time{}, err
	}

	candidate := from.Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < maxCronSearch; i++ {
		if fields.minutes[candidate.Minute()] &&
			fields.hours[candidate.Hour()] &&
			fields.days[candidate.Day()] &&
			fields.months[int(candidate.Month())] {
			return candidate, nil
		}
		candidate = candidate.Add(time.Minute)
	}

	return from.Add(24 * time.Hour), nil
}

// ValidateCronExpression checks field count, each field's domain, and that a
// next run can actually be computed.
func ValidateCronExpression(expr string) error {
	if _, err := parseCronExpression(expr); err != nil {
		return err
	}
	if _, err := NextCronRun(expr, time.Now()); err != nil {
		return &ValidationError{Field: "expression",
			Message: fmt.Sprintf("cannot compute next run: %v", err)}
	}
	return nil
}

var wellKnownCron = map[string]string{
	"* * * * *":   "Every minute",
	"*/5 * * * *": "Every 5 minutes",
	"0 * * * *":   "Every hour",
	"0 */6 * * *": "Every 6 hours",
	"0 0 * * *":   "Daily at midnight",
	"0 9 * * *":   "Daily at 9:00",
	"0 0 * * 0":   "Weekly on Sunday at midnight",
	"0 0 1 * *":   "Monthly on the 1st at midnight",
}

// DescribeCronExpression renders a human-readable summary for display in the
// operator console. Cosmetic only.
func DescribeCronExpression(expr string) string {
	if desc, ok := wellKnownCron[expr]; ok {
		return desc
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return expr
	}

	desc := fmt.Sprintf("At minute %s past hour %s", fields[0], fields[1])
	if fields[2] != "*" {
		desc += fmt.Sprintf(" on day %s", fields[2])
	}
	if fields[3] != "*" {
		desc += fmt.Sprintf(" in month %s", fields[3])
	}
	if fields[4] != "*" {
		desc += fmt.Sprintf(" on weekday %s", fields[4])
	}
	return desc
}
