package sync

import (
	"time"
)

// NextIntervalRun computes the next run for a fixed-interval schedule,
// anchored on lastRun when present, otherwise on now.
func NextIntervalRun(minutes int, lastRun *time.Time, now time.Time) time.Time {
	anchor := now
	if lastRun != nil {
		anchor = *lastRun
	}
	return anchor.Add(time.Duration(minutes) * time.Minute)
}

// nextRunForSpec computes the next run instant for a schedule spec. Cron
// schedules evaluate in the spec's timezone (local time when unset);
// interval schedules anchor on lastRun.
func nextRunForSpec(spec ScheduleSpec, lastRun *time.Time, now time.Time) (*time.Time, error) {
	switch spec.Type {
	case ScheduleCron:
		base := now
		if spec.Timezone != "" {
			loc, err := time.LoadLocation(spec.Timezone)
			if err != nil {
				return nil, &ValidationError{Field: "timezone", Message: err.Error()}
			}
			base = now.In(loc)
		}
		next, err := NextCronRun(spec.Expression, base)
		if err != nil {
			return nil, err
		}
		return &next, nil

	case ScheduleInterval:
		if spec.Minutes <= 0 {
			return nil, &ValidationError{Field: "minutes", Message: "interval minutes must be a positive integer"}
		}
		next := NextIntervalRun(spec.Minutes, lastRun, now)
		return &next, nil
	}

	return nil, &ValidationError{Field: "schedule.type", Message: "schedule must be either cron or interval"}
}
