package types

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/straddle-overlay/pkg/errors"
)

// ScheduleEntry is one intended allocation event per calendar day it matches.
// Hour and Minute are in the schedule-local clock, not UTC.
type ScheduleEntry struct {
	Hour    int     `yaml:"hour" json:"hour" validate:"gte=0,lte=23"`
	Minute  int     `yaml:"minute" json:"minute" validate:"gte=0,lte=59"`
	Portion float64 `yaml:"portion" json:"portion" validate:"gt=0,lte=1"`
}

// TimeOfDay formats the entry's scheduled time as HH:MM.
func (e ScheduleEntry) TimeOfDay() string {
	return fmt.Sprintf("%02d:%02d", e.Hour, e.Minute)
}

// ParseTimeOfDay parses an HH:MM string such as "16:05".
func ParseTimeOfDay(s string) (hour int, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, errors.Wrapf(errors.ErrCodeInvalidSchedule, err, "invalid time of day %q, expected HH:MM", s)
	}

	return t.Hour(), t.Minute(), nil
}

// Schedule is the fixed ordered sequence of allocation entries.
type Schedule []ScheduleEntry

// Validate checks portion ranges and the distinct time-of-day invariant.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return errors.New(errors.ErrCodeInvalidSchedule, "schedule has no entries")
	}

	seen := make(map[string]bool, len(s))

	for _, entry := range s {
		if entry.Hour < 0 || entry.Hour > 23 || entry.Minute < 0 || entry.Minute > 59 {
			return errors.Newf(errors.ErrCodeInvalidSchedule, "schedule entry %s is not a valid time of day", entry.TimeOfDay())
		}

		if entry.Portion <= 0 || entry.Portion > 1 {
			return errors.Newf(errors.ErrCodeInvalidSchedule, "schedule entry %s has portion %f outside (0, 1]", entry.TimeOfDay(), entry.Portion)
		}

		if seen[entry.TimeOfDay()] {
			return errors.Newf(errors.ErrCodeInvalidSchedule, "duplicate schedule entry at %s", entry.TimeOfDay())
		}

		seen[entry.TimeOfDay()] = true
	}

	return nil
}
