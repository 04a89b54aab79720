package overlay

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/straddle-overlay/internal/types"
)

// scheduleWindowMinutes is the width of the matching window for a schedule
// entry, matching the 5-minute bar cadence of the chain data.
const scheduleWindowMinutes = 5

// ScheduleEvaluator maps a schedule-local wall-clock time to at most one
// entry per call. A (date, time-of-day) signature guards each slot so it
// fires exactly once per matching day.
type ScheduleEvaluator struct {
	entries       types.Schedule
	lastSignature string
}

// NewScheduleEvaluator creates an evaluator over a fixed ordered schedule.
// Entries are assumed to have distinct time-of-day values; when windows
// overlap anyway, the first entry in list order wins.
func NewScheduleEvaluator(entries types.Schedule) *ScheduleEvaluator {
	return &ScheduleEvaluator{
		entries:       entries,
		lastSignature: "",
	}
}

// Evaluate returns the first entry whose window contains localTime and whose
// slot has not fired yet, consuming the slot. The window is
// [minute, minute+5) within the entry's hour and never wraps across the hour
// boundary: an entry scheduled at 16:58 matches 16:58-16:59 only.
func (s *ScheduleEvaluator) Evaluate(localTime time.Time) optional.Option[types.ScheduleEntry] {
	for _, entry := range s.entries {
		if localTime.Hour() != entry.Hour {
			continue
		}

		if localTime.Minute() < entry.Minute || localTime.Minute() >= entry.Minute+scheduleWindowMinutes {
			continue
		}

		signature := fmt.Sprintf("%s_%s", localTime.Format("2006-01-02"), entry.TimeOfDay())
		if s.lastSignature == signature {
			// Already fired within this window.
			continue
		}

		s.lastSignature = signature

		return optional.Some(entry)
	}

	return optional.None[types.ScheduleEntry]()
}
