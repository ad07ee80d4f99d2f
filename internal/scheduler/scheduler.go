// Package scheduler computes and validates end dates over working days.
//
// A working day is any Monday-Friday that has no non-working holiday record.
// Weekends are never working days, even when a holiday record marks them as
// worked. All operations are pure functions of their arguments and the
// snapshot given to New, so a Scheduler is safe for concurrent use.
package scheduler

import (
	"math"
	"time"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

// MaxEstimateDays bounds the estimates ComputeEndDate accepts
const MaxEstimateDays = 100_000

// Scheduler answers working-day questions against one holiday snapshot
type Scheduler struct {
	snapshot *calendar.Snapshot
}

// New creates a Scheduler over snapshot. A nil snapshot means no holidays.
func New(snapshot *calendar.Snapshot) *Scheduler {
	return &Scheduler{snapshot: snapshot}
}

// IsWorkingDay reports whether date is neither a weekend nor a non-working holiday
func (s *Scheduler) IsWorkingDay(date time.Time) bool {
	if dateutil.IsWeekend(date) {
		return false
	}
	return !s.snapshot.IsNonWorkingHoliday(date)
}

// ShouldDisableDate reports whether a date picker should refuse date
func (s *Scheduler) ShouldDisableDate(date time.Time) bool {
	return !s.IsWorkingDay(date)
}

// NextWorkingDay returns the first working day strictly after date
func (s *Scheduler) NextWorkingDay(date time.Time) time.Time {
	d := dateutil.NextDay(date)
	for !s.IsWorkingDay(d) {
		d = dateutil.NextDay(d)
	}
	return d
}

// ComputeEndDate returns the date on which ceil(estimateDays) working days,
// counted from start inclusive, have been consumed. A non-working start is
// moved forward to the first working day, which becomes day one.
//
// ok is false when start is zero or the estimate is not a positive finite
// number up to MaxEstimateDays.
func (s *Scheduler) ComputeEndDate(start time.Time, estimateDays float64) (end time.Time, ok bool) {
	if start.IsZero() || !validEstimate(estimateDays) {
		return time.Time{}, false
	}

	need := int(math.Ceil(estimateDays))
	d := dateutil.DateOf(start)
	for !s.IsWorkingDay(d) {
		d = dateutil.NextDay(d)
	}

	for consumed := 1; consumed < need; consumed++ {
		d = s.NextWorkingDay(d)
	}
	return d, true
}

// WorkingDaysBetween counts the working days in [from, to]. It returns 0 when
// to precedes from.
func (s *Scheduler) WorkingDaysBetween(from, to time.Time) int {
	from, to = dateutil.DateOf(from), dateutil.DateOf(to)

	count := 0
	for d := from; !d.After(to); d = dateutil.NextDay(d) {
		if s.IsWorkingDay(d) {
			count++
		}
	}
	return count
}

func validEstimate(days float64) bool {
	return days > 0 && days <= MaxEstimateDays && !math.IsNaN(days)
}
