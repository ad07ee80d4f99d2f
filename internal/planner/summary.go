package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/internal/scheduler"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

// MonthReport is a month view with its business hours
type MonthReport struct {
	scheduler.MonthInfo
	WorkingHours float64
}

// RangeSummary reports on the days between two dates
type RangeSummary struct {
	From               time.Time
	To                 time.Time
	CalendarDays       int
	WorkingDays        int
	Weekends           int
	NonWorkingHolidays int // weekday holidays that are days off
	WorkingHolidays    int
	WorkingHours       float64
	Days               []scheduler.DayInfo
	Holidays           []calendar.Holiday
	Duration           time.Duration
}

// Summary walks [from, to] and counts each kind of day. An inverted range
// gives an empty summary.
func (p *Planner) Summary(ctx context.Context, from, to time.Time) (*RangeSummary, error) {
	start := time.Now()
	from, to = dateutil.DateOf(from), dateutil.DateOf(to)
	summary := &RangeSummary{From: from, To: to}

	if dateutil.Before(to, from) {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	records, err := p.provider.FetchRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays for %s..%s: %w",
			dateutil.Format(from), dateutil.Format(to), err)
	}

	snapshot := calendar.NewSnapshot(records)
	s := scheduler.New(snapshot)

	summary.CalendarDays = dateutil.DaysBetween(from, to) + 1
	summary.WorkingDays = s.WorkingDaysBetween(from, to)
	summary.Days = make([]scheduler.DayInfo, 0, summary.CalendarDays)

	for d := from; !d.After(to); d = dateutil.NextDay(d) {
		day := s.Day(d)
		summary.Days = append(summary.Days, day)

		switch {
		case day.Disabled && dateutil.IsWeekend(d):
			summary.Weekends++
		case day.Disabled:
			summary.NonWorkingHolidays++
		}
		if day.Class == scheduler.ClassHolidayWorking {
			summary.WorkingHolidays++
		}
	}

	summary.WorkingHours = p.workingHours(summary.Days)
	// providers may return records outside the requested range
	summary.Holidays = snapshot.InRange(from, to)
	summary.Duration = time.Since(start)

	p.logger.Info("Range summary built",
		zap.String("from", dateutil.Format(from)),
		zap.String("to", dateutil.Format(to)),
		zap.Int("working_days", summary.WorkingDays),
		zap.Int("weekends", summary.Weekends),
		zap.Int("non_working_holidays", summary.NonWorkingHolidays),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}
