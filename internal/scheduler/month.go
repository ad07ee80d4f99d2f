package scheduler

import (
	"time"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

// DayInfo describes one day of a month view
type DayInfo struct {
	Date     time.Time
	Class    DateClass
	Holiday  *calendar.Holiday
	Disabled bool
}

// MonthInfo is the per-day breakdown of a month
type MonthInfo struct {
	Year     int
	Month    time.Month
	WorkDays int
	Weekends int
	Holidays int // days with a holiday record, weekend or not
	Days     []DayInfo
}

// Month builds the day-by-day view of a month
func (s *Scheduler) Month(year int, month time.Month) MonthInfo {
	info := MonthInfo{
		Year:  year,
		Month: month,
		Days:  make([]DayInfo, 0, dateutil.DaysInMonth(year, month)),
	}

	last := dateutil.EndOfMonth(year, month)
	for d := dateutil.StartOfMonth(year, month); !d.After(last); d = dateutil.NextDay(d) {
		day := s.Day(d)
		info.Days = append(info.Days, day)

		if !day.Disabled {
			info.WorkDays++
		}
		if dateutil.IsWeekend(d) {
			info.Weekends++
		}
		if day.Holiday != nil {
			info.Holidays++
		}
	}

	return info
}

// Day describes a single date
func (s *Scheduler) Day(date time.Time) DayInfo {
	date = dateutil.DateOf(date)
	day := DayInfo{
		Date:     date,
		Class:    s.ClassifyDate(date),
		Disabled: s.ShouldDisableDate(date),
	}
	if h, ok := s.snapshot.Lookup(date); ok {
		day.Holiday = &h
	}
	return day
}
