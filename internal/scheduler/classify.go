package scheduler

import (
	"time"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

// DateClass is the rendering category of a calendar day
type DateClass string

const (
	ClassWorkingDate       DateClass = "working-date"
	ClassWeekendDate       DateClass = "weekend-date"
	ClassHolidayWorking    DateClass = "holiday-working"
	ClassHolidayNonWorking DateClass = "holiday-nonworking"
)

// ClassifyDate returns the most specific class of date. A holiday record
// outranks the weekend, and a non-working holiday outranks a working one.
func (s *Scheduler) ClassifyDate(date time.Time) DateClass {
	if h, ok := s.snapshot.Lookup(date); ok {
		if h.IsWorkingDay {
			return ClassHolidayWorking
		}
		return ClassHolidayNonWorking
	}
	if dateutil.IsWeekend(date) {
		return ClassWeekendDate
	}
	return ClassWorkingDate
}
