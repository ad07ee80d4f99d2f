package calendar

import (
	"time"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

// Snapshot is an immutable set of holidays indexed by calendar date.
// A nil *Snapshot behaves as an empty set.
type Snapshot struct {
	byDate map[string]Holiday
}

// NewSnapshot indexes records by date. When two records share a date the
// later one wins.
func NewSnapshot(records []Holiday) *Snapshot {
	s := &Snapshot{byDate: make(map[string]Holiday, len(records))}
	for _, h := range records {
		h.Date = dateutil.DateOf(h.Date)
		s.byDate[h.Key()] = h
	}
	return s
}

// Lookup returns the record for the civil date of date
func (s *Snapshot) Lookup(date time.Time) (Holiday, bool) {
	if s == nil {
		return Holiday{}, false
	}
	h, ok := s.byDate[dateutil.Key(dateutil.DateOf(date))]
	return h, ok
}

// IsHoliday reports whether any record exists for date
func (s *Snapshot) IsHoliday(date time.Time) bool {
	_, ok := s.Lookup(date)
	return ok
}

// IsNonWorkingHoliday reports whether date has a record that is not a working day
func (s *Snapshot) IsNonWorkingHoliday(date time.Time) bool {
	h, ok := s.Lookup(date)
	return ok && !h.IsWorkingDay
}

// Len returns the number of distinct dates
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byDate)
}

// Holidays returns a date-sorted copy of the records
func (s *Snapshot) Holidays() []Holiday {
	if s == nil {
		return nil
	}
	out := make([]Holiday, 0, len(s.byDate))
	for _, h := range s.byDate {
		out = append(out, h)
	}
	sortByDate(out)
	return out
}

// InRange returns the sorted records between from and to inclusive
func (s *Snapshot) InRange(from, to time.Time) []Holiday {
	if s == nil {
		return nil
	}
	return filterRange(s.Holidays(), from, to)
}

// Diff counts records present only in next (added) and only in s (removed).
// A record whose fields changed counts as both.
func (s *Snapshot) Diff(next *Snapshot) (added, removed int) {
	for key, h := range next.index() {
		if prev, ok := s.index()[key]; !ok || prev != h {
			added++
		}
	}
	for key, h := range s.index() {
		if cur, ok := next.index()[key]; !ok || cur != h {
			removed++
		}
	}
	return added, removed
}

func (s *Snapshot) index() map[string]Holiday {
	if s == nil {
		return nil
	}
	return s.byDate
}
