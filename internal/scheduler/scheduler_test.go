package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

func d(s string) time.Time {
	return dateutil.MustParse(s)
}

// January 2025: the 6th is a Monday, the 11th and 12th a weekend.
func newTestScheduler() *Scheduler {
	return New(calendar.NewSnapshot([]calendar.Holiday{
		{Date: d("2025-01-01"), Name: "New Year's Day", Type: calendar.TypePublic},
		{Date: d("2025-01-20"), Name: "Offsite", Type: calendar.TypeCompany, IsWorkingDay: true},
		{Date: d("2025-01-25"), Name: "Saturday shift", Type: calendar.TypeTransferred, IsWorkingDay: true},
		{Date: d("2025-01-26"), Name: "Sunday holiday", Type: calendar.TypePublic},
	}))
}

func TestIsWorkingDay(t *testing.T) {
	s := newTestScheduler()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"Plain Monday", d("2025-01-06"), true},
		{"Saturday", d("2025-01-11"), false},
		{"Sunday", d("2025-01-12"), false},
		{"Non-working holiday on a weekday", d("2025-01-01"), false},
		{"Working holiday on a weekday", d("2025-01-20"), true},
		{"Working holiday never re-enables a weekend", d("2025-01-25"), false},
		{"Non-working holiday on a weekend", d("2025-01-26"), false},
		{"Time of day is ignored", time.Date(2025, 1, 6, 23, 30, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsWorkingDay(tt.date); got != tt.want {
				t.Errorf("IsWorkingDay(%s) = %v, want %v", tt.date.Format("2006-01-02 Mon"), got, tt.want)
			}
			if got := s.ShouldDisableDate(tt.date); got == tt.want {
				t.Errorf("ShouldDisableDate(%s) = %v, want %v", tt.date.Format("2006-01-02 Mon"), got, !tt.want)
			}
		})
	}
}

func TestIsWorkingDay_WeekendsAlwaysOff(t *testing.T) {
	// every weekend of 2025 carries a working-holiday record
	var records []calendar.Holiday
	for day := d("2025-01-01"); day.Year() == 2025; day = dateutil.NextDay(day) {
		if dateutil.IsWeekend(day) {
			records = append(records, calendar.Holiday{Date: day, IsWorkingDay: true})
		}
	}
	s := New(calendar.NewSnapshot(records))

	for day := d("2025-01-01"); day.Year() == 2025; day = dateutil.NextDay(day) {
		if dateutil.IsWeekend(day) && s.IsWorkingDay(day) {
			t.Fatalf("IsWorkingDay(%s) = true for a weekend", dateutil.Format(day))
		}
	}
}

func TestComputeEndDate(t *testing.T) {
	holiday := New(calendar.NewSnapshot([]calendar.Holiday{
		{Date: d("2025-01-10"), Name: "Company day", IsWorkingDay: false},
	}))
	plain := New(nil)

	tests := []struct {
		name     string
		s        *Scheduler
		start    time.Time
		estimate float64
		want     time.Time
	}{
		{"Five days Monday to Friday", plain, d("2025-01-06"), 5, d("2025-01-10")},
		{"Thursday plus three skips the weekend", plain, d("2025-01-09"), 3, d("2025-01-13")},
		{"Holiday is skipped like a weekend", holiday, d("2025-01-06"), 5, d("2025-01-13")},
		{"One day on a working start is the start", plain, d("2025-01-06"), 1, d("2025-01-06")},
		{"One day on a Saturday start is Monday", plain, d("2025-01-11"), 1, d("2025-01-13")},
		{"Holiday start moves to the next working day", holiday, d("2025-01-10"), 1, d("2025-01-13")},
		{"Fraction rounds up", plain, d("2025-01-06"), 1.5, d("2025-01-07")},
		{"Fraction below one is one day", plain, d("2025-01-06"), 0.25, d("2025-01-06")},
		{"Ten days span two weekends", plain, d("2025-01-06"), 10, d("2025-01-17")},
		{"Across the year end", plain, d("2024-12-30"), 3, d("2025-01-01")},
		{"Start with time of day", plain, time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), 2, d("2025-01-07")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.s.ComputeEndDate(tt.start, tt.estimate)
			if !ok {
				t.Fatalf("ComputeEndDate(%s, %v) not computable", dateutil.Format(tt.start), tt.estimate)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ComputeEndDate(%s, %v) = %s, want %s",
					dateutil.Format(tt.start), tt.estimate, dateutil.Format(got), dateutil.Format(tt.want))
			}
		})
	}
}

func TestComputeEndDate_NotComputable(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name     string
		start    time.Time
		estimate float64
	}{
		{"Zero start", time.Time{}, 5},
		{"Zero estimate", d("2025-01-06"), 0},
		{"Negative estimate", d("2025-01-06"), -1},
		{"NaN estimate", d("2025-01-06"), math.NaN()},
		{"Infinite estimate", d("2025-01-06"), math.Inf(1)},
		{"Estimate too large", d("2025-01-06"), MaxEstimateDays + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.ComputeEndDate(tt.start, tt.estimate)
			if ok || !got.IsZero() {
				t.Errorf("ComputeEndDate(%v, %v) = %v, %v, want not computable", tt.start, tt.estimate, got, ok)
			}
		})
	}
}

func TestComputeEndDate_Deterministic(t *testing.T) {
	s := newTestScheduler()
	start := d("2024-12-30")

	first, _ := s.ComputeEndDate(start, 7.5)
	second, _ := s.ComputeEndDate(start, 7.5)
	if !first.Equal(second) {
		t.Errorf("ComputeEndDate() = %v then %v", first, second)
	}
}

func TestComputeEndDate_Monotonic(t *testing.T) {
	s := newTestScheduler()

	for day := d("2024-12-25"); day.Before(d("2025-02-05")); day = dateutil.NextDay(day) {
		prev := time.Time{}
		for n := 0.5; n <= 30; n += 0.5 {
			end, ok := s.ComputeEndDate(day, n)
			if !ok {
				t.Fatalf("ComputeEndDate(%s, %v) not computable", dateutil.Format(day), n)
			}
			if end.Before(prev) {
				t.Fatalf("ComputeEndDate(%s, %v) = %s precedes %s", dateutil.Format(day), n, dateutil.Format(end), dateutil.Format(prev))
			}
			if !s.IsWorkingDay(end) {
				t.Fatalf("ComputeEndDate(%s, %v) = %s is not a working day", dateutil.Format(day), n, dateutil.Format(end))
			}
			prev = end
		}
	}
}

func TestWorkingDaysBetween(t *testing.T) {
	s := newTestScheduler()

	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"Single working day", d("2025-01-06"), d("2025-01-06"), 1},
		{"Full week", d("2025-01-06"), d("2025-01-12"), 5},
		{"Week with New Year", d("2024-12-30"), d("2025-01-05"), 4},
		{"Working holiday counts", d("2025-01-20"), d("2025-01-20"), 1},
		{"Reversed range", d("2025-01-10"), d("2025-01-06"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.WorkingDaysBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("WorkingDaysBetween(%s, %s) = %d, want %d",
					dateutil.Format(tt.from), dateutil.Format(tt.to), got, tt.want)
			}
		})
	}
}

func TestWorkingDaysBetween_MatchesEstimate(t *testing.T) {
	s := newTestScheduler()

	for day := d("2024-12-25"); day.Before(d("2025-02-05")); day = dateutil.NextDay(day) {
		if !s.IsWorkingDay(day) {
			continue
		}
		for _, n := range []float64{1, 2.5, 5, 13} {
			end, _ := s.ComputeEndDate(day, n)
			if got := s.WorkingDaysBetween(day, end); got != int(math.Ceil(n)) {
				t.Errorf("WorkingDaysBetween(%s, ComputeEndDate(%v)) = %d, want %v",
					dateutil.Format(day), n, got, math.Ceil(n))
			}
		}
	}
}

func TestNextWorkingDay(t *testing.T) {
	s := newTestScheduler()

	tests := []struct {
		date time.Time
		want time.Time
	}{
		{d("2025-01-06"), d("2025-01-07")},
		{d("2025-01-10"), d("2025-01-13")},
		{d("2024-12-31"), d("2025-01-02")},
	}

	for _, tt := range tests {
		if got := s.NextWorkingDay(tt.date); !got.Equal(tt.want) {
			t.Errorf("NextWorkingDay(%s) = %s, want %s",
				dateutil.Format(tt.date), dateutil.Format(got), dateutil.Format(tt.want))
		}
	}
}
