package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

// Holiday types written by the built-in providers. Type is opaque to the
// scheduler, so sources are free to use their own values.
const (
	TypePublic      = "public"
	TypeCompany     = "company"
	TypeObservance  = "observance"
	TypeShortened   = "shortened"
	TypeTransferred = "transferred"
)

// DefaultCountry is stamped on records a source does not attribute to a country
const DefaultCountry = "USA"

// ErrNoData is returned when a source has nothing for the requested period
var ErrNoData = errors.New("no calendar data")

// Holiday is a dated calendar entry. IsWorkingDay marks a holiday that still
// counts as worked.
type Holiday struct {
	Date         time.Time
	Name         string
	Type         string
	IsWorkingDay bool
	Description  string
	CountryCode  string
}

type holidayJSON struct {
	Date         string `json:"holidayDate"`
	Name         string `json:"holidayName"`
	Type         string `json:"holidayType"`
	IsWorkingDay bool   `json:"isWorkingDay"`
	Description  string `json:"description,omitempty"`
	CountryCode  string `json:"countryCode,omitempty"`
}

// MarshalJSON encodes the record with an ISO calendar date
func (h Holiday) MarshalJSON() ([]byte, error) {
	return json.Marshal(holidayJSON{
		Date:         dateutil.Format(h.Date),
		Name:         h.Name,
		Type:         h.Type,
		IsWorkingDay: h.IsWorkingDay,
		Description:  h.Description,
		CountryCode:  h.CountryCode,
	})
}

// UnmarshalJSON accepts holidayDate as YYYY-MM-DD or any layout dateutil.ParseDate knows
func (h *Holiday) UnmarshalJSON(data []byte) error {
	var raw holidayJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := dateutil.ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("failed to parse holidayDate: %w", err)
	}

	*h = Holiday{
		Date:         date,
		Name:         raw.Name,
		Type:         raw.Type,
		IsWorkingDay: raw.IsWorkingDay,
		Description:  raw.Description,
		CountryCode:  raw.CountryCode,
	}
	return nil
}

// Key returns the YYYY-MM-DD index of the record
func (h Holiday) Key() string {
	return dateutil.Key(dateutil.DateOf(h.Date))
}

// Provider is a source of holiday records
type Provider interface {
	// FetchAll returns every record the source knows about
	FetchAll(ctx context.Context) ([]Holiday, error)

	// FetchRange returns the records between from and to, both inclusive
	FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
}

// CacheClearer is implemented by providers that keep an in-process cache
type CacheClearer interface {
	ClearCache()
}

// ClearCache drops the in-process cache of p, if it has one
func ClearCache(p Provider) {
	if c, ok := p.(CacheClearer); ok {
		c.ClearCache()
	}
}

// YearSpan bounds the years enumerated by sources that have no natural "all"
type YearSpan struct {
	From int
	To   int
}

// DefaultYearSpan covers the previous, current and next year
func DefaultYearSpan(now time.Time) YearSpan {
	return YearSpan{From: now.Year() - 1, To: now.Year() + 1}
}

// Resolve fills zero bounds from DefaultYearSpan
func (s YearSpan) Resolve(now time.Time) YearSpan {
	def := DefaultYearSpan(now)
	if s.From == 0 {
		s.From = def.From
	}
	if s.To == 0 {
		s.To = def.To
	}
	if s.To < s.From {
		s.From, s.To = s.To, s.From
	}
	return s
}

// Bounds returns January 1st of From and December 31st of To
func (s YearSpan) Bounds() (time.Time, time.Time) {
	return dateutil.Date(s.From, time.January, 1), dateutil.Date(s.To, time.December, 31)
}

// normalize truncates dates to civil days and fills the default country
func normalize(records []Holiday, country string) []Holiday {
	out := make([]Holiday, 0, len(records))
	for _, h := range records {
		h.Date = dateutil.DateOf(h.Date)
		if h.CountryCode == "" {
			h.CountryCode = country
		}
		out = append(out, h)
	}
	return out
}

// filterRange keeps the records within [from, to] and sorts them by date
func filterRange(records []Holiday, from, to time.Time) []Holiday {
	from, to = dateutil.DateOf(from), dateutil.DateOf(to)

	out := make([]Holiday, 0, len(records))
	for _, h := range records {
		d := dateutil.DateOf(h.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, h)
	}
	sortByDate(out)
	return out
}

func sortByDate(records []Holiday) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// monthsBetween lists the first day of every month touched by [from, to]
func monthsBetween(from, to time.Time) []time.Time {
	from, to = dateutil.DateOf(from), dateutil.DateOf(to)
	if to.Before(from) {
		return nil
	}

	var months []time.Time
	cur := dateutil.StartOfMonth(from.Year(), from.Month())
	for !cur.After(to) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}
