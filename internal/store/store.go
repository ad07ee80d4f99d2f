// Package store keeps holiday records in a database and serves them as a
// calendar.Provider. Records are keyed by (date, country); writing a record
// for an existing key replaces it.
package store

import (
	"context"
	"time"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

// Store is a writable holiday source
type Store interface {
	calendar.Provider
	Upsert(ctx context.Context, records []calendar.Holiday) (int, error)
	Close() error
}

// prepare normalizes records before they are written. Records sharing a
// date and country collapse into the last one, keeping first-seen order: a
// single INSERT ... ON CONFLICT may not touch the same row twice.
func prepare(records []calendar.Holiday, country string) []calendar.Holiday {
	out := make([]calendar.Holiday, 0, len(records))
	seen := make(map[string]int, len(records))
	for _, h := range records {
		if h.Date.IsZero() {
			continue
		}
		h.Date = dateutil.DateOf(h.Date)
		if h.CountryCode == "" {
			h.CountryCode = country
		}
		if h.Type == "" {
			h.Type = calendar.TypePublic
		}

		key := dateutil.Key(h.Date) + "/" + h.CountryCode
		if i, ok := seen[key]; ok {
			out[i] = h
			continue
		}
		seen[key] = len(out)
		out = append(out, h)
	}
	return out
}

func countryOrDefault(country string) string {
	if country == "" {
		return calendar.DefaultCountry
	}
	return country
}

func rangeKeys(from, to time.Time) (string, string) {
	return dateutil.Format(dateutil.DateOf(from)), dateutil.Format(dateutil.DateOf(to))
}
