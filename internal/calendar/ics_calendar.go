package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second

	// icsWorkingCategory marks an event as a holiday that is still worked
	icsWorkingCategory = "WORKING"
)

// ICSProvider implements Provider over an iCalendar feed. Every day covered
// by an event becomes a record; SUMMARY is the name, the first CATEGORIES
// entry the type. Events categorized WORKING are working holidays.
type ICSProvider struct {
	source     string
	country    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewICSProvider creates a provider reading source, which is a file path or an
// http(s):// or webcal:// URL
func NewICSProvider(source, country string, logger *zap.Logger) *ICSProvider {
	if country == "" {
		country = DefaultCountry
	}
	return &ICSProvider{
		source:     source,
		country:    country,
		httpClient: &http.Client{Timeout: icsFetchTimeout},
		logger:     logger,
	}
}

// FetchAll reads and parses the whole feed
func (p *ICSProvider) FetchAll(ctx context.Context) ([]Holiday, error) {
	rc, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, err := p.parse(rc)
	if err != nil {
		return nil, err
	}

	p.logger.Info("ICS calendar loaded",
		zap.String("source", p.source),
		zap.Int("holidays", len(records)))

	return records, nil
}

// FetchRange returns the feed's records between from and to
func (p *ICSProvider) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	all, err := p.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterRange(all, from, to), nil
}

func (p *ICSProvider) open(ctx context.Context) (io.ReadCloser, error) {
	u := p.source
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		f, err := os.Open(u)
		if err != nil {
			return nil, fmt.Errorf("failed to open ICS file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ICS: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch ICS: HTTP %d", resp.StatusCode)
	}

	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

func (p *ICSProvider) parse(r io.Reader) ([]Holiday, error) {
	calendar, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS: %w", err)
	}

	var records []Holiday
	for _, evt := range calendar.Events() {
		records = append(records, p.eventRecords(evt)...)
	}
	sortByDate(records)
	return records, nil
}

// eventRecords expands an all-day event into one record per covered day.
// DTEND of an all-day event is exclusive; a missing DTEND means a single day.
func (p *ICSProvider) eventRecords(evt *ics.VEvent) []Holiday {
	start, err := evt.GetAllDayStartAt()
	if err != nil {
		p.logger.Warn("Skipping event without a start date", zap.Error(err))
		return nil
	}
	start = dateutil.DateOf(start)

	end := dateutil.NextDay(start)
	if prop := evt.GetProperty(ics.ComponentPropertyDtEnd); prop != nil {
		if d, err := dateutil.ParseDate(prop.Value[:min(len(prop.Value), 8)]); err == nil && d.After(start) {
			end = d
		}
	}

	name := propertyValue(evt, ics.ComponentPropertySummary)
	description := propertyValue(evt, ics.ComponentPropertyDescription)

	typ := TypePublic
	working := false
	for _, category := range strings.Split(propertyValue(evt, ics.ComponentPropertyCategories), ",") {
		category = strings.TrimSpace(category)
		switch {
		case category == "":
		case strings.EqualFold(category, icsWorkingCategory):
			working = true
		case typ == TypePublic:
			typ = strings.ToLower(category)
		}
	}

	var records []Holiday
	for d := start; d.Before(end); d = dateutil.NextDay(d) {
		records = append(records, Holiday{
			Date:         d,
			Name:         name,
			Type:         typ,
			IsWorkingDay: working,
			Description:  description,
			CountryCode:  p.country,
		})
	}
	return records
}

func propertyValue(evt *ics.VEvent, name ics.ComponentProperty) string {
	prop := evt.GetProperty(name)
	if prop == nil {
		return ""
	}
	return strings.TrimSpace(prop.Value)
}
