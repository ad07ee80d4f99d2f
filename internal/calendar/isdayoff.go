package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

const (
	isdayoffBaseURL    = "https://isdayoff.ru"
	isdayoffCountry    = "RUS"
	defaultHTTPTimeout = 10 * time.Second
	defaultCacheTTL    = 24 * time.Hour
)

// IsDayOffProvider implements Provider using the isdayoff.ru bulk API with
// xmlcalendar.ru as a per-year fallback.
//
// Both sources describe every day of a month; only the days that differ from
// the plain Monday-Friday week become records: non-working weekdays,
// shortened days and weekend days moved to working.
type IsDayOffProvider struct {
	baseURL      string
	fallbackURL  string
	span         YearSpan
	httpClient   *http.Client
	logger       *zap.Logger
	cache        map[string]*cachedMonth
	cacheMu      sync.RWMutex
	cacheTTL     time.Duration
	fallbackData map[int]*xmlCalendarYear // year → calendar data
}

type cachedMonth struct {
	data      []Holiday
	fetchedAt time.Time
}

// xmlCalendarYear represents xmlcalendar.ru JSON structure
type xmlCalendarYear struct {
	Year      int                `json:"year"`
	Months    []xmlCalendarMonth `json:"months"`
	Statistic struct {
		Workdays int     `json:"workdays"`
		Holidays int     `json:"holidays"`
		Hours40  float64 `json:"hours40"`
	} `json:"statistic"`
	Transitions []xmlTransition `json:"transitions"`
}

type xmlCalendarMonth struct {
	Month int    `json:"month"`
	Days  string `json:"days"` // "1*,2,3+,4,8,9,..." where * = shortened, + = transferred
}

type xmlTransition struct {
	From string `json:"from"` // "MM.DD"
	To   string `json:"to"`   // "MM.DD"
}

// NewIsDayOffProvider creates a new IsDayOffProvider instance
func NewIsDayOffProvider(fallbackURL string, span YearSpan, cacheTTL time.Duration, logger *zap.Logger) *IsDayOffProvider {
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &IsDayOffProvider{
		baseURL:     isdayoffBaseURL,
		fallbackURL: fallbackURL,
		span:        span.Resolve(time.Now()),
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:       logger,
		cache:        make(map[string]*cachedMonth),
		cacheTTL:     cacheTTL,
		fallbackData: make(map[int]*xmlCalendarYear),
	}
}

// FetchAll returns the records for every month of the configured year span
func (p *IsDayOffProvider) FetchAll(ctx context.Context) ([]Holiday, error) {
	from, to := p.span.Bounds()
	return p.FetchRange(ctx, from, to)
}

// FetchRange returns the records for the months touched by [from, to]
func (p *IsDayOffProvider) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	var records []Holiday
	for _, m := range monthsBetween(from, to) {
		monthRecords, err := p.getMonth(ctx, m.Year(), m.Month())
		if err != nil {
			return nil, err
		}
		records = append(records, monthRecords...)
	}
	return filterRange(records, from, to), nil
}

// getMonth returns the records of a month from cache, API or fallback
func (p *IsDayOffProvider) getMonth(ctx context.Context, year int, month time.Month) ([]Holiday, error) {
	cacheKey := fmt.Sprintf("%d-%02d", year, month)

	p.cacheMu.RLock()
	if cached, ok := p.cache[cacheKey]; ok {
		if time.Since(cached.fetchedAt) < p.cacheTTL {
			p.cacheMu.RUnlock()
			p.logger.Debug("Using cached month",
				zap.String("month", cacheKey))
			return cached.data, nil
		}
	}
	p.cacheMu.RUnlock()

	records, err := p.fetchMonthFromAPI(ctx, year, month)
	if err != nil {
		p.logger.Warn("Failed to fetch month from API, trying fallback",
			zap.Int("year", year),
			zap.Int("month", int(month)),
			zap.Error(err))

		var fallbackErr error
		records, fallbackErr = p.fetchMonthFromFallback(ctx, year, month)
		if fallbackErr != nil {
			return nil, fmt.Errorf("API and fallback both failed: API=%w, Fallback=%v", err, fallbackErr)
		}

		p.logger.Info("Using fallback data", zap.String("month", cacheKey))
	}

	p.cacheMu.Lock()
	p.cache[cacheKey] = &cachedMonth{
		data:      records,
		fetchedAt: time.Now(),
	}
	p.cacheMu.Unlock()

	return records, nil
}

// fetchMonthFromAPI fetches entire month from isdayoff.ru bulk API
func (p *IsDayOffProvider) fetchMonthFromAPI(ctx context.Context, year int, month time.Month) ([]Holiday, error) {
	// Build URL: https://isdayoff.ru/api/getdata?year=2025&month=11&pre=1
	url := fmt.Sprintf("%s/api/getdata?year=%d&month=%d&pre=1",
		p.baseURL, year, int(month))

	p.logger.Debug("Fetching month from isdayoff.ru",
		zap.String("url", url),
		zap.Int("year", year),
		zap.Int("month", int(month)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	records, err := parseBulkResponse(year, month, strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bulk response: %w", err)
	}

	p.logger.Info("Month fetched from API",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("holidays", len(records)))

	return records, nil
}

// parseBulkResponse parses isdayoff.ru bulk response string
// Format: "211100011000001100000110000011" where:
// 0 = working day
// 1 = non-working day (holiday/weekend)
// 2 = shortened day
func parseBulkResponse(year int, month time.Month, data string) ([]Holiday, error) {
	daysInMonth := dateutil.DaysInMonth(year, month)

	if len(data) != daysInMonth {
		return nil, fmt.Errorf("bulk data length mismatch: expected %d, got %d", daysInMonth, len(data))
	}

	var records []Holiday
	for i, code := range data {
		date := dateutil.Date(year, month, i+1)

		var h Holiday
		var ok bool
		switch code {
		case '0':
			h, ok = dayRecord(date, true, false)
		case '1':
			h, ok = dayRecord(date, false, false)
		case '2':
			h, ok = dayRecord(date, true, true)
		default:
			return nil, fmt.Errorf("unknown code '%c' at position %d", code, i)
		}
		if ok {
			records = append(records, h)
		}
	}

	return records, nil
}

// dayRecord turns one day of a full-month calendar into a record when the
// day deviates from the plain week
func dayRecord(date time.Time, working, shortened bool) (Holiday, bool) {
	h := Holiday{Date: date, CountryCode: isdayoffCountry}

	switch {
	case shortened:
		h.Name = "Shortened working day"
		h.Type = TypeShortened
		h.IsWorkingDay = true
	case working && dateutil.IsWeekend(date):
		h.Name = "Transferred working day"
		h.Type = TypeTransferred
		h.IsWorkingDay = true
	case !working && dateutil.IsWeekday(date):
		h.Name = "Non-working day"
		h.Type = TypePublic
	default:
		return Holiday{}, false
	}
	return h, true
}

// fetchMonthFromFallback fetches month from xmlcalendar.ru
func (p *IsDayOffProvider) fetchMonthFromFallback(ctx context.Context, year int, month time.Month) ([]Holiday, error) {
	if p.fallbackURL == "" {
		return nil, fmt.Errorf("fallback URL not configured")
	}

	p.cacheMu.RLock()
	yearData, exists := p.fallbackData[year]
	p.cacheMu.RUnlock()

	if !exists {
		var err error
		yearData, err = p.downloadFallbackYear(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("failed to download fallback data: %w", err)
		}

		p.cacheMu.Lock()
		p.fallbackData[year] = yearData
		p.cacheMu.Unlock()
	}

	var xmlMonth *xmlCalendarMonth
	for i := range yearData.Months {
		if yearData.Months[i].Month == int(month) {
			xmlMonth = &yearData.Months[i]
			break
		}
	}

	if xmlMonth == nil {
		return nil, fmt.Errorf("month %d of %d: %w", month, year, ErrNoData)
	}

	return p.parseXMLCalendarMonth(year, month, xmlMonth), nil
}

// downloadFallbackYear downloads entire year from xmlcalendar.ru
func (p *IsDayOffProvider) downloadFallbackYear(ctx context.Context, year int) (*xmlCalendarYear, error) {
	url := strings.ReplaceAll(p.fallbackURL, "{year}", strconv.Itoa(year))

	p.logger.Info("Downloading fallback calendar data",
		zap.String("url", url),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fallback data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback API returned status %d", resp.StatusCode)
	}

	var yearData xmlCalendarYear
	if err := json.NewDecoder(resp.Body).Decode(&yearData); err != nil {
		return nil, fmt.Errorf("failed to parse fallback JSON: %w", err)
	}

	p.logger.Info("Fallback data downloaded",
		zap.Int("year", year),
		zap.Int("months", len(yearData.Months)))

	return &yearData, nil
}

// parseXMLCalendarMonth parses xmlcalendar.ru compact format
// Format: "1*,2,3+,4,8,9,15,16,22,23,29,30"
// * = shortened day, + = transferred day, others = weekends/holidays.
// Days not listed are working days.
func (p *IsDayOffProvider) parseXMLCalendarMonth(year int, month time.Month, xmlMonth *xmlCalendarMonth) []Holiday {
	nonWorking := make(map[int]rune) // day → marker (* or + or 0)
	for _, part := range strings.Split(xmlMonth.Days, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		marker := rune(0)
		dayStr := part
		if strings.HasSuffix(part, "*") {
			marker = '*'
			dayStr = strings.TrimSuffix(part, "*")
		} else if strings.HasSuffix(part, "+") {
			marker = '+'
			dayStr = strings.TrimSuffix(part, "+")
		}

		day, err := strconv.Atoi(dayStr)
		if err != nil {
			p.logger.Warn("Failed to parse day number",
				zap.String("part", part),
				zap.Error(err))
			continue
		}

		nonWorking[day] = marker
	}

	var records []Holiday
	for day := 1; day <= dateutil.DaysInMonth(year, month); day++ {
		date := dateutil.Date(year, month, day)
		marker, listed := nonWorking[day]

		var h Holiday
		var ok bool
		switch {
		case marker == '*':
			h, ok = dayRecord(date, true, true)
		case listed:
			h, ok = dayRecord(date, false, false)
			if ok && marker == '+' {
				h.Name = "Transferred day off"
				h.Type = TypeTransferred
			}
		default:
			h, ok = dayRecord(date, true, false)
		}
		if ok {
			records = append(records, h)
		}
	}

	return records
}

// ClearCache clears the cache
func (p *IsDayOffProvider) ClearCache() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	p.cache = make(map[string]*cachedMonth)
	p.fallbackData = make(map[int]*xmlCalendarYear)
	p.logger.Info("Calendar cache cleared")
}
