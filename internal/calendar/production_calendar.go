package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

// productionDayShortened is the production-calendar.ru type_id of a pre-holiday day
const productionDayShortened = 4

// ProductionCalendarProvider implements Provider using production-calendar.ru API
type ProductionCalendarProvider struct {
	apiURL     string
	apiToken   string
	country    string
	span       YearSpan
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[string]*cachedMonth
	cacheMu    sync.RWMutex
}

// productionCalendarResponse represents API response
type productionCalendarResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"country_code"`
	DTStart     string `json:"dt_start"`
	DTEnd       string `json:"dt_end"`
	Statistic   struct {
		CalendarDays int `json:"calendar_days"`
		WorkDays     int `json:"work_days"`
		Weekends     int `json:"weekends"`
		Holidays     int `json:"holidays"`
		WorkingHours int `json:"working_hours"`
	} `json:"statistic"`
	Days json.RawMessage `json:"days"` // Can be array OR error string (guest token limitation)
}

// productionDay represents a single day in the calendar
type productionDay struct {
	Date         string `json:"date"`
	TypeID       int    `json:"type_id"`
	TypeText     string `json:"type_text"`
	Note         string `json:"note,omitempty"`
	WeekDay      string `json:"week_day"`
	WorkingHours int    `json:"working_hours"`
}

// NewProductionCalendarProvider creates a new ProductionCalendarProvider instance
func NewProductionCalendarProvider(apiURL, apiToken, country string, span YearSpan, cacheTTL time.Duration, logger *zap.Logger) *ProductionCalendarProvider {
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &ProductionCalendarProvider{
		apiURL:   apiURL,
		apiToken: apiToken,
		country:  country,
		span:     span.Resolve(time.Now()),
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger: logger,
		cache:  make(map[string]*cachedMonth),
	}
}

// FetchAll returns the records for every month of the configured year span
func (pc *ProductionCalendarProvider) FetchAll(ctx context.Context) ([]Holiday, error) {
	from, to := pc.span.Bounds()
	return pc.FetchRange(ctx, from, to)
}

// FetchRange returns the records for the months touched by [from, to]
func (pc *ProductionCalendarProvider) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	var records []Holiday
	for _, m := range monthsBetween(from, to) {
		monthRecords, err := pc.getMonth(ctx, m.Year(), m.Month())
		if err != nil {
			return nil, err
		}
		records = append(records, monthRecords...)
	}
	return filterRange(records, from, to), nil
}

func (pc *ProductionCalendarProvider) getMonth(ctx context.Context, year int, month time.Month) ([]Holiday, error) {
	cacheKey := fmt.Sprintf("%d-%02d", year, month)

	pc.cacheMu.RLock()
	if cached, ok := pc.cache[cacheKey]; ok {
		if time.Since(cached.fetchedAt) < pc.cacheTTL {
			pc.cacheMu.RUnlock()
			pc.logger.Debug("Using cached month info",
				zap.Int("year", year),
				zap.Int("month", int(month)))
			return cached.data, nil
		}
	}
	pc.cacheMu.RUnlock()

	records, err := pc.fetchMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	pc.cacheMu.Lock()
	pc.cache[cacheKey] = &cachedMonth{
		data:      records,
		fetchedAt: time.Now(),
	}
	pc.cacheMu.Unlock()

	pc.logger.Info("Month info fetched and cached",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("holidays", len(records)))

	return records, nil
}

// fetchMonth fetches month info from API
func (pc *ProductionCalendarProvider) fetchMonth(ctx context.Context, year int, month time.Month) ([]Holiday, error) {
	// Build URL: https://production-calendar.ru/get-period/{token}/{country}/{MM.YYYY}/json
	period := fmt.Sprintf("%02d.%d", month, year)
	url := fmt.Sprintf("%s/get-period/%s/%s/%s/json",
		pc.apiURL, pc.apiToken, pc.country, period)

	pc.logger.Debug("Fetching calendar data",
		zap.Int("year", year),
		zap.Int("month", int(month)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var apiResp productionCalendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	if apiResp.Status != "ok" {
		return nil, fmt.Errorf("API returned status: %s", apiResp.Status)
	}

	// Days is an error message string for guest tokens
	var days []productionDay
	if err := json.Unmarshal(apiResp.Days, &days); err != nil {
		var errorMsg string
		if err2 := json.Unmarshal(apiResp.Days, &errorMsg); err2 == nil {
			return nil, fmt.Errorf("API error: %s", errorMsg)
		}
		return nil, fmt.Errorf("failed to parse days: %w", err)
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("period %s: %w", period, ErrNoData)
	}

	return pc.convertDays(days), nil
}

func (pc *ProductionCalendarProvider) convertDays(days []productionDay) []Holiday {
	var records []Holiday
	for _, apiDay := range days {
		// Parse date (format: DD.MM.YYYY)
		date, err := dateutil.ParseDate(apiDay.Date)
		if err != nil {
			pc.logger.Warn("Failed to parse date",
				zap.String("date", apiDay.Date),
				zap.Error(err))
			continue
		}

		working := apiDay.WorkingHours > 0
		shortened := apiDay.TypeID == productionDayShortened
		h, ok := dayRecord(date, working, shortened)
		if !ok {
			continue
		}

		h.CountryCode = pc.country
		if apiDay.Note != "" {
			h.Name = apiDay.Note
		}
		h.Description = apiDay.TypeText
		records = append(records, h)
	}
	return records
}

// ClearCache clears the cache
func (pc *ProductionCalendarProvider) ClearCache() {
	pc.cacheMu.Lock()
	defer pc.cacheMu.Unlock()

	pc.cache = make(map[string]*cachedMonth)
	pc.logger.Info("Calendar cache cleared")
}
