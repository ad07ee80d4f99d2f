package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

// HTTPProvider implements Provider against a holiday REST backend:
//
//	GET {base}/holidays
//	GET {base}/holidays/range?start=YYYY-MM-DD&end=YYYY-MM-DD
//
// Both endpoints answer with a JSON array of holidays.
type HTTPProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	retries    int
	retryDelay time.Duration
	cacheTTL   time.Duration

	cacheMu sync.RWMutex
	cache   *cachedHolidays
}

type cachedHolidays struct {
	data      []Holiday
	fetchedAt time.Time
}

// NewHTTPProvider creates a new HTTPProvider. An empty token sends no
// Authorization header; a zero cacheTTL disables caching of FetchAll.
func NewHTTPProvider(baseURL, token string, cacheTTL time.Duration, logger *zap.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:     logger,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		cacheTTL:   cacheTTL,
	}
}

// FetchAll returns every holiday known to the backend
func (p *HTTPProvider) FetchAll(ctx context.Context) ([]Holiday, error) {
	p.cacheMu.RLock()
	if p.cache != nil && time.Since(p.cache.fetchedAt) < p.cacheTTL {
		data := p.cache.data
		p.cacheMu.RUnlock()
		p.logger.Debug("Using cached holidays", zap.Int("count", len(data)))
		return data, nil
	}
	p.cacheMu.RUnlock()

	var records []Holiday
	if err := p.doRequest(ctx, "/holidays", &records); err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}
	records = normalize(records, DefaultCountry)
	sortByDate(records)

	if p.cacheTTL > 0 {
		p.cacheMu.Lock()
		p.cache = &cachedHolidays{data: records, fetchedAt: time.Now()}
		p.cacheMu.Unlock()
	}

	p.logger.Info("Holidays fetched",
		zap.String("url", p.baseURL),
		zap.Int("count", len(records)))

	return records, nil
}

// FetchRange returns the holidays between from and to
func (p *HTTPProvider) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	query := url.Values{}
	query.Set("start", dateutil.Format(from))
	query.Set("end", dateutil.Format(to))

	var records []Holiday
	if err := p.doRequest(ctx, "/holidays/range?"+query.Encode(), &records); err != nil {
		return nil, fmt.Errorf("failed to fetch holidays in range: %w", err)
	}

	// the backend is trusted for the range, but not for ordering
	return filterRange(normalize(records, DefaultCountry), from, to), nil
}

// ClearCache drops the cached FetchAll result
func (p *HTTPProvider) ClearCache() {
	p.cacheMu.Lock()
	p.cache = nil
	p.cacheMu.Unlock()
}

// doRequest performs a GET with retries
func (p *HTTPProvider) doRequest(ctx context.Context, path string, result interface{}) error {
	endpoint := p.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= p.retries; attempt++ {
		err := p.doRequestOnce(ctx, endpoint, result)
		if err == nil {
			return nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return err
		}

		p.logger.Warn("Request failed, retrying",
			zap.String("url", endpoint),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", p.retries),
			zap.Error(err))

		if attempt < p.retries {
			select {
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", p.retries, lastErr)
}

// doRequestOnce performs a single HTTP request
func (p *HTTPProvider) doRequestOnce(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
