package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

func newTestIsDayOff(fallbackURL string, ttl time.Duration) *IsDayOffProvider {
	return NewIsDayOffProvider(fallbackURL, YearSpan{From: 2025, To: 2025}, ttl, zap.NewNop())
}

func TestParseBulkResponse(t *testing.T) {
	tests := []struct {
		name        string
		year        int
		month       time.Month
		data        string
		wantRecords int
		wantOff     int
	}{
		{
			name:        "November 2025",
			year:        2025,
			month:       time.November,
			data:        "211100011000001100000110000011", // 30 days
			wantRecords: 3,                                // Nov 1 shortened Saturday, Nov 3-4 off
			wantOff:     2,
		},
		{
			name:        "July 2025",
			year:        2025,
			month:       time.July,
			data:        "0000110000011000001100000110000", // 31 days, plain weeks
			wantRecords: 0,
			wantOff:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := parseBulkResponse(tt.year, tt.month, tt.data)
			if err != nil {
				t.Fatalf("parseBulkResponse() error = %v", err)
			}

			if len(records) != tt.wantRecords {
				t.Errorf("records = %d, want %d", len(records), tt.wantRecords)
			}

			off := 0
			for _, h := range records {
				if !h.IsWorkingDay {
					off++
				}
			}
			if off != tt.wantOff {
				t.Errorf("non-working records = %d, want %d", off, tt.wantOff)
			}
		})
	}
}

func TestParseBulkResponse_ShortenedDay(t *testing.T) {
	// November 2025: first day (Nov 1, a Saturday) is a shortened working day
	records, err := parseBulkResponse(2025, time.November, "211100011000001100000110000011")
	if err != nil {
		t.Fatalf("parseBulkResponse() error = %v", err)
	}

	nov1 := records[0]
	if !nov1.Date.Equal(dateutil.Date(2025, time.November, 1)) {
		t.Fatalf("first record date = %v, want 2025-11-01", nov1.Date)
	}
	if nov1.Type != TypeShortened {
		t.Errorf("Nov 1 Type = %v, want %v", nov1.Type, TypeShortened)
	}
	if !nov1.IsWorkingDay {
		t.Errorf("Nov 1 IsWorkingDay = false, want true")
	}
	if nov1.CountryCode != isdayoffCountry {
		t.Errorf("Nov 1 CountryCode = %q, want %q", nov1.CountryCode, isdayoffCountry)
	}
}

func TestParseBulkResponse_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"too short", "21110001100000110000011000001"},
		{"unknown code", "911100011000001100000110000011"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseBulkResponse(2025, time.November, tt.data); err == nil {
				t.Error("parseBulkResponse() expected error, got nil")
			}
		})
	}
}

func TestParseXMLCalendarMonth(t *testing.T) {
	p := newTestIsDayOff("", time.Hour)

	tests := []struct {
		name        string
		year        int
		month       time.Month
		daysStr     string
		wantRecords int
	}{
		{
			name:        "November 2025",
			year:        2025,
			month:       time.November,
			daysStr:     "1*,2,3+,4,8,9,15,16,22,23,29,30",
			wantRecords: 3,
		},
		{
			name:        "July 2025",
			year:        2025,
			month:       time.July,
			daysStr:     "5,6,12,13,19,20,26,27",
			wantRecords: 0,
		},
		{
			name:        "Unlisted Saturday is a transferred working day",
			year:        2025,
			month:       time.July,
			daysStr:     "6,12,13,19,20,26,27",
			wantRecords: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := p.parseXMLCalendarMonth(tt.year, tt.month, &xmlCalendarMonth{
				Month: int(tt.month),
				Days:  tt.daysStr,
			})

			if len(records) != tt.wantRecords {
				t.Errorf("records = %d, want %d: %+v", len(records), tt.wantRecords, records)
			}
		})
	}
}

func TestParseXMLCalendarMonth_Markers(t *testing.T) {
	p := newTestIsDayOff("", time.Hour)

	records := p.parseXMLCalendarMonth(2025, time.November, &xmlCalendarMonth{
		Month: 11,
		Days:  "1*,2,3+,4,8,9,15,16,22,23,29,30",
	})
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	if records[0].Type != TypeShortened || !records[0].IsWorkingDay {
		t.Errorf("Nov 1 = %+v, want shortened working day", records[0])
	}

	nov3 := records[1]
	if nov3.Date.Day() != 3 || nov3.Type != TypeTransferred || nov3.IsWorkingDay {
		t.Errorf("Nov 3 = %+v, want transferred day off", nov3)
	}

	nov4 := records[2]
	if nov4.Date.Day() != 4 || nov4.Type != TypePublic || nov4.IsWorkingDay {
		t.Errorf("Nov 4 = %+v, want public day off", nov4)
	}
}

func TestIsDayOffProvider_FetchRangeUsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("month") != "11" || r.URL.Query().Get("year") != "2025" {
			http.Error(w, "unexpected month", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, "211100011000001100000110000011")
	}))
	defer server.Close()

	p := newTestIsDayOff("", time.Hour)
	p.baseURL = server.URL

	from := dateutil.Date(2025, time.November, 2)
	to := dateutil.Date(2025, time.November, 30)
	for i := 0; i < 2; i++ {
		records, err := p.FetchRange(context.Background(), from, to)
		if err != nil {
			t.Fatalf("FetchRange() error = %v", err)
		}
		// Nov 1 falls outside the range
		if len(records) != 2 {
			t.Errorf("FetchRange() records = %d, want 2", len(records))
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("API calls = %d, want 1", got)
	}
}

func TestIsDayOffProvider_Fallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/getdata", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/data/2025/calendar.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"year":2025,"months":[{"month":11,"days":"1*,2,3+,4,8,9,15,16,22,23,29,30"}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := newTestIsDayOff(server.URL+"/data/{year}/calendar.json", time.Hour)
	p.baseURL = server.URL

	records, err := p.FetchRange(context.Background(),
		dateutil.Date(2025, time.November, 1), dateutil.Date(2025, time.November, 30))
	if err != nil {
		t.Fatalf("FetchRange() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("FetchRange() records = %d, want 3", len(records))
	}

	// December is absent from the fallback year
	_, err = p.FetchRange(context.Background(),
		dateutil.Date(2025, time.December, 1), dateutil.Date(2025, time.December, 31))
	if err == nil {
		t.Error("FetchRange() expected error for month missing in both sources")
	}
}

func TestIsDayOffProvider_ClearCache(t *testing.T) {
	p := newTestIsDayOff("", time.Hour)

	p.cacheMu.Lock()
	p.cache["2025-11"] = &cachedMonth{
		data:      []Holiday{{Date: dateutil.Date(2025, time.November, 4)}},
		fetchedAt: time.Now(),
	}
	p.cacheMu.Unlock()

	records, err := p.getMonth(context.Background(), 2025, time.November)
	if err != nil {
		t.Fatalf("getMonth() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("cached records = %d, want 1", len(records))
	}

	p.ClearCache()

	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	if len(p.cache) != 0 {
		t.Errorf("Cache not cleared, len = %d", len(p.cache))
	}
}
