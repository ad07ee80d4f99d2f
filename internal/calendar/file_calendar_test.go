package calendar

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

const sampleCalendar = `# holidays for 2025
2025-01-01 off public New Year's Day

2025-01-10 off company Founders Day
2025-01-20 working company Offsite
2025-13-01 off public Broken month
2025-02-03 maybe public Unknown kind
2025-02-04 off
31.12.2025 off public New Year's Eve
`

func writeCalendarFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holidays.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write calendar file: %v", err)
	}
	return path
}

func TestFileProvider_FetchAll(t *testing.T) {
	fp := NewFileProvider(writeCalendarFile(t, sampleCalendar), zap.NewNop())

	records, err := fp.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	// malformed lines are skipped, the rest kept
	if len(records) != 4 {
		t.Fatalf("FetchAll() = %d records, want 4: %+v", len(records), records)
	}

	tests := []struct {
		idx        int
		date       time.Time
		name       string
		typ        string
		workingDay bool
	}{
		{0, dateutil.Date(2025, 1, 1), "New Year's Day", TypePublic, false},
		{1, dateutil.Date(2025, 1, 10), "Founders Day", TypeCompany, false},
		{2, dateutil.Date(2025, 1, 20), "Offsite", TypeCompany, true},
		{3, dateutil.Date(2025, 12, 31), "New Year's Eve", TypePublic, false},
	}

	for _, tt := range tests {
		got := records[tt.idx]
		if !got.Date.Equal(tt.date) || got.Name != tt.name || got.Type != tt.typ || got.IsWorkingDay != tt.workingDay {
			t.Errorf("records[%d] = %+v, want %v %q %q working=%v", tt.idx, got, tt.date, tt.name, tt.typ, tt.workingDay)
		}
		if got.CountryCode != DefaultCountry {
			t.Errorf("records[%d].CountryCode = %q, want %q", tt.idx, got.CountryCode, DefaultCountry)
		}
	}
}

func TestFileProvider_FetchRange(t *testing.T) {
	fp := NewFileProvider(writeCalendarFile(t, sampleCalendar), zap.NewNop())

	records, err := fp.FetchRange(context.Background(), dateutil.Date(2025, 1, 5), dateutil.Date(2025, 1, 20))
	if err != nil {
		t.Fatalf("FetchRange() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("FetchRange() = %d records, want 2", len(records))
	}
}

func TestFileProvider_MissingFile(t *testing.T) {
	fp := NewFileProvider(filepath.Join(t.TempDir(), "absent.txt"), zap.NewNop())

	if _, err := fp.FetchAll(context.Background()); err == nil {
		t.Error("FetchAll() expected error for missing file")
	}
}

func TestFileProvider_ReloadsOnFetch(t *testing.T) {
	path := writeCalendarFile(t, "2025-01-01 off public New Year's Day\n")
	fp := NewFileProvider(path, zap.NewNop())

	first, err := fp.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if err := os.WriteFile(path, []byte(sampleCalendar), 0o644); err != nil {
		t.Fatalf("failed to rewrite calendar file: %v", err)
	}

	second, err := fp.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(first) != 1 || len(second) != 4 {
		t.Errorf("FetchAll() = %d then %d records, want 1 then 4", len(first), len(second))
	}
}

func TestWriteHolidays(t *testing.T) {
	records := []Holiday{
		{Date: dateutil.Date(2025, 1, 1), Name: "New Year's Day", Type: TypePublic},
		{Date: dateutil.Date(2025, 1, 20), Name: "Offsite", Type: TypeCompany, IsWorkingDay: true},
		{Date: dateutil.Date(2025, 2, 1)},
	}

	var buf bytes.Buffer
	if err := WriteHolidays(&buf, records); err != nil {
		t.Fatalf("WriteHolidays() error = %v", err)
	}

	want := "2025-01-01 off public New Year's Day\n" +
		"2025-01-20 working company Offsite\n" +
		"2025-02-01 off public\n"
	if buf.String() != want {
		t.Errorf("WriteHolidays() =\n%s\nwant\n%s", buf.String(), want)
	}

	fp := NewFileProvider("", zap.NewNop())
	parsed, err := fp.parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if len(parsed) != len(records) {
		t.Errorf("parse() = %d records, want %d", len(parsed), len(records))
	}
}

func TestWriteHolidays_WhitespaceInFields(t *testing.T) {
	// ICS categories and backend types may carry spaces
	records := []Holiday{
		{Date: dateutil.Date(2025, 5, 26), Name: "Memorial Day", Type: "bank holiday"},
		{Date: dateutil.Date(2025, 12, 24), Name: "Christmas\nEve", Type: " observance\t"},
	}

	var buf bytes.Buffer
	if err := WriteHolidays(&buf, records); err != nil {
		t.Fatalf("WriteHolidays() error = %v", err)
	}

	fp := NewFileProvider("", zap.NewNop())
	parsed, err := fp.parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parse() = %d records, want 2:\n%s", len(parsed), buf.String())
	}

	tests := []struct {
		wantType string
		wantName string
	}{
		{"bank-holiday", "Memorial Day"},
		{"observance", "Christmas Eve"},
	}
	for i, tt := range tests {
		if parsed[i].Type != tt.wantType || parsed[i].Name != tt.wantName {
			t.Errorf("record %d = %q %q, want %q %q", i, parsed[i].Type, parsed[i].Name, tt.wantType, tt.wantName)
		}
	}
}
