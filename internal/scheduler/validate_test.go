package scheduler

import (
	"strings"
	"testing"
	"time"

	"github.com/username/workday-scheduler/internal/calendar"
)

func TestValidateEndDate(t *testing.T) {
	plain := New(nil)
	holiday := New(calendar.NewSnapshot([]calendar.Holiday{
		{Date: d("2025-01-08"), Name: "Company day"},
	}))

	tests := []struct {
		name       string
		s          *Scheduler
		start      time.Time
		estimate   float64
		candidate  time.Time
		wantValid  bool
		wantReason Reason
		wantText   string
	}{
		{"Exact match", plain, d("2025-01-06"), 5, d("2025-01-10"), true, ReasonNone, ""},
		{"Saturday candidate", plain, d("2025-01-06"), 5, d("2025-01-11"), false, ReasonNonWorking, "non-working day"},
		{"Holiday candidate", holiday, d("2025-01-06"), 1, d("2025-01-08"), false, ReasonNonWorking, "non-working day"},
		{"Too early", plain, d("2025-01-06"), 5, d("2025-01-08"), false, ReasonPrecedes, "precedes the earliest possible end date"},
		{"Too late", plain, d("2025-01-06"), 5, d("2025-01-14"), false, ReasonMismatch, "does not match"},
		{"Non-working wins over precedes", plain, d("2025-01-06"), 10, d("2025-01-11"), false, ReasonNonWorking, "non-working day"},
		{"Fractional estimate", plain, d("2025-01-06"), 1.5, d("2025-01-07"), true, ReasonNone, ""},
		{"Missing start", plain, time.Time{}, 5, d("2025-01-11"), true, ReasonNone, ""},
		{"Missing estimate", plain, d("2025-01-06"), 0, d("2025-01-11"), true, ReasonNone, ""},
		{"Negative estimate", plain, d("2025-01-06"), -2, d("2025-01-11"), true, ReasonNone, ""},
		{"Missing candidate", plain, d("2025-01-06"), 5, time.Time{}, true, ReasonNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.s.ValidateEndDate(tt.start, tt.estimate, tt.candidate)

			if got.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (%q)", got.Valid, tt.wantValid, got.Message)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantValid && got.Message != "" {
				t.Errorf("Message = %q, want empty", got.Message)
			}
			if !strings.Contains(got.Message, tt.wantText) {
				t.Errorf("Message = %q, want it to contain %q", got.Message, tt.wantText)
			}
		})
	}
}

func TestValidateEndDate_MessageCarriesExpected(t *testing.T) {
	got := New(nil).ValidateEndDate(d("2025-01-06"), 5, d("2025-01-09"))

	if !got.Expected.Equal(d("2025-01-10")) {
		t.Errorf("Expected = %v, want 2025-01-10", got.Expected)
	}
	want := "selected end date precedes the earliest possible end date (expected 2025-01-10)"
	if got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}
