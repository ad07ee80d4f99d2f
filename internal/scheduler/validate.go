package scheduler

import (
	"fmt"
	"time"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

// Reason identifies why an end date was rejected
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNonWorking Reason = "non-working"
	ReasonPrecedes   Reason = "precedes"
	ReasonMismatch   Reason = "mismatch"
)

const (
	msgNonWorking = "selected end date falls on a non-working day"
	msgPrecedes   = "selected end date precedes the earliest possible end date"
	msgMismatch   = "selected end date does not match the computed end date"
)

// Verdict is the outcome of ValidateEndDate. Expected is zero when there was
// nothing to validate.
type Verdict struct {
	Valid    bool      `json:"valid"`
	Message  string    `json:"message,omitempty"`
	Reason   Reason    `json:"reason,omitempty"`
	Expected time.Time `json:"-"`
}

// ValidateEndDate checks a user-chosen end date against ComputeEndDate.
//
// Validation only engages once start, a positive estimate and candidate are
// all present; until then the verdict is valid. A candidate on a disabled
// date is rejected as non-working before it is compared with the expected
// date.
func (s *Scheduler) ValidateEndDate(start time.Time, estimateDays float64, candidate time.Time) Verdict {
	if candidate.IsZero() {
		return Verdict{Valid: true}
	}

	expected, ok := s.ComputeEndDate(start, estimateDays)
	if !ok {
		return Verdict{Valid: true}
	}

	switch {
	case s.ShouldDisableDate(candidate):
		return reject(ReasonNonWorking, msgNonWorking, expected)
	case dateutil.Before(candidate, expected):
		return reject(ReasonPrecedes, msgPrecedes, expected)
	case dateutil.After(candidate, expected):
		return reject(ReasonMismatch, msgMismatch, expected)
	}

	return Verdict{Valid: true, Expected: expected}
}

func reject(reason Reason, msg string, expected time.Time) Verdict {
	return Verdict{
		Valid:    false,
		Message:  fmt.Sprintf("%s (expected %s)", msg, dateutil.Format(expected)),
		Reason:   reason,
		Expected: expected,
	}
}
