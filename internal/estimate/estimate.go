// Package estimate converts the estimate representations seen at the API
// boundary into a number of working days.
//
// Durations use business units: 1 week = 5 days and 1 day = HoursPerDay
// hours (8 by default). Supported forms:
//   - "1.5"        -> 1.5 days
//   - "P1D"        -> 1 day
//   - "P1W"        -> 5 days
//   - "P1W2D"      -> 7 days
//   - "PT12H"      -> 1.5 days
//   - "P2DT4H"     -> 2.5 days
//   - "PT4.5H"     -> 0.5625 days
//   - {seconds: n} -> n / (HoursPerDay * 3600) days
package estimate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultHoursPerDay is the length of a business day
const DefaultHoursPerDay = 8

// ErrInvalidEstimate is returned for values that are not a usable estimate
var ErrInvalidEstimate = errors.New("invalid estimate")

var isoDuration = regexp.MustCompile(`^P(?:(\d+(?:[.,]\d+)?)W)?(?:(\d+(?:[.,]\d+)?)D)?(?:T(?:(\d+(?:[.,]\d+)?)H)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

// Parser normalizes estimates for a given business-day length
type Parser struct {
	HoursPerDay float64
}

// Default uses an eight hour day
var Default = NewParser(DefaultHoursPerDay)

// NewParser creates a Parser; non-positive hoursPerDay falls back to the default
func NewParser(hoursPerDay float64) Parser {
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}
	return Parser{HoursPerDay: hoursPerDay}
}

// Parse converts a decimal number of days or an ISO 8601 duration to days
func (p Parser) Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidEstimate)
	}

	if days, err := strconv.ParseFloat(s, 64); err == nil {
		return checked(days)
	}

	upper := strings.ToUpper(s)
	m := isoDuration.FindStringSubmatch(upper)
	if m == nil || upper == "P" || strings.HasSuffix(upper, "T") {
		return 0, fmt.Errorf("%w: %q is not a number or ISO 8601 duration", ErrInvalidEstimate, s)
	}

	hours := 0.0
	hours += component(m[1]) * 5 * p.HoursPerDay // weeks
	hours += component(m[2]) * p.HoursPerDay     // days
	hours += component(m[3])                     // hours
	hours += component(m[4]) / 60                // minutes
	hours += component(m[5]) / 3600              // seconds

	return checked(hours / p.HoursPerDay)
}

// FromSeconds converts a duration in seconds to days
func (p Parser) FromSeconds(seconds float64) (float64, error) {
	return checked(seconds / (p.HoursPerDay * 3600))
}

// Normalize accepts the shapes an estimate arrives in from decoded JSON:
// strings, numbers (already in days), json.Number, and {"seconds": n}
// objects. A nil value is an absent estimate and normalizes to 0.
func (p Parser) Normalize(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		return p.Parse(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidEstimate, err)
		}
		return checked(f)
	case float64:
		return checked(x)
	case float32:
		return checked(float64(x))
	case int:
		return checked(float64(x))
	case int32:
		return checked(float64(x))
	case int64:
		return checked(float64(x))
	case uint:
		return checked(float64(x))
	case uint32:
		return checked(float64(x))
	case uint64:
		return checked(float64(x))
	case map[string]any:
		return p.fromObject(x)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidEstimate, v)
	}
}

// fromObject reads a serialized java.time.Duration: {"seconds": n, "nano": m}
func (p Parser) fromObject(obj map[string]any) (float64, error) {
	raw, ok := obj["seconds"]
	if !ok {
		return 0, fmt.Errorf("%w: object without seconds", ErrInvalidEstimate)
	}

	seconds, err := number(raw)
	if err != nil {
		return 0, err
	}
	if nanoRaw, ok := obj["nano"]; ok {
		nano, err := number(nanoRaw)
		if err != nil {
			return 0, err
		}
		seconds += nano / 1e9
	}
	return p.FromSeconds(seconds)
}

// Format renders days as the duration posted back to the backend
func Format(days float64) string {
	return "P" + strconv.FormatFloat(days, 'f', -1, 64) + "D"
}

// Parse normalizes s with the default eight hour day
func Parse(s string) (float64, error) {
	return Default.Parse(s)
}

// Normalize normalizes v with the default eight hour day
func Normalize(v any) (float64, error) {
	return Default.Normalize(v)
}

func component(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	return f
}

func number(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidEstimate, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidEstimate, v)
	}
}

// checked rejects NaN and infinities. Zero and negative values are returned
// as is; the scheduler treats them as not computable.
func checked(days float64) (float64, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return 0, fmt.Errorf("%w: not a finite number", ErrInvalidEstimate)
	}
	return days, nil
}
