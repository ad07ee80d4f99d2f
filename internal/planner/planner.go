package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/internal/estimate"
	"github.com/username/workday-scheduler/internal/scheduler"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

// Planner fetches holidays from a provider and answers scheduling requests
// against a fresh snapshot
type Planner struct {
	provider    calendar.Provider
	parser      estimate.Parser
	hoursPerDay float64
	logger      *zap.Logger
}

// EndDateResult is the outcome of an end date computation
type EndDateResult struct {
	Start        time.Time `json:"-"`
	EstimateDays float64   `json:"estimateDays"`
	EndDate      time.Time `json:"-"`
	Computable   bool      `json:"computable"`
}

// NewPlanner creates a new planner
func NewPlanner(provider calendar.Provider, hoursPerDay float64, logger *zap.Logger) *Planner {
	parser := estimate.NewParser(hoursPerDay)
	return &Planner{
		provider:    provider,
		parser:      parser,
		hoursPerDay: parser.HoursPerDay,
		logger:      logger,
	}
}

// Snapshot fetches every holiday and indexes it
func (p *Planner) Snapshot(ctx context.Context) (*calendar.Snapshot, error) {
	records, err := p.provider.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}

	p.logger.Debug("Holiday snapshot built", zap.Int("holidays", len(records)))
	return calendar.NewSnapshot(records), nil
}

// Scheduler returns a scheduler over a fresh snapshot
func (p *Planner) Scheduler(ctx context.Context) (*scheduler.Scheduler, error) {
	snapshot, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.New(snapshot), nil
}

// EndDate computes the end date for an estimate in any form the estimate
// package accepts
func (p *Planner) EndDate(ctx context.Context, start time.Time, rawEstimate any) (*EndDateResult, error) {
	days, err := p.parser.Normalize(rawEstimate)
	if err != nil {
		return nil, err
	}

	s, err := p.Scheduler(ctx)
	if err != nil {
		return nil, err
	}

	end, ok := s.ComputeEndDate(start, days)
	result := &EndDateResult{
		Start:        dateutil.DateOf(start),
		EstimateDays: days,
		EndDate:      end,
		Computable:   ok,
	}

	p.logger.Info("End date computed",
		zap.String("start", dateutil.Format(start)),
		zap.Float64("estimate_days", days),
		zap.String("end", dateutil.Format(end)),
		zap.Bool("computable", ok))

	return result, nil
}

// Validate checks a chosen end date. An estimate that cannot be read is
// treated as absent, so the verdict is valid.
func (p *Planner) Validate(ctx context.Context, start time.Time, rawEstimate any, candidate time.Time) (scheduler.Verdict, error) {
	days, err := p.parser.Normalize(rawEstimate)
	if err != nil {
		p.logger.Warn("Ignoring unreadable estimate", zap.Error(err))
		days = 0
	}

	s, err := p.Scheduler(ctx)
	if err != nil {
		return scheduler.Verdict{}, err
	}

	verdict := s.ValidateEndDate(start, days, candidate)

	p.logger.Info("End date validated",
		zap.String("start", dateutil.Format(start)),
		zap.Float64("estimate_days", days),
		zap.String("candidate", dateutil.Format(candidate)),
		zap.Bool("valid", verdict.Valid),
		zap.String("reason", string(verdict.Reason)))

	return verdict, nil
}

// Classify describes a single date using only the holidays around it
func (p *Planner) Classify(ctx context.Context, date time.Time) (scheduler.DayInfo, error) {
	records, err := p.provider.FetchRange(ctx, date, date)
	if err != nil {
		return scheduler.DayInfo{}, fmt.Errorf("failed to fetch holidays for %s: %w", dateutil.Format(date), err)
	}
	return scheduler.New(calendar.NewSnapshot(records)).Day(date), nil
}

// Month returns the per-day view of a month
func (p *Planner) Month(ctx context.Context, year int, month time.Month) (*MonthReport, error) {
	from, to := dateutil.StartOfMonth(year, month), dateutil.EndOfMonth(year, month)

	records, err := p.provider.FetchRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays for %d-%02d: %w", year, month, err)
	}

	info := scheduler.New(calendar.NewSnapshot(records)).Month(year, month)
	report := &MonthReport{
		MonthInfo:    info,
		WorkingHours: p.workingHours(info.Days),
	}

	p.logger.Info("Month info built",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Int("work_days", info.WorkDays),
		zap.Float64("working_hours", report.WorkingHours))

	return report, nil
}

// workingHours sums the business hours of the enabled days. A shortened day
// is one hour short.
func (p *Planner) workingHours(days []scheduler.DayInfo) float64 {
	total := 0.0
	for _, day := range days {
		if day.Disabled {
			continue
		}
		hours := p.hoursPerDay
		if day.Holiday != nil && day.Holiday.Type == calendar.TypeShortened && hours > 1 {
			hours--
		}
		total += hours
	}
	return total
}
