package calendar

import (
	"context"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

// USFederalHolidays are the holidays observed by US federal offices
var USFederalHolidays = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.Juneteenth,
	us.IndependenceDay,
	us.LaborDay,
	us.ColumbusDay,
	us.VeteransDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

// GeneratedProvider implements Provider by computing holiday rules instead of
// fetching them. Every generated record is a non-working day placed on the
// date the holiday is observed.
type GeneratedProvider struct {
	calendar *cal.BusinessCalendar
	span     YearSpan
	country  string
	logger   *zap.Logger
}

// NewGeneratedProvider creates a provider for the given rules, defaulting to
// USFederalHolidays when none are passed
func NewGeneratedProvider(span YearSpan, country string, logger *zap.Logger, holidays ...*cal.Holiday) *GeneratedProvider {
	if len(holidays) == 0 {
		holidays = USFederalHolidays
	}
	if country == "" {
		country = DefaultCountry
	}

	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(holidays...)

	return &GeneratedProvider{
		calendar: calendar,
		span:     span.Resolve(time.Now()),
		country:  country,
		logger:   logger,
	}
}

// FetchAll returns the holidays of every year in the configured span
func (g *GeneratedProvider) FetchAll(ctx context.Context) ([]Holiday, error) {
	from, to := g.span.Bounds()
	return g.FetchRange(ctx, from, to)
}

// FetchRange returns the holidays observed between from and to
func (g *GeneratedProvider) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	from, to = dateutil.DateOf(from), dateutil.DateOf(to)

	var records []Holiday
	for d := from; !d.After(to); d = dateutil.NextDay(d) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		actual, observed, h := g.calendar.IsHoliday(d)
		if !observed || h == nil {
			continue
		}

		record := Holiday{
			Date:        d,
			Name:        h.Name,
			Type:        observanceType(h.Type),
			CountryCode: g.country,
		}
		if !actual {
			record.Description = "observed"
		}
		records = append(records, record)
	}

	g.logger.Debug("Generated holidays",
		zap.String("from", dateutil.Format(from)),
		zap.String("to", dateutil.Format(to)),
		zap.Int("count", len(records)))

	return records, nil
}

func observanceType(t cal.ObservanceType) string {
	switch t {
	case cal.ObservancePublic:
		return TypePublic
	case cal.ObservanceBank:
		return "bank"
	case cal.ObservanceReligious:
		return "religious"
	default:
		return TypeObservance
	}
}
