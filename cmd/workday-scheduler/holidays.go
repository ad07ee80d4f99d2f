package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/internal/config"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

func holidaysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List and import holiday records",
	}

	cmd.AddCommand(holidaysListCmd(a), holidaysImportCmd(a))
	return cmd
}

func holidaysListCmd(a *app) *cobra.Command {
	var fromStr, toStr, format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List holidays from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (fromStr == "") != (toStr == "") {
				return fmt.Errorf("both --from and --to must be specified")
			}
			from, err := optionalDate("from", fromStr)
			if err != nil {
				return err
			}
			to, err := optionalDate("to", toStr)
			if err != nil {
				return err
			}

			provider, closeProvider, err := a.buildProvider(cmd.Context())
			if err != nil {
				return err
			}
			defer closeProvider()

			var records []calendar.Holiday
			if from.IsZero() {
				records, err = provider.FetchAll(cmd.Context())
			} else {
				records, err = provider.FetchRange(cmd.Context(), from, to)
			}
			if err != nil {
				return fmt.Errorf("failed to fetch holidays: %w", err)
			}

			// index and sort through a snapshot so duplicates collapse the way the scheduler sees them
			records = calendar.NewSnapshot(records).Holidays()

			switch format {
			case "json":
				return a.printJSON(records)
			case "file":
				return calendar.WriteHolidays(a.out, records)
			case "text":
				for _, h := range records {
					state := "off"
					if h.IsWorkingDay {
						state = "working"
					}
					a.printf("%s  %-3s  %-8s %-12s %s\n",
						dateutil.Format(h.Date), h.Date.Weekday().String()[:3], state, h.Type, h.Name)
				}
				a.printf("\n%d holiday(s)\n", len(records))
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text, json or file)", format)
			}
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Range start (inclusive)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end (inclusive)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or file")

	return cmd
}

func holidaysImportCmd(a *app) *cobra.Command {
	var fromSource, into string
	var yearFrom, yearTo int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy holidays from a source into the sqlite or postgres store",
		Example: `  workday-scheduler holidays import --from-source generated --into sqlite
  workday-scheduler holidays import --from-source isdayoff --year-from 2025 --year-to 2026 --into postgres`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromSource == "" {
				fromSource = a.cfg.Calendar.Source
			}
			if fromSource == into {
				return fmt.Errorf("source and destination are both %s", into)
			}

			country := a.cfg.Calendar.CountryFor(into)
			dest, err := a.openStore(into, country)
			if err != nil {
				return err
			}
			defer dest.Close()

			source, closeSource, err := a.sourceProvider(fromSource)
			if err != nil {
				return err
			}
			defer closeSource()

			span := calendar.YearSpan{From: yearFrom, To: yearTo}.Resolve(time.Now())
			from, to := span.Bounds()

			started := time.Now()
			records, err := source.FetchRange(cmd.Context(), from, to)
			if err != nil {
				return fmt.Errorf("failed to fetch holidays from %s: %w", fromSource, err)
			}

			n, err := dest.Upsert(cmd.Context(), records)
			if err != nil {
				return err
			}

			if foreign := countForeign(records, country); foreign > 0 {
				a.logger.Warn("Imported records belong to another country and will not be read back; set calendar.country",
					zap.String("store_country", country),
					zap.Int("count", foreign))
			}

			if a.cfg.Cache.RedisAddr != "" {
				a.invalidateCache(cmd.Context(), dest, into)
			}

			a.logger.Info("Holidays imported",
				zap.String("source", fromSource),
				zap.String("store", into),
				zap.Int("year_from", span.From),
				zap.Int("year_to", span.To),
				zap.Int("count", n),
				zap.Duration("duration", time.Since(started)))

			a.printf("✅ Imported %d holiday(s) from %s into %s (%d-%d)\n", n, fromSource, into, span.From, span.To)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromSource, "from-source", "", "Source to read (default: calendar.source)")
	cmd.Flags().StringVar(&into, "into", config.SourceSQLite, "Destination store: sqlite or postgres")
	cmd.Flags().IntVar(&yearFrom, "year-from", 0, "First year (default: last year)")
	cmd.Flags().IntVar(&yearTo, "year-to", 0, "Last year (default: next year)")

	return cmd
}

// invalidateCache drops the redis entries a reader of the store may hold
func (a *app) invalidateCache(ctx context.Context, dest calendar.Provider, source string) {
	cache, closeCache, err := a.redisCache(ctx, dest, source)
	if err != nil {
		a.logger.Warn("Redis unavailable, cached holidays may be stale until they expire", zap.Error(err))
		return
	}
	defer closeCache()

	if err := cache.Invalidate(ctx); err != nil {
		a.logger.Warn("Failed to invalidate holiday cache", zap.Error(err))
	}
}

func countForeign(records []calendar.Holiday, country string) int {
	n := 0
	for _, h := range records {
		if h.CountryCode != "" && h.CountryCode != country {
			n++
		}
	}
	return n
}
