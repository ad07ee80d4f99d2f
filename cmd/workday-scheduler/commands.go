package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/username/workday-scheduler/internal/estimate"
	"github.com/username/workday-scheduler/internal/planner"
	"github.com/username/workday-scheduler/internal/scheduler"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

var errEndDateRejected = errors.New("end date rejected")

// withPlanner builds the provider and planner for one command run
func (a *app) withPlanner(ctx context.Context, fn func(*planner.Planner) error) error {
	provider, closeProvider, err := a.buildProvider(ctx)
	if err != nil {
		return err
	}
	defer closeProvider()

	return fn(planner.NewPlanner(provider, a.cfg.Scheduler.HoursPerDay, a.logger))
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// optionalDate parses a date flag; empty means absent
func optionalDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	date, err := dateutil.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date: %w", name, err)
	}
	return date, nil
}

// rawEstimate passes an empty flag through as an absent estimate
func rawEstimate(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func endDateCmd(a *app) *cobra.Command {
	var startStr, estimateStr string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "end-date",
		Short: "Compute the end date for a start date and an estimate",
		Example: `  workday-scheduler end-date --start 2025-01-06 --estimate 5
  workday-scheduler end-date --start 2025-01-06 --estimate P1W2D`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := dateutil.Today()
			if startStr != "" {
				var err error
				if start, err = optionalDate("start", startStr); err != nil {
					return err
				}
			}

			return a.withPlanner(cmd.Context(), func(p *planner.Planner) error {
				result, err := p.EndDate(cmd.Context(), start, estimateStr)
				if err != nil {
					return err
				}

				if asJSON {
					return a.printJSON(map[string]any{
						"start":        dateutil.Format(result.Start),
						"estimateDays": result.EstimateDays,
						"estimate":     estimate.Format(result.EstimateDays),
						"endDate":      dateutil.Format(result.EndDate),
						"computable":   result.Computable,
					})
				}

				if !result.Computable {
					a.printf("End date: not computable (start %s, estimate %g days)\n",
						dateutil.Format(result.Start), result.EstimateDays)
					return nil
				}
				a.printf("Start:    %s\n", dateutil.Format(result.Start))
				a.printf("Estimate: %g working day(s)\n", result.EstimateDays)
				a.printf("End date: %s (%s)\n", dateutil.Format(result.EndDate), result.EndDate.Weekday())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Start date (default: today)")
	cmd.Flags().StringVar(&estimateStr, "estimate", "", "Estimate in days or as an ISO 8601 duration")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("estimate")

	return cmd
}

func validateCmd(a *app) *cobra.Command {
	var startStr, estimateStr, endStr string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a chosen end date against the computed one",
		Long:  "Validation only applies when start, estimate and end are all given; otherwise the end date is accepted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := optionalDate("start", startStr)
			if err != nil {
				return err
			}
			end, err := optionalDate("end", endStr)
			if err != nil {
				return err
			}

			return a.withPlanner(cmd.Context(), func(p *planner.Planner) error {
				verdict, err := p.Validate(cmd.Context(), start, rawEstimate(estimateStr), end)
				if err != nil {
					return err
				}

				if asJSON {
					out := map[string]any{
						"valid":   verdict.Valid,
						"message": verdict.Message,
						"reason":  verdict.Reason,
					}
					if !verdict.Expected.IsZero() {
						out["expected"] = dateutil.Format(verdict.Expected)
					}
					if err := a.printJSON(out); err != nil {
						return err
					}
				} else if verdict.Valid {
					a.println("✅ End date is valid")
				} else {
					a.printf("❌ %s\n", verdict.Message)
				}

				if !verdict.Valid {
					return errEndDateRejected
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Start date")
	cmd.Flags().StringVar(&estimateStr, "estimate", "", "Estimate in days or as an ISO 8601 duration")
	cmd.Flags().StringVar(&endStr, "end", "", "Chosen end date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func classifyCmd(a *app) *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a date as working, weekend or holiday",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := dateutil.Today()
			if dateStr != "" {
				var err error
				if date, err = optionalDate("date", dateStr); err != nil {
					return err
				}
			}

			return a.withPlanner(cmd.Context(), func(p *planner.Planner) error {
				day, err := p.Classify(cmd.Context(), date)
				if err != nil {
					return err
				}

				a.printf("%s (%s): %s\n", dateutil.Format(day.Date), day.Date.Weekday(), day.Class)
				if day.Holiday != nil {
					a.printf("  Holiday: %s [%s]\n", day.Holiday.Name, day.Holiday.Type)
				}
				if day.Disabled {
					a.println("  Not selectable as an end date")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Date to classify (default: today)")

	return cmd
}

func monthCmd(a *app) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the per-day breakdown of a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := dateutil.Today()
			if year == 0 {
				year = today.Year()
			}
			if month == 0 {
				month = int(today.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be between 1 and 12, got %d", month)
			}

			return a.withPlanner(cmd.Context(), func(p *planner.Planner) error {
				report, err := p.Month(cmd.Context(), year, time.Month(month))
				if err != nil {
					return err
				}

				a.printf("\n📅 %s %d\n", report.Month, report.Year)
				a.println("═══════════════════════════════════════════════════════")
				a.printf("  Working days:   %d\n", report.WorkDays)
				a.printf("  Working hours:  %.1fh\n", report.WorkingHours)
				a.printf("  Weekend days:   %d\n", report.Weekends)
				a.printf("  Holidays:       %d\n", report.Holidays)
				a.println()
				a.printDays(report.Days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default: current)")

	return cmd
}

func summaryCmd(a *app) *cobra.Command {
	var fromStr, toStr string
	var showDays bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count working days, weekends and holidays in a range",
		Long:  "Without --from and --to the current week, Monday to Sunday, is summarized.",
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
			if from.IsZero() {
				from = dateutil.StartOfWeek(dateutil.Today())
				to = from.AddDate(0, 0, 6)
			}

			return a.withPlanner(cmd.Context(), func(p *planner.Planner) error {
				summary, err := p.Summary(cmd.Context(), from, to)
				if err != nil {
					return err
				}

				a.printf("\n📊 %s .. %s (%d days)\n", dateutil.Format(summary.From), dateutil.Format(summary.To), summary.CalendarDays)
				a.println("═══════════════════════════════════════════════════════")
				a.printf("  Working days:          %d\n", summary.WorkingDays)
				a.printf("  Working hours:         %.1fh\n", summary.WorkingHours)
				a.printf("  Weekend days:          %d\n", summary.Weekends)
				a.printf("  Non-working holidays:  %d\n", summary.NonWorkingHolidays)
				a.printf("  Working holidays:      %d\n", summary.WorkingHolidays)

				if len(summary.Holidays) > 0 {
					a.println("\n  Holidays:")
					for _, h := range summary.Holidays {
						state := "off"
						if h.IsWorkingDay {
							state = "working"
						}
						a.printf("    %s  %-8s %s\n", dateutil.Format(h.Date), state, h.Name)
					}
				}

				if showDays {
					a.println()
					a.printDays(summary.Days)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Range start (inclusive, default: this Monday)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end (inclusive, default: this Sunday)")
	cmd.Flags().BoolVar(&showDays, "days", false, "Print the per-day breakdown")

	return cmd
}

func (a *app) printDays(days []scheduler.DayInfo) {
	today := dateutil.Today()

	a.println("   Date         | Day | Class              | Holiday")
	a.println("----------------+-----+--------------------+----------------")
	for _, day := range days {
		name := ""
		if day.Holiday != nil {
			name = day.Holiday.Name
		}
		mark := " "
		if day.Disabled {
			mark = "×"
		}
		cursor := " "
		if dateutil.IsSameDay(day.Date, today) {
			cursor = ">"
		}
		a.printf(" %s %s %s | %s | %-18s | %s\n",
			cursor, dateutil.Format(day.Date), mark, day.Date.Weekday().String()[:3], day.Class, name)
	}
	a.println("\nLegend: '>' = today, '×' = not selectable as an end date")
}
