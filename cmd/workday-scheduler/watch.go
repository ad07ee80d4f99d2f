package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/internal/daemon"
	"github.com/username/workday-scheduler/internal/scheduler"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

func watchCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the holiday snapshot fresh, refreshing on watch.interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, closeProvider, err := a.buildProvider(cmd.Context())
			if err != nil {
				return err
			}
			defer closeProvider()

			opts := []daemon.Option{daemon.WithOnRefresh(a.reportSnapshot)}
			if a.cfg.Watch.StateFile != "" {
				opts = append(opts, daemon.WithStateFile(daemon.NewStateFile(a.cfg.Watch.StateFile, a.logger)))
			}

			d := daemon.NewDaemon(provider, a.cfg.Watch.GetInterval(), a.logger, opts...)
			if once {
				return d.Refresh(cmd.Context())
			}
			return d.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Refresh once and exit")

	return cmd
}

// reportSnapshot logs where today sits in the new snapshot
func (a *app) reportSnapshot(snapshot *calendar.Snapshot) {
	s := scheduler.New(snapshot)
	today := dateutil.Today()

	a.logger.Info("Working day status",
		zap.String("today", dateutil.Format(today)),
		zap.String("class", string(s.ClassifyDate(today))),
		zap.String("next_working_day", dateutil.Format(s.NextWorkingDay(today))))
}
