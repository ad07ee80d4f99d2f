package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/config"
	"github.com/username/workday-scheduler/internal/logging"
)

// app is the state shared by every command
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "workday-scheduler",
		Short:         "Holiday-aware working day scheduler",
		Long:          "Compute and validate task end dates by counting working days, skipping weekends and non-working holidays",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (default: search ./config.yaml)")

	rootCmd.AddCommand(
		endDateCmd(a),
		validateCmd(a),
		classifyCmd(a),
		monthCmd(a),
		summaryCmd(a),
		holidaysCmd(a),
		watchCmd(a),
	)

	return rootCmd
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...interface{}) {
	fmt.Fprintln(a.out, args...)
}
