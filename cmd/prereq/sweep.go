package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/prereq/dependency"
	"github.com/amonks/prereq/internal/schedule"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove links whose items are finished or gone",
	Long: `Remove links whose prerequisite or dependant was completed, dropped or
deleted. Tags, notes and project status are restored on whichever item
remains.

With --watch, sweeps on the [sweep] schedule from the config file (default
"@every 15m") until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	sweepWatch    bool
	sweepSchedule string
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().BoolVarP(&sweepWatch, "watch", "w", false, "Keep sweeping on a schedule")
	sweepCmd.Flags().StringVar(&sweepSchedule, "schedule", "", "Cron schedule for --watch (overrides config)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(func(a *app) error {
		if !sweepWatch {
			result, err := a.engine.Sweep(ctx)
			printSweepResult(result)
			return err
		}

		expr := a.cfg.Sweep.Schedule
		if sweepSchedule != "" {
			expr = sweepSchedule
		}
		sched, err := schedule.Parse(expr)
		if err != nil {
			return err
		}

		a.logger.Info("watching", zap.String("schedule", expr))
		runner := schedule.NewRunner("sweep", sched, func(ctx context.Context) error {
			result, err := a.engine.Sweep(ctx)
			if len(result.Removed) > 0 {
				printSweepResult(result)
			}
			return err
		}, schedule.WithLogger(a.logger), schedule.RunAtStart())

		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
}

func printSweepResult(result dependency.SweepResult) {
	for _, link := range result.Removed {
		fmt.Printf("Removed %s -> %s\n", link.PrerequisiteID, link.DependantID)
	}
	fmt.Printf("Swept %d stale %s, kept %d.\n", len(result.Removed), pluralize(len(result.Removed), "link", "links"), result.Kept)
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
