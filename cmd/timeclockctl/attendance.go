package main

import (
	"context"
	"fmt"
	"time"

	"axiapac.com/timeclock/app"
	"axiapac.com/timeclock/attendance"
	"axiapac.com/timeclock/utils"
	"github.com/spf13/cobra"
)

type ComputeOptions struct {
	*RootOptions
	StaffID       int32
	From          string
	To            string
	ExpectedStart string
	ExpectedEnd   string
	MinimumHours  float64
}

func NewComputeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComputeOptions{RootOptions: rootOpts, MinimumHours: -1}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute attendance records",
		Long: `Compute attendance for one staff member or everyone over a date range.

Example:
  timeclockctl compute --from 2024-01-15
  timeclockctl compute --staff 7 --from 2024-01-01 --to 2024-01-31 --start 09:00 --end 17:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := opts.dates()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				computeOpts := attendance.ComputeOptions{
					ExpectedStart: opts.ExpectedStart,
					ExpectedEnd:   opts.ExpectedEnd,
					MinimumHours:  a.Config.Attendance.MinimumHours,
				}
				if opts.MinimumHours >= 0 {
					computeOpts.MinimumHours = opts.MinimumHours
				}

				var res attendance.BatchResult
				if opts.StaffID > 0 {
					res, err = a.Engine.ComputeForDateRange(ctx, opts.StaffID, from, to, computeOpts)
				} else {
					res, err = a.Engine.ComputeForAllStaffDateRange(ctx, from, to, computeOpts)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().Int32Var(&opts.StaffID, "staff", 0, "staff id (default all active staff)")
	cmd.Flags().StringVar(&opts.From, "from", "", "first date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last date, YYYY-MM-DD (default --from)")
	cmd.Flags().StringVar(&opts.ExpectedStart, "start", "", "expected start HH:MM")
	cmd.Flags().StringVar(&opts.ExpectedEnd, "end", "", "expected end HH:MM")
	cmd.Flags().Float64Var(&opts.MinimumHours, "min-hours", -1, "minimum hours (default from config)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (o *ComputeOptions) dates() (time.Time, time.Time, error) {
	from, err := utils.ParseDate(o.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
	}
	to := from
	if o.To != "" {
		if to, err = utils.ParseDate(o.To); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", o.To, o.From)
	}
	return from, to, nil
}

func NewReprocessCommand(rootOpts *RootOptions) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Recompute records flagged with anomalies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var since *time.Time
			if from != "" {
				t, err := utils.ParseDate(from)
				if err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				since = &t
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Engine.ReprocessAnomalies(ctx, since)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"reprocessed": n})
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "only records on or after YYYY-MM-DD")
	return cmd
}

func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Compute the days touched by unprocessed punches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.ProcessPendingPunches(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}
