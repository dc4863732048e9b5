package main

import (
	"context"

	"axiapac.com/timeclock/app"
	"github.com/spf13/cobra"
)

// deviceCommand runs one when a device id is given and all otherwise.
func deviceCommand(rootOpts *RootOptions, use, short string,
	one func(ctx context.Context, a *app.App, id int32) any,
	all func(ctx context.Context, a *app.App) (any, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [device-id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int32
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0], "device"); err != nil {
					return err
				}
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if id > 0 {
					return printJSON(cmd.OutOrStdout(), one(ctx, a, id))
				}
				res, err := all(ctx, a)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return deviceCommand(rootOpts, "sync", "Pull attendance from one or every active device",
		func(ctx context.Context, a *app.App, id int32) any { return a.Sync.SyncDevice(ctx, id) },
		func(ctx context.Context, a *app.App) (any, error) { return a.Sync.SyncAllDevices(ctx) },
	)
}

func NewStaffCommand(rootOpts *RootOptions) *cobra.Command {
	return deviceCommand(rootOpts, "staff", "Push active staff to one or every active device",
		func(ctx context.Context, a *app.App, id int32) any { return a.Sync.SyncStaffToDevice(ctx, id) },
		func(ctx context.Context, a *app.App) (any, error) { return a.Sync.SyncStaffToAllDevices(ctx) },
	)
}

func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	return deviceCommand(rootOpts, "cleanup", "Remove inactive staff from one or every online device",
		func(ctx context.Context, a *app.App, id int32) any {
			return a.Sync.RemoveInactiveStaffFromDevice(ctx, id)
		},
		func(ctx context.Context, a *app.App) (any, error) {
			return a.Sync.RemoveInactiveStaffFromAllDevices(ctx)
		},
	)
}

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <device-id>",
		Short: "Show recent sync runs of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "device")
			if err != nil {
				return err
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				runs, err := a.Sync.History(ctx, id, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), runs)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs")
	return cmd
}

func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List or run scheduled jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List jobs and their cadence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Scheduler.Entries())
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run a job now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Scheduler.RunNow(ctx, args[0])
			})
		},
	})

	return cmd
}
