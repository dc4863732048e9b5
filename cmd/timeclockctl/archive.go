package main

import (
	"context"
	"errors"
	"fmt"

	"axiapac.com/timeclock/infrastructure/filesystem"
	"github.com/spf13/cobra"
)

var errNoArchive = errors.New("archive.bucket is not configured")

func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse raw punch batches kept in S3",
	}

	open := func(ctx context.Context) (*filesystem.S3Archive, error) {
		cfg, _, err := rootOpts.loadConfig(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.Archive.Bucket == "" {
			return nil, errNoArchive
		}
		return filesystem.ConnectS3Archive(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls [device-folder]",
		Short: "List archived batches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := open(cmd.Context())
			if err != nil {
				return err
			}
			var sub string
			if len(args) == 1 {
				sub = args[0]
			}
			keys, err := archive.ListFiles(cmd.Context(), sub)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "cat <key>",
		Short: "Print one archived batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := open(cmd.Context())
			if err != nil {
				return err
			}
			return archive.ReadFile(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	})

	return cmd
}
