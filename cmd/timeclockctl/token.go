package main

import (
	"errors"
	"fmt"
	"time"

	"axiapac.com/timeclock/security"
	"axiapac.com/timeclock/web"
	"github.com/spf13/cobra"
)

type TokenOptions struct {
	*RootOptions
	Subject string
	Role    string
	TTL     time.Duration
	// Secret overrides http.jwtSecret from the config.
	Secret string
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the operations API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secretB64 := opts.Secret
			if secretB64 == "" {
				cfg, _, err := opts.loadConfig(cmd.Context())
				if err != nil {
					return err
				}
				secretB64 = cfg.HTTP.JWTSecret
			}
			secret, err := security.DecodeSecret(secretB64)
			if err != nil {
				return err
			}
			if len(secret) == 0 {
				return errors.New("no signing secret: set http.jwtSecret or --secret")
			}

			token, err := security.CreateServiceToken(opts.Subject, security.ServiceClaims{Role: opts.Role}, secret, opts.TTL)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "operator", "token subject")
	cmd.Flags().StringVar(&opts.Role, "role", web.RoleOperator, "token role")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "base64 signing secret")

	return cmd
}
