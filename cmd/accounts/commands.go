package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
	"github.com/aussiebroadwan/accounts/internal/accounts/clients"
	"github.com/aussiebroadwan/accounts/internal/accounts/journey"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "accounts",
		Short:         "accounts hosts account-management journeys for relying parties",
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand(), newClientsCommand(), newVersionCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Example: `
  # Local development over plain HTTP
  accounts serve --public-url http://localhost:8080 --clients-file clients.yaml \
    --keys-dir keys --secure-cookies=false --log-format text

  # Replay nonces in Redis, everything else from the environment
  ACCOUNTS_NONCE_BACKEND=redis ACCOUNTS_REDIS_URL=redis://redis:6379/0 accounts serve -c /etc/accounts.yaml
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			v, err := app.NewViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig(v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			application, err := app.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(ctx)
		},
	}

	app.RegisterFlags(cmd.Flags())
	return cmd
}

func newClientsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Work with the client registry",
	}

	check := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a client registry file without starting the service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			src, err := clients.NewFileSource(args[0])
			if err != nil {
				return err
			}
			list, err := src.List(cmd.Context())
			if err != nil {
				return err
			}
			if err := clients.Validate(list, journey.Default().Has); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d clients ok\n", args[0], len(list))
			return err
		},
	}

	cmd.AddCommand(check)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the accounts version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "accounts %s\n", app.BuildVersion)
			return err
		},
	}
}
