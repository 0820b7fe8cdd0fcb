// Command agencyctl is the operator CLI: schema migrations and admin tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/brightside-studio/backend/internal/config"
	"github.com/brightside-studio/backend/internal/logging"
	"github.com/brightside-studio/backend/internal/migrate"
	"github.com/brightside-studio/backend/internal/repository"
	"github.com/brightside-studio/backend/migrations"
	"github.com/brightside-studio/backend/pkg/auth"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agencyctl",
		Short:         "Operator tools for the contact backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newAdminTokenCmd())
	return root
}

// withMigrator loads config, connects and hands a Migrator to fn.
func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *migrate.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	ctx := cmd.Context()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, migrate.New(pool, migrations.FS))
}

func newMigrateCmd() *cobra.Command {
	up := func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(ctx context.Context, m *migrate.Migrator) error {
			_, err := m.Up(ctx)
			return err
		})
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE:  up,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE:  up,
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Drop all tables and recreate them from the consolidated schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(ctx context.Context, m *migrate.Migrator) error {
					return m.Reset(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "fresh",
			Short: "Drop all tables and replay every migration in order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(ctx context.Context, m *migrate.Migrator) error {
					_, err := m.Fresh(ctx)
					return err
				})
			},
		},
	)
	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "admin-token <user-id>",
		Short: "Print a signed admin token for the given user ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			userID := args[0]
			if !slices.Contains(cfg.AdminUserIDs, userID) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q is not in ADMIN_USER_IDS; the token will authenticate but not authorize\n", userID)
			}
			token := auth.CreateSessionToken(userID, time.Now().Add(ttl), auth.SessionSecretBytes(cfg.SessionSecret))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
