package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"guardline/pkg/db"
	"guardline/services/api"
	"guardline/services/maintenance"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "guardctl",
		Short:         "Operator utility for the guardline backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newPurgeInvitesCommand())
	cmd.AddCommand(newTrimLocationsCommand())
	cmd.AddCommand(newTokenCommand())
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func databaseDSN() (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	return dsn, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			dsn, err := databaseDSN()
			if err != nil {
				return err
			}
			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newPurgeInvitesCommand() *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "purge-invites",
		Short: "Delete expired, unaccepted contact invites",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			dsn, err := databaseDSN()
			if err != nil {
				return err
			}
			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			removed, err := maintenance.PurgeExpiredInvites(ctx, pool, retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d invites\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 30*24*time.Hour, "Keep expired invites for this long after expiry")
	return cmd
}

func newTrimLocationsCommand() *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "trim-locations",
		Short: "Delete location history older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			dsn, err := databaseDSN()
			if err != nil {
				return err
			}
			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			removed, err := maintenance.TrimLocationHistory(ctx, pool, retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trimmed %d location samples\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 90*24*time.Hour, "Keep location samples for this long")
	return cmd
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Session token operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newTokenIssueCommand())
	cmd.AddCommand(newTokenRevokeCommand())
	return cmd
}

func newTokenIssueCommand() *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a session token for a user, creating the user if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			dsn, err := databaseDSN()
			if err != nil {
				return err
			}
			orm, err := db.OpenORM(dsn)
			if err != nil {
				return err
			}

			token, err := api.IssueSession(ctx, orm, email, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email address")
	cmd.Flags().StringVar(&name, "name", "", "Display name for a newly created user")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Session lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newTokenRevokeCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			dsn, err := databaseDSN()
			if err != nil {
				return err
			}
			orm, err := db.OpenORM(dsn)
			if err != nil {
				return err
			}

			if err := api.RevokeSession(ctx, orm, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session revoked")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Session token to revoke")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
