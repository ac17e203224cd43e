// Package main is classctl, an operator tool for migrations, API tokens and recording jobs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/liveclass/backend/config"
	"github.com/liveclass/backend/internal/app"
	"github.com/liveclass/backend/internal/auth"
	"github.com/liveclass/backend/pkg/database"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "classctl",
		Short:         "Operator utility for the live class backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newTokenCommand())
	cmd.AddCommand(newRecordingsCommand())
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, database.Migrate)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, database.MigrationStatus)
		},
	})
	return cmd
}

// withPool only needs database settings, so provider credentials are not validated.
func withPool(cmd *cobra.Command, fn func(context.Context, *pgxpool.Pool) error) error {
	ctx := commandContext(cmd)
	cfg := config.FromEnv()
	if cfg.Database.URL == "" && cfg.Database.Host == "" {
		return errors.New("DATABASE_URL is required")
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), zap.NewNop())
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func newTokenCommand() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET is required")
			}
			tok, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours).Generate(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject, e.g. the organizer's email")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newRecordingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List, store or download the cloud recordings of a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newRecordingsJobCommand("list", "List recording files of every meeting",
		func(ctx context.Context, a *app.App, sessionID string) (any, error) {
			return a.Pipeline.List(ctx, sessionID)
		}))
	cmd.AddCommand(newRecordingsJobCommand("store", "Upload recordings to the S3 bucket",
		func(ctx context.Context, a *app.App, sessionID string) (any, error) {
			return a.Pipeline.Store(ctx, sessionID)
		}))
	cmd.AddCommand(newRecordingsJobCommand("download", "Download recordings to RECORDINGS_DIR",
		func(ctx context.Context, a *app.App, sessionID string) (any, error) {
			return a.Pipeline.DownloadLocal(ctx, sessionID)
		}))
	return cmd
}

type recordingsJob func(ctx context.Context, a *app.App, sessionID string) (any, error)

func newRecordingsJobCommand(use, short string, job recordingsJob) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := app.New(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := job(ctx, a, sessionID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
