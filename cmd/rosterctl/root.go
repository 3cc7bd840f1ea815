package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"trainingops/internal/adapters/email"
	"trainingops/internal/adapters/storage"
	"trainingops/internal/config"
)

type rootOptions struct {
	dbPath string
	cfg    config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Import event rosters and manage the people directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			if opts.dbPath == "" {
				opts.dbPath = cfg.DBPath
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default TRAININGOPS_DB_PATH)")

	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newEventCmd(opts))
	cmd.AddCommand(newReferenceCmd(opts))
	cmd.AddCommand(newOutboxCmd(opts))
	cmd.AddCommand(newKeyCmd())
	return cmd
}

func (o *rootOptions) open() (*sql.DB, error) {
	db, err := storage.Open(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dbPath, err)
	}
	return db, nil
}

func (o *rootOptions) sender() email.Sender {
	if o.cfg.ResendKey != "" {
		return email.NewResendSender(o.cfg.ResendKey, o.cfg.EmailFrom)
	}
	return email.NewNoopSender()
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
