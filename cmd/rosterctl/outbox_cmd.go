package main

import (
	"github.com/spf13/cobra"

	outboxStore "trainingops/internal/adapters/storage/outbox"
	"trainingops/internal/application/orchestrators"
)

func newOutboxCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "outbox", Short: "Queued import report mail"}

	var status string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List queued reports by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			entries, err := outboxStore.NewSQLiteStore(db).ListByStatus(cmd.Context(), status, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		},
	}
	list.Flags().StringVar(&status, "status", "", "pending, retrying, sent, failed or abandoned (default all)")
	list.Flags().IntVar(&limit, "limit", 50, "Maximum entries")

	process := &cobra.Command{
		Use:   "process",
		Short: "Attempt every report that is due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := orchestrators.NewOutboxProcessor(outboxStore.NewSQLiteStore(db), opts.sender()).ProcessPending(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]int{"delivered": n})
		},
	}

	cmd.AddCommand(list, process)
	return cmd
}
