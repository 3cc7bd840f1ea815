package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"trainingops/internal/adapters/http/middleware"
	eventStore "trainingops/internal/adapters/storage/event"
	referenceStore "trainingops/internal/adapters/storage/reference"
	"trainingops/internal/domain/event"
	"trainingops/internal/domain/reference"
)

const dateLayout = "2006-01-02"

func newEventCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "event", Short: "Manage events"}

	var (
		id, title, kind, start, end, location string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create or replace an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := event.Event{ID: id, Title: title, Kind: kind, Location: location, CreatedAt: time.Now().UTC()}
			if ev.ID == "" {
				ev.ID = uuid.NewString()
			}
			var err error
			if ev.StartDate, err = time.Parse(dateLayout, start); err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			if end != "" {
				if ev.EndDate, err = time.Parse(dateLayout, end); err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}
			if err := ev.Validate(); err != nil {
				return err
			}

			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := eventStore.NewSQLiteStore(db).Save(cmd.Context(), ev); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ev)
		},
	}
	add.Flags().StringVar(&id, "id", "", "Event ID (generated when empty)")
	add.Flags().StringVar(&title, "title", "", "Event title (required)")
	add.Flags().StringVar(&kind, "kind", event.KindTraining, "training, seminar or test")
	add.Flags().StringVar(&start, "start", time.Now().UTC().Format(dateLayout), "Start date (YYYY-MM-DD)")
	add.Flags().StringVar(&end, "end", "", "End date for multi-day events (YYYY-MM-DD)")
	add.Flags().StringVar(&location, "location", "", "Venue")
	_ = add.MarkFlagRequired("title")

	cmd.AddCommand(add)
	return cmd
}

func newReferenceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "reference", Short: "Manage position and territory tables"}

	var kindFlag, id string
	add := &cobra.Command{
		Use:   "add NAME...",
		Short: "Add canonical entries to a reference table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := reference.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			if id != "" && len(args) > 1 {
				return fmt.Errorf("--id applies to a single name")
			}
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			store := referenceStore.NewSQLiteStore(db)

			for _, name := range args {
				e := reference.Entry{ID: id, Name: name}
				if e.ID == "" {
					e.ID = uuid.NewString()
				}
				if err := e.Validate(); err != nil {
					return fmt.Errorf("%q: %w", name, err)
				}
				if err := store.Save(cmd.Context(), kind, e); err != nil {
					return fmt.Errorf("%q: %w", name, err)
				}
			}
			table, err := store.List(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), table)
		},
	}
	add.Flags().StringVar(&kindFlag, "kind", string(reference.KindPosition), "position or territory")
	add.Flags().StringVar(&id, "id", "", "Entry ID (generated when empty)")

	cmd.AddCommand(add)
	return cmd
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "key", Short: "Operator API keys"}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash EMAIL KEY",
		Short: "Print a TRAININGOPS_OPERATOR_KEYS entry for an operator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := middleware.HashKey(args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], hash)
			return err
		},
	})
	return cmd
}
