package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trainingops/internal/adapters/spreadsheet"
	auditStore "trainingops/internal/adapters/storage/audit"
	eventStore "trainingops/internal/adapters/storage/event"
	personStore "trainingops/internal/adapters/storage/person"
	referenceStore "trainingops/internal/adapters/storage/reference"
	rosterStore "trainingops/internal/adapters/storage/roster"
	"trainingops/internal/application/orchestrators"
	"trainingops/internal/domain/rosterimport"
)

func (o *rootOptions) importOptions() rosterimport.Options {
	return rosterimport.Options{SyntheticEmailDomain: o.cfg.SyntheticEmailDomain}
}

func (o *rootOptions) parseFile(cmd *cobra.Command, path string) (orchestrators.ParseRosterResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return orchestrators.ParseRosterResult{}, err
	}
	defer f.Close()
	return orchestrators.ExecuteParseRoster(cmd.Context(),
		orchestrators.ParseRosterInput{Filename: path, Reader: f},
		orchestrators.ParseRosterDeps{
			Limits:  spreadsheet.Limits{MaxBytes: o.cfg.MaxUploadBytes()},
			Options: o.importOptions(),
		},
	)
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var precheck bool
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Parse a roster file and print the candidates without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := opts.parseFile(cmd, args[0])
			if err != nil {
				return err
			}
			if !precheck {
				return writeJSON(cmd.OutOrStdout(), parsed)
			}

			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			res, err := orchestrators.ExecutePrecheckRoster(cmd.Context(),
				orchestrators.PrecheckRosterInput{Candidates: parsed.Candidates},
				orchestrators.PrecheckRosterDeps{Directory: personStore.NewSQLiteStore(db), Options: opts.importOptions()},
			)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&precheck, "precheck", false, "Mark candidates already in the directory")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		eventID  string
		operator string
		notify   bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Parse a roster file and commit it to an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if notify && operator == "" {
				return fmt.Errorf("--notify requires --operator")
			}
			parsed, err := opts.parseFile(cmd, args[0])
			if err != nil {
				return err
			}

			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := orchestrators.ExecuteCommitRoster(cmd.Context(),
				orchestrators.CommitRosterInput{EventID: eventID, Candidates: parsed.Candidates, Operator: operator},
				orchestrators.CommitRosterDeps{
					Directory:  personStore.NewSQLiteStore(db),
					References: referenceStore.NewSQLiteStore(db),
					Roster:     rosterStore.NewSQLiteStore(db),
					Events:     eventStore.NewSQLiteStore(db),
					Options:    opts.importOptions(),
				},
			)
			if err != nil {
				return err
			}
			orchestrators.RecordAudit(cmd.Context(), auditStore.NewSQLiteStore(db),
				orchestrators.ImportAuditEvent(operator, res).WithRequest("", "rosterctl"))
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if notify {
				ev, err := eventStore.NewSQLiteStore(db).GetByID(cmd.Context(), eventID)
				if err != nil {
					return err
				}
				if _, err := orchestrators.ExecuteSendImportReport(cmd.Context(),
					orchestrators.SendImportReportInput{Operator: operator, EventTitle: ev.Title, Result: res},
					orchestrators.SendImportReportDeps{Sender: opts.sender(), From: opts.cfg.EmailFrom},
				); err != nil {
					return fmt.Errorf("send import report: %w", err)
				}
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d of %d rows failed", res.Failed, len(res.Outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "Event ID (required)")
	cmd.Flags().StringVar(&operator, "operator", "", "Operator email recorded in the import log")
	cmd.Flags().BoolVar(&notify, "notify", false, "Mail the import report to --operator")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}
