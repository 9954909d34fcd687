package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetgrid/console/internal/audit"
	"github.com/fleetgrid/console/internal/models"
)

var (
	logsPage  int
	logsFull  bool
	logsActor string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Review the decrypted audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := openAudit(cfg)
		if err != nil {
			return err
		}
		entries, err := log.Entries()
		if err != nil {
			return err
		}
		return printPage(cmd, entries)
	},
}

var logsSuspiciousCmd = &cobra.Command{
	Use:   "suspicious",
	Short: "Show only entries flagged as suspicious",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := openAudit(cfg)
		if err != nil {
			return err
		}
		entries, err := log.Suspicious()
		if err != nil {
			return err
		}
		return printPage(cmd, entries)
	},
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the audit log file (administrative action)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := openAudit(cfg)
		if err != nil {
			return err
		}
		if err := log.Clear(); err != nil {
			return err
		}
		// The wipe itself leaves a trace in the fresh log.
		if err := log.Record(logsActor, models.DescLogsCleared, "", false); err != nil {
			return err
		}
		cmd.Println("Audit log cleared.")
		return nil
	},
}

func printPage(cmd *cobra.Command, entries []models.AuditEntry) error {
	if len(entries) == 0 {
		cmd.Println("No log entries.")
		return nil
	}

	page := audit.Paginate(entries, logsPage, audit.DefaultPageSize)
	for _, e := range page.Entries {
		cmd.Println(audit.FormatEntry(e, logsFull))
	}
	cmd.Println(fmt.Sprintf("-- page %d/%d, %d entries total --", page.Number, page.Total, len(entries)))
	return nil
}

func init() {
	logsCmd.PersistentFlags().IntVar(&logsPage, "page", 1, "page number")
	logsCmd.PersistentFlags().BoolVar(&logsFull, "full", false, "show untruncated detail")
	logsClearCmd.Flags().StringVar(&logsActor, "actor", models.BootstrapUsername, "acting operator recorded in the audit log")

	logsCmd.AddCommand(logsSuspiciousCmd)
	logsCmd.AddCommand(logsClearCmd)
	rootCmd.AddCommand(logsCmd)
}
