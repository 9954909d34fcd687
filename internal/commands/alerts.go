package commands

import (
	"github.com/spf13/cobra"

	"github.com/fleetgrid/console/internal/audit"
)

var alertsUser string

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show the unread suspicious-alert count for an operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := openAudit(cfg)
		if err != nil {
			return err
		}
		tracker := audit.NewAlertTracker(cfg.Security.AlertsFile, log)

		count, err := tracker.UnreadSuspiciousCount(alertsUser)
		if err != nil {
			return err
		}
		if count > 0 {
			cmd.Printf("ALERT: %d unread suspicious activities\n", count)
		} else {
			cmd.Println("No unread suspicious activities.")
		}
		return nil
	},
}

var alertsSeenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Mark all current suspicious entries as reviewed",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := openAudit(cfg)
		if err != nil {
			return err
		}
		tracker := audit.NewAlertTracker(cfg.Security.AlertsFile, log)

		if err := tracker.MarkAllSeen(alertsUser); err != nil {
			return err
		}
		cmd.Println("All suspicious entries marked as seen.")
		return nil
	},
}

func init() {
	alertsCmd.PersistentFlags().StringVar(&alertsUser, "user", "", "operator username")
	_ = alertsCmd.MarkPersistentFlagRequired("user")

	alertsCmd.AddCommand(alertsSeenCmd)
	rootCmd.AddCommand(alertsCmd)
}
