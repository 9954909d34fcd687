package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetgrid/console/internal/audit"
	"github.com/fleetgrid/console/internal/models"
	"github.com/fleetgrid/console/internal/service"
	"github.com/fleetgrid/console/internal/session"
)

var usersActor string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage operator accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username> <password> <role>",
	Short: "Create an operator account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeSvc()

		role, ok := models.ParseRole(args[2])
		if !ok {
			return fmt.Errorf("unknown role %q (valid: %q, %q)",
				args[2], models.RoleSystemAdmin, models.RoleServiceEngineer)
		}

		account, err := svc.CreateAccount(cmd.Context(), usersActor, args[0], args[1], role)
		if err != nil {
			return err
		}
		cmd.Printf("Account created: %s (%s)\n", args[0], account.Role)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an operator account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeSvc()

		if err := svc.DeleteAccount(cmd.Context(), usersActor, args[0]); err != nil {
			return err
		}
		cmd.Printf("Account deleted: %s\n", args[0])
		return nil
	},
}

var usersResetCmd = &cobra.Command{
	Use:   "reset-password <username> <temporary-password>",
	Short: "Install a temporary password the operator must rotate at next login",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeSvc()

		if err := svc.ResetPassword(cmd.Context(), usersActor, args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Temporary password set for %s\n", args[0])
		return nil
	},
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <username> <role>",
	Short: "Reassign an operator between the runtime roles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeSvc()

		role, ok := models.ParseRole(args[1])
		if !ok {
			return fmt.Errorf("unknown role %q (valid: %q, %q)",
				args[1], models.RoleSystemAdmin, models.RoleServiceEngineer)
		}

		if err := svc.ChangeRole(cmd.Context(), usersActor, args[0], role); err != nil {
			return err
		}
		cmd.Printf("Role of %s changed to %s\n", args[0], role)
		return nil
	},
}

// openService wires the full service stack for the account commands.
func openService(cmd *cobra.Command) (*service.AuthService, func(), error) {
	cipher, log, err := openAudit(cfg)
	if err != nil {
		return nil, nil, err
	}
	repo, closeRepo, err := openRepository(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewManager(log, session.Config{
		IdleTimeout:     cfg.Session.IdleTimeout,
		AbsoluteTimeout: cfg.Session.AbsoluteTimeout,
		MaxInvalid:      cfg.Session.MaxInvalid,
		MaxSuspicious:   cfg.Session.MaxSuspicious,
	})
	tracker := audit.NewAlertTracker(cfg.Security.AlertsFile, log)

	svc := service.NewAuthService(repo, cipher, sessions, log, tracker, service.Config{
		RecentFailureWindow:    cfg.Auth.RecentFailureWindow,
		RecentFailureThreshold: cfg.Auth.RecentFailureThreshold,
		BcryptCost:             cfg.Auth.BcryptCost,
	})
	return svc, closeRepo, nil
}

func init() {
	usersCmd.PersistentFlags().StringVar(&usersActor, "actor", models.BootstrapUsername, "acting operator recorded in the audit log")

	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersResetCmd)
	usersCmd.AddCommand(usersRoleCmd)
	rootCmd.AddCommand(usersCmd)
}
