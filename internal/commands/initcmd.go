package commands

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the credential store and seed the bootstrap account",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeSvc()

		if err := svc.EnsureBootstrap(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Credential store initialized.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
