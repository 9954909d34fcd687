// Package commands is the operational CLI around the security core:
// audit review, alert bookkeeping, and store initialization. The
// interactive operator menu lives outside this module; process exit
// decisions happen here and nowhere deeper.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetgrid/console/internal/config"
	"github.com/fleetgrid/console/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Fleet operator console security core",
	Long: `console manages the security core of the fleet operator backend:
credential store initialization, encrypted audit log review, and
suspicious-alert bookkeeping.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = &config.Config{}
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Component("console"))
	logging.SetDefault(logger)
}
