package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loginrewards",
	Short: "Daily login reward engine for persistent-world game servers",
	Long: `loginrewards decides, once per daily reset window, whether a player
session qualifies for a currency grant, gated on both the account and the
network origin, and durably tracks last-grant times across restarts.

The engine itself is embedded in the game server; this tool validates its
configuration, queries the record stores, and replays session event files
against a standalone coordinator.`,
	Version: version,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/modules/login-rewards.conf", "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
