package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/magiconair/properties"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seolha/loginrewards/internal/config"
)

var validateDump bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the login rewards configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump effective configuration")
	rootCmd.AddCommand(validateCmd)
}

// knownKeys are the LoginRewards.* keys the module consumes, lowercased
// with the namespace prefix stripped.
var knownKeys = map[string]bool{
	"enable":              true,
	"showmodulestatus":    true,
	"dailygoldamount":     true,
	"dailyresethour":      true,
	"rewarddelayseconds":  true,
	"announcemessage":     true,
	"showannouncemessage": true,
	"resettimezone":       true,
	"datadir":             true,
	"logdir":              true,
	"storage.type":        true,
	"redis.addr":          true,
	"redis.password":      true,
	"redis.db":            true,
	"log.level":           true,
	"log.format":          true,
	"metrics.port":        true,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, zerolog.New(os.Stderr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	if cfg.Missing {
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Fprintf(os.Stdout, "⚠️  Configuration file not found: %s\n", configPath)
		fmt.Fprintln(os.Stdout, "The module runs disabled without it (fail-safe-off).")
		return nil
	}

	fmt.Fprintf(os.Stdout, "✅ Configuration is valid: %s\n", configPath)

	// Warn about unknown LoginRewards.* keys
	if unknown := findUnknownKeys(configPath); len(unknown) > 0 {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintln(os.Stdout)
		red.Fprintf(os.Stdout, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknown))
		for _, key := range unknown {
			red.Fprintf(os.Stdout, "   - %s\n", key)
		}
		fmt.Fprintln(os.Stdout, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	if validateDump {
		dumpConfig(cfg)
	}
	return nil
}

func findUnknownKeys(path string) []string {
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil
	}
	props.DisableExpansion = true

	var unknown []string
	for key := range props.Map() {
		lower := strings.ToLower(key)
		if !strings.HasPrefix(lower, "loginrewards.") {
			continue // other modules share the host config namespace
		}
		if !knownKeys[strings.TrimPrefix(lower, "loginrewards.")] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func dumpConfig(cfg *config.Config) {
	bold := color.New(color.Bold)
	fmt.Fprintln(os.Stdout)
	bold.Fprintln(os.Stdout, "Effective configuration:")
	fmt.Fprintf(os.Stdout, "  Enable:              %v\n", cfg.Enable)
	fmt.Fprintf(os.Stdout, "  ShowModuleStatus:    %v\n", cfg.ShowModuleStatus)
	fmt.Fprintf(os.Stdout, "  DailyGoldAmount:     %d\n", cfg.DailyGoldAmount)
	fmt.Fprintf(os.Stdout, "  DailyResetHour:      %d\n", cfg.DailyResetHour)
	fmt.Fprintf(os.Stdout, "  RewardDelaySeconds:  %d\n", cfg.RewardDelaySeconds)
	fmt.Fprintf(os.Stdout, "  AnnounceMessage:     %s\n", cfg.AnnounceMessage)
	fmt.Fprintf(os.Stdout, "  ShowAnnounceMessage: %v\n", cfg.ShowAnnounceMessage)
	fmt.Fprintf(os.Stdout, "  ResetTimeZone:       %s\n", cfg.ResetTimeZone)
	fmt.Fprintf(os.Stdout, "  DataDir:             %s\n", cfg.DataDir)
	fmt.Fprintf(os.Stdout, "  LogDir:              %s\n", cfg.LogDir)
	fmt.Fprintf(os.Stdout, "  Storage.Type:        %s\n", cfg.Storage.Type)
	fmt.Fprintf(os.Stdout, "  Redis.Addr:          %s\n", cfg.Redis.Addr)
	fmt.Fprintf(os.Stdout, "  Log.Level:           %s\n", cfg.Log.Level)
	fmt.Fprintf(os.Stdout, "  Log.Format:          %s\n", cfg.Log.Format)
	fmt.Fprintf(os.Stdout, "  Metrics.Port:        %d\n", cfg.Metrics.Port)
}
