package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seolha/loginrewards/internal/config"
	"github.com/seolha/loginrewards/internal/reward"
	"github.com/seolha/loginrewards/internal/storage"
)

var (
	checkAccount string
	checkOrigin  string
	checkAt      string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check reward eligibility for a key pair",
	Long: `Check whether an account/origin pair would receive a reward right now
(or at a given instant) against the configured record store. Dry run: no
records are updated.`,
	Example: `  loginrewards -c login-rewards.conf check --account 1042 --origin 203.0.113.7
  loginrewards check --account 1042 --origin 203.0.113.7 --at "2026-08-29 06:30:00"`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkAccount, "account", "", "Account identifier")
	checkCmd.Flags().StringVar(&checkOrigin, "origin", "", "Network origin (IP address)")
	checkCmd.Flags().StringVar(&checkAt, "at", "", "Evaluate at this instant (YYYY-MM-DD HH:MM:SS, reference zone; default now)")
	_ = checkCmd.MarkFlagRequired("account")
	_ = checkCmd.MarkFlagRequired("origin")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	cfg, err := config.Load(configPath, logger)
	if err != nil {
		return err
	}
	if cfg.Missing {
		return fmt.Errorf("configuration file not found: %s", configPath)
	}

	now := reward.RealClock{}.Now()
	if checkAt != "" {
		now, err = storage.ParseTime(checkAt, cfg.Location())
		if err != nil {
			return fmt.Errorf("invalid --at instant: %w", err)
		}
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := reward.NewEngine(store, nil, cfg.DailyResetHour, cfg.Location(), logger)
	decision := engine.Peek(checkAccount, checkOrigin, now)

	printRecord := func(label string, s storage.RecordStore, key string) {
		rec, ok := s.Get(key)
		if !ok {
			fmt.Fprintf(os.Stdout, "  %s %s: never rewarded\n", label, key)
			return
		}
		line := fmt.Sprintf("  %s %s: last rewarded %s", label, key, storage.FormatTime(rec.GrantedAt, cfg.Location()))
		if rec.CharacterName != "" {
			line += fmt.Sprintf(" (character %s)", rec.CharacterName)
		}
		fmt.Fprintln(os.Stdout, line)
	}

	fmt.Fprintf(os.Stdout, "At %s (reset hour %d, %s):\n",
		storage.FormatTime(now, cfg.Location()), cfg.DailyResetHour, cfg.ResetTimeZone)
	printRecord("account", store.Accounts(), checkAccount)
	printRecord("origin ", store.Origins(), checkOrigin)

	if decision.Granted {
		green := color.New(color.FgGreen, color.Bold)
		green.Fprintf(os.Stdout, "✅ GRANT: %d copper would be awarded\n", cfg.DailyGoldAmount)
	} else {
		red := color.New(color.FgRed, color.Bold)
		red.Fprintf(os.Stdout, "❌ DENY: %s\n", decision.Reason)
		next := reward.NextBoundary(now, cfg.DailyResetHour, cfg.Location())
		fmt.Fprintf(os.Stdout, "Next reset boundary: %s\n", storage.FormatTime(next, cfg.Location()))
	}
	return nil
}
