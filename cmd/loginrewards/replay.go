package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seolha/loginrewards/internal/config"
	"github.com/seolha/loginrewards/internal/grantlog"
	"github.com/seolha/loginrewards/internal/metrics"
	"github.com/seolha/loginrewards/internal/reward"
	"github.com/seolha/loginrewards/internal/storage"
)

var (
	replayEvents  string
	replayStart   string
	replayMetrics bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a session event file through the coordinator",
	Long: `Replay drives a full coordinator stack (engine, record store, grant log)
from a comma-separated event file, using a virtual clock. Useful for
verifying a reward configuration offline and for load drills.

Event lines:
  login,SESSION,ACCOUNT,ORIGIN,CHARACTER
  tick,SESSION,DIFF_MILLIS
  logout,SESSION
  advance,MILLIS
Only advance moves the virtual clock; tick accumulates a session's poll
timer without advancing time. Blank lines and # comments are ignored.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayEvents, "events", "", "Path to event file")
	replayCmd.Flags().StringVar(&replayStart, "start", "", "Virtual clock start (YYYY-MM-DD HH:MM:SS, reference zone; default now)")
	replayCmd.Flags().BoolVar(&replayMetrics, "metrics", false, "Serve /metrics on the configured port during the replay")
	_ = replayCmd.MarkFlagRequired("events")
	rootCmd.AddCommand(replayCmd)
}

// replayHost logs host side effects instead of touching a game world.
type replayHost struct {
	logger zerolog.Logger
	grants int
}

func (h *replayHost) GrantCurrency(sessionID string, amount int64) error {
	h.grants++
	h.logger.Info().Str("session", sessionID).Int64("amount", amount).Msg("Grant currency")
	return nil
}

func (h *replayHost) Notify(sessionID, text string) error {
	h.logger.Info().Str("session", sessionID).Str("text", text).Msg("Notify")
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	logger := setupLogger(config.LogConfig{Level: "info", Format: "text"})

	cfg, err := config.Load(configPath, logger)
	if err != nil {
		return err
	}
	if cfg.Missing {
		return fmt.Errorf("configuration file not found: %s", configPath)
	}
	logger = setupLogger(cfg.Log)

	start := time.Now()
	if replayStart != "" {
		start, err = storage.ParseTime(replayStart, cfg.Location())
		if err != nil {
			return fmt.Errorf("invalid --start instant: %w", err)
		}
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	grants, err := grantlog.New(cfg.LogDir, cfg.Location(), logger)
	if err != nil {
		return err
	}

	if replayMetrics && cfg.Metrics.Port > 0 {
		srv := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), logger)
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() { _ = srv.Stop() }()
	}

	clock := &reward.TestClock{CurrentTime: start}
	host := &replayHost{logger: logger.With().Str("component", "replay-host").Logger()}
	engine := reward.NewEngine(store, grants, cfg.DailyResetHour, cfg.Location(), logger)
	coord := reward.NewCoordinator(cfg, store, engine, host, clock, logger)

	file, err := os.Open(replayEvents)
	if err != nil {
		return fmt.Errorf("open event file: %w", err)
	}
	defer file.Close()

	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyEvent(coord, clock, line); err != nil {
			return fmt.Errorf("event file line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event file: %w", err)
	}

	if err := coord.Close(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Replay complete: %d grant(s), %d session(s) still armed, clock at %s\n",
		host.grants, coord.Sessions(), storage.FormatTime(clock.Now(), cfg.Location()))
	return nil
}

func applyEvent(coord *reward.Coordinator, clock *reward.TestClock, line string) error {
	fields := strings.Split(line, ",")
	switch fields[0] {
	case "login":
		if len(fields) != 5 {
			return fmt.Errorf("login wants 5 fields, got %d", len(fields))
		}
		coord.Login(fields[1], fields[2], fields[3], fields[4])
	case "tick":
		if len(fields) != 3 {
			return fmt.Errorf("tick wants 3 fields, got %d", len(fields))
		}
		diff, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad tick diff %q: %w", fields[2], err)
		}
		coord.Tick(fields[1], diff)
	case "logout":
		if len(fields) != 2 {
			return fmt.Errorf("logout wants 2 fields, got %d", len(fields))
		}
		coord.Logout(fields[1])
	case "advance":
		if len(fields) != 2 {
			return fmt.Errorf("advance wants 2 fields, got %d", len(fields))
		}
		millis, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad advance %q: %w", fields[1], err)
		}
		clock.Advance(time.Duration(millis) * time.Millisecond)
	default:
		return fmt.Errorf("unknown event %q", fields[0])
	}
	return nil
}
