// Package grantlog maintains the append-only daily grant log: one CSV
// file per calendar day, header written on creation, one line appended
// per grant. The log is a write-only side effect and is never read back.
package grantlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/storage"
)

const header = "AccountID,CharacterName,IPAddress,RewardTimestamp"

// Entry is one granted reward.
type Entry struct {
	AccountKey    string
	CharacterName string
	OriginKey     string
	GrantedAt     time.Time
}

// Writer appends grant entries to the current day's log file. The day
// rolls over based on the grant timestamp in the reference zone.
type Writer struct {
	dir    string
	loc    *time.Location
	logger zerolog.Logger
	mu     sync.Mutex
}

// New creates a Writer rooted at dir.
func New(dir string, loc *time.Location, logger zerolog.Logger) (*Writer, error) {
	if err := storage.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("grantlog: create log dir: %w", err)
	}
	return &Writer{
		dir:    dir,
		loc:    loc,
		logger: logger.With().Str("component", "grant-log").Logger(),
	}, nil
}

// Append writes one grant line, creating the day's file with a header
// if it does not exist yet.
func (w *Writer) Append(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := e.GrantedAt.In(w.loc).Format("2006-01-02")
	path := filepath.Join(w.dir, "reward_log_"+day+".csv")

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		w.logger.Error().Err(err).Str("path", path).Msg("Failed to open daily grant log")
		return fmt.Errorf("grantlog: open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("grantlog: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if _, err := fmt.Fprintln(file, header); err != nil {
			return fmt.Errorf("grantlog: write header %s: %w", path, err)
		}
	}

	_, err = fmt.Fprintf(file, "%s,%s,%s,%s\n",
		e.AccountKey, e.CharacterName, e.OriginKey, storage.FormatTime(e.GrantedAt, w.loc))
	if err != nil {
		return fmt.Errorf("grantlog: append %s: %w", path, err)
	}
	return nil
}
