// Package csv implements the record store on comma-separated text files,
// the canonical durable format: one file per store, header row, one row
// per key, timestamps rendered in the configured reference zone.
package csv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/storage"
)

const (
	accountFile = "account_last_reward.csv"
	originFile  = "origin_last_reward.csv"

	accountHeader = "AccountID,CharacterName,LastRewardTimestamp"
	originHeader  = "IPAddress,LastRewardTimestamp"
)

// Store implements storage.Store on two CSV files under a data directory.
type Store struct {
	accounts *fileStore
	origins  *fileStore
}

// Open loads both record files from dir. Missing files initialize empty
// stores; malformed rows are logged and skipped.
func Open(dir string, loc *time.Location, logger zerolog.Logger) (*Store, error) {
	if err := storage.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("csv: create data dir: %w", err)
	}

	logger = logger.With().Str("component", "csv-store").Logger()

	s := &Store{
		accounts: &fileStore{
			path:     filepath.Join(dir, accountFile),
			header:   accountHeader,
			withName: true,
			loc:      loc,
			records:  make(map[string]storage.Record),
			logger:   logger.With().Str("store", "accounts").Logger(),
		},
		origins: &fileStore{
			path:    filepath.Join(dir, originFile),
			header:  originHeader,
			loc:     loc,
			records: make(map[string]storage.Record),
			logger:  logger.With().Str("store", "origins").Logger(),
		},
	}

	if err := s.accounts.load(); err != nil {
		return nil, err
	}
	if err := s.origins.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Accounts returns the account-keyed record store.
func (s *Store) Accounts() storage.RecordStore { return s.accounts }

// Origins returns the origin-keyed record store.
func (s *Store) Origins() storage.RecordStore { return s.origins }

// Close is a no-op for the CSV backend; durable state is written by Save.
func (s *Store) Close() error { return nil }

// fileStore is one CSV-backed record map. withName selects the
// three-column account schema over the two-column origin schema.
type fileStore struct {
	path     string
	header   string
	withName bool
	loc      *time.Location
	logger   zerolog.Logger

	mu      sync.Mutex
	records map[string]storage.Record
}

func (f *fileStore) Get(key string) (storage.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	return rec, ok
}

func (f *fileStore) Upsert(rec storage.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Key] = rec
}

func (f *fileStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// load reads the backing file into memory. A missing file is not an
// error; a malformed row is skipped with a warning and never aborts
// the load.
func (f *fileStore) load() error {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Info().Str("path", f.path).Msg("No record file found, starting empty")
			return nil
		}
		return fmt.Errorf("csv: open %s: %w", f.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			continue // header
		}
		if line == "" {
			continue
		}
		rec, err := f.parseRow(line)
		if err != nil {
			f.logger.Warn().Err(err).Str("row", line).Msg("Skipping malformed record row")
			continue
		}
		f.records[rec.Key] = rec
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("csv: read %s: %w", f.path, err)
	}

	f.logger.Info().
		Str("path", f.path).
		Int("records", len(f.records)).
		Msg("Record file loaded")
	return nil
}

func (f *fileStore) parseRow(line string) (storage.Record, error) {
	fields := strings.Split(line, ",")
	want := 2
	if f.withName {
		want = 3
	}
	if len(fields) != want {
		return storage.Record{}, fmt.Errorf("expected %d fields, got %d", want, len(fields))
	}

	rec := storage.Record{Key: strings.TrimSpace(fields[0])}
	if rec.Key == "" {
		return storage.Record{}, fmt.Errorf("empty key")
	}

	ts := fields[len(fields)-1]
	if f.withName {
		rec.CharacterName = fields[1]
	}

	at, err := storage.ParseTime(strings.TrimSpace(ts), f.loc)
	if err != nil {
		return storage.Record{}, fmt.Errorf("bad timestamp %q: %w", ts, err)
	}
	rec.GrantedAt = at
	return rec, nil
}

// Save rewrites the backing file with the full current mapping. The
// snapshot is written to a temporary file and renamed into place so a
// crash mid-write cannot truncate the previous snapshot. A failure
// leaves the in-memory state untouched.
func (f *fileStore) Save(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp")
	if err != nil {
		f.logger.Error().Err(err).Str("path", f.path).Msg("Failed to open record file for save")
		return fmt.Errorf("csv: save %s: %w", f.path, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	fmt.Fprintln(w, f.header)
	for _, rec := range f.records {
		if f.withName {
			fmt.Fprintf(w, "%s,%s,%s\n", rec.Key, rec.CharacterName, storage.FormatTime(rec.GrantedAt, f.loc))
		} else {
			fmt.Fprintf(w, "%s,%s\n", rec.Key, storage.FormatTime(rec.GrantedAt, f.loc))
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("csv: write %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv: close %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("csv: rename %s: %w", f.path, err)
	}

	f.logger.Debug().Int("records", len(f.records)).Str("path", f.path).Msg("Record file saved")
	return nil
}
