// Package bolt implements the record store on a single bbolt file with
// one bucket per key type. Records are stored as JSON; the in-memory
// mapping is loaded once at open and mirrored back on Save.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"github.com/seolha/loginrewards/internal/storage"
)

const dbFile = "login_rewards.bolt"

var (
	bucketAccounts = []byte("accounts")
	bucketOrigins  = []byte("origins")
)

// Store implements storage.Store on a bbolt database.
type Store struct {
	db       *bbolt.DB
	accounts *bucketStore
	origins  *bucketStore
}

// Open opens (creating if needed) the bolt database under dir and loads
// both record buckets into memory.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	if err := storage.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("bolt: create data dir: %w", err)
	}

	path := filepath.Join(dir, dbFile)
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketAccounts, bucketOrigins} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create buckets: %w", err)
	}

	logger = logger.With().Str("component", "bolt-store").Logger()

	s := &Store{
		db: db,
		accounts: &bucketStore{
			db:      db,
			bucket:  bucketAccounts,
			records: make(map[string]storage.Record),
			logger:  logger.With().Str("store", "accounts").Logger(),
		},
		origins: &bucketStore{
			db:      db,
			bucket:  bucketOrigins,
			records: make(map[string]storage.Record),
			logger:  logger.With().Str("store", "origins").Logger(),
		},
	}

	if err := s.accounts.load(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.origins.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Accounts returns the account-keyed record store.
func (s *Store) Accounts() storage.RecordStore { return s.accounts }

// Origins returns the origin-keyed record store.
func (s *Store) Origins() storage.RecordStore { return s.origins }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

type bucketStore struct {
	db     *bbolt.DB
	bucket []byte
	logger zerolog.Logger

	mu      sync.Mutex
	records map[string]storage.Record
}

func (b *bucketStore) Get(key string) (storage.Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[key]
	return rec, ok
}

func (b *bucketStore) Upsert(rec storage.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[rec.Key] = rec
}

func (b *bucketStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

func (b *bucketStore) load() error {
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).ForEach(func(k, v []byte) error {
			var rec storage.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				b.logger.Warn().Err(err).Str("key", string(k)).Msg("Skipping malformed record")
				return nil
			}
			b.records[rec.Key] = rec
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("bolt: load %s: %w", b.bucket, err)
	}

	b.logger.Info().Int("records", len(b.records)).Msg("Records loaded")
	return nil
}

// Save writes the full current mapping in one transaction.
func (b *bucketStore) Save(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.db.Update(func(tx *bbolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		bucket := tx.Bucket(b.bucket)
		for key, rec := range b.records {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to save records")
		return fmt.Errorf("bolt: save %s: %w", b.bucket, err)
	}

	b.logger.Debug().Int("records", len(b.records)).Msg("Records saved")
	return nil
}
