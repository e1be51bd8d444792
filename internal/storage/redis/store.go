// Package redis implements the record store on a Redis hash per key
// type. Like the file backends, the mapping is memory-resident: it is
// loaded once at open and mirrored back to Redis on Save, keeping the
// check-then-upsert path free of network I/O.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/storage"
)

const (
	hashAccounts = "loginrewards:accounts"
	hashOrigins  = "loginrewards:origins"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store implements storage.Store using Redis.
type Store struct {
	client   *redis.Client
	accounts *hashStore
	origins  *hashStore
}

// Open connects to Redis, verifies the connection, and loads both
// record hashes into memory.
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: connect %s: %w", cfg.Addr, err)
	}

	logger = logger.With().Str("component", "redis-store").Logger()

	s := &Store{
		client: client,
		accounts: &hashStore{
			client:  client,
			hash:    hashAccounts,
			records: make(map[string]storage.Record),
			logger:  logger.With().Str("store", "accounts").Logger(),
		},
		origins: &hashStore{
			client:  client,
			hash:    hashOrigins,
			records: make(map[string]storage.Record),
			logger:  logger.With().Str("store", "origins").Logger(),
		},
	}

	if err := s.accounts.load(ctx); err != nil {
		client.Close()
		return nil, err
	}
	if err := s.origins.load(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

// Accounts returns the account-keyed record store.
func (s *Store) Accounts() storage.RecordStore { return s.accounts }

// Origins returns the origin-keyed record store.
func (s *Store) Origins() storage.RecordStore { return s.origins }

// Close closes the Redis connection.
func (s *Store) Close() error { return s.client.Close() }

type hashStore struct {
	client *redis.Client
	hash   string
	logger zerolog.Logger

	mu      sync.Mutex
	records map[string]storage.Record
}

func (h *hashStore) Get(key string) (storage.Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.records[key]
	return rec, ok
}

func (h *hashStore) Upsert(rec storage.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[rec.Key] = rec
}

func (h *hashStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func (h *hashStore) load(ctx context.Context) error {
	fields, err := h.client.HGetAll(ctx, h.hash).Result()
	if err != nil {
		return fmt.Errorf("redis: load %s: %w", h.hash, err)
	}

	for key, data := range fields {
		var rec storage.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			h.logger.Warn().Err(err).Str("key", key).Msg("Skipping malformed record")
			continue
		}
		h.records[rec.Key] = rec
	}

	h.logger.Info().Int("records", len(h.records)).Msg("Records loaded")
	return nil
}

// Save writes the full current mapping with a single pipelined HSet.
func (h *hashStore) Save(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	pipe := h.client.Pipeline()
	for key, rec := range h.records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("redis: marshal record %s: %w", key, err)
		}
		pipe.HSet(ctx, h.hash, key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save records")
		return fmt.Errorf("redis: save %s: %w", h.hash, err)
	}

	h.logger.Debug().Int("records", len(h.records)).Msg("Records saved")
	return nil
}
