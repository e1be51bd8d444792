package storage

import "context"

// RecordStore holds the last-grant instant per key for one key type.
// The mapping is memory-resident; Save mirrors the full current snapshot
// to the durable backend. Get and Upsert never touch the backend, so a
// grant sequence is check, upsert, then one explicit Save.
type RecordStore interface {
	Get(key string) (Record, bool)
	Upsert(rec Record)
	Save(ctx context.Context) error
	Len() int
}

// Store bundles the two independent record stores backing the
// eligibility engine: one keyed by account identifier, one keyed by
// network origin.
type Store interface {
	Accounts() RecordStore
	Origins() RecordStore
	Close() error
}
