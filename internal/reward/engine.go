package reward

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/grantlog"
	"github.com/seolha/loginrewards/internal/metrics"
	"github.com/seolha/loginrewards/internal/storage"
)

// Decision is the outcome of one eligibility evaluation.
type Decision struct {
	Granted bool
	Reason  string
}

// Denial reasons.
const (
	ReasonAccountWindow = "account already rewarded this window"
	ReasonOriginWindow  = "origin already rewarded this window"
)

const denialCacheSize = 4096

// Engine decides whether a key pair qualifies for a grant and, when it
// does, performs the dual upsert, persists both stores, and appends the
// daily log line. The whole check-then-upsert sequence runs under one
// mutex so two concurrent ticks can never both observe an eligible key.
type Engine struct {
	store     storage.Store
	grants    *grantlog.Writer
	resetHour int
	loc       *time.Location
	logger    zerolog.Logger

	// denied caches accountKey to next-boundary for keys known to be
	// inside their window, so repeated per-second polling of an
	// already-rewarded session skips the store lock entirely. A granted
	// account cannot become eligible before the next boundary, so the
	// cache can only deny correctly.
	denied *lru.LRU[string, time.Time]

	mu sync.Mutex
}

// NewEngine creates an eligibility engine over the given store. grants
// may be nil to disable the daily log (the check CLI runs without one).
func NewEngine(store storage.Store, grants *grantlog.Writer, resetHour int, loc *time.Location, logger zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		grants:    grants,
		resetHour: resetHour,
		loc:       loc,
		logger:    logger.With().Str("component", "eligibility").Logger(),
		denied:    lru.NewLRU[string, time.Time](denialCacheSize, nil, 25*time.Hour),
	}
}

// Evaluate runs the account-then-origin gate for one session poll. Both
// gates must pass; the account gate short-circuits without touching the
// origin store. On grant both stores are updated and saved before the
// lock is released.
func (e *Engine) Evaluate(accountKey, characterName, originKey string, now time.Time) Decision {
	if boundary, ok := e.denied.Get(accountKey); ok && now.Before(boundary) {
		metrics.EvaluationsTotal.WithLabelValues(metrics.ResultCached).Inc()
		return Decision{Reason: ReasonAccountWindow}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	account, _ := e.store.Accounts().Get(accountKey)
	if !Eligible(account.GrantedAt, now, e.resetHour, e.loc) {
		e.denied.Add(accountKey, NextBoundary(now, e.resetHour, e.loc))
		metrics.EvaluationsTotal.WithLabelValues(metrics.ResultAccountWindow).Inc()
		return Decision{Reason: ReasonAccountWindow}
	}

	origin, _ := e.store.Origins().Get(originKey)
	if !Eligible(origin.GrantedAt, now, e.resetHour, e.loc) {
		metrics.EvaluationsTotal.WithLabelValues(metrics.ResultOriginWindow).Inc()
		return Decision{Reason: ReasonOriginWindow}
	}

	e.store.Accounts().Upsert(storage.Record{Key: accountKey, CharacterName: characterName, GrantedAt: now})
	e.store.Origins().Upsert(storage.Record{Key: originKey, GrantedAt: now})
	e.denied.Add(accountKey, NextBoundary(now, e.resetHour, e.loc))

	// A failed save keeps the in-memory grant; the next grant or the
	// shutdown flush retries the snapshot.
	ctx := context.Background()
	if err := e.store.Accounts().Save(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Failed to save account records")
		metrics.StoreSaveErrors.WithLabelValues("accounts").Inc()
	}
	if err := e.store.Origins().Save(ctx); err != nil {
		e.logger.Error().Err(err).Msg("Failed to save origin records")
		metrics.StoreSaveErrors.WithLabelValues("origins").Inc()
	}

	if e.grants != nil {
		err := e.grants.Append(grantlog.Entry{
			AccountKey:    accountKey,
			CharacterName: characterName,
			OriginKey:     originKey,
			GrantedAt:     now,
		})
		if err != nil {
			e.logger.Error().Err(err).Msg("Failed to append grant log line")
			metrics.GrantLogErrors.Inc()
		}
	}

	metrics.EvaluationsTotal.WithLabelValues(metrics.ResultGranted).Inc()
	metrics.GrantsTotal.Inc()

	e.logger.Info().
		Str("account", accountKey).
		Str("character", characterName).
		Str("origin", originKey).
		Time("granted_at", now).
		Msg("Reward granted")

	return Decision{Granted: true}
}

// Peek evaluates both gates without mutating any state. Used by the
// check CLI for dry-run queries.
func (e *Engine) Peek(accountKey, originKey string, now time.Time) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	account, _ := e.store.Accounts().Get(accountKey)
	if !Eligible(account.GrantedAt, now, e.resetHour, e.loc) {
		return Decision{Reason: ReasonAccountWindow}
	}
	origin, _ := e.store.Origins().Get(originKey)
	if !Eligible(origin.GrantedAt, now, e.resetHour, e.loc) {
		return Decision{Reason: ReasonOriginWindow}
	}
	return Decision{Granted: true}
}
