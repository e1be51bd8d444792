package reward

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/config"
	"github.com/seolha/loginrewards/internal/metrics"
	"github.com/seolha/loginrewards/internal/storage"
)

// goldToken is the substitution point in the announce template; it is
// replaced with the reward amount scaled from copper to gold.
const goldToken = "%gold%"

// copperPerGold converts the configured smallest-unit amount to the
// human-scaled value shown in chat.
const copperPerGold = 10000

const statusBanner = "|cffFF69B4[Daily Reward]|r Daily login rewards are enabled on this server."

// Host is what the game server exposes back to the coordinator.
type Host interface {
	GrantCurrency(sessionID string, amount int64) error
	Notify(sessionID string, text string) error
}

// Coordinator wires host session callbacks to the eligibility engine.
// It exclusively owns the set of live session gates and the record
// store; the engine and window calculator are stateless collaborators.
type Coordinator struct {
	cfg    *config.Config
	engine *Engine
	store  storage.Store
	host   Host
	clock  Clock
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionGate
}

// NewCoordinator builds the coordinator. The engine must share the same
// store instance.
func NewCoordinator(cfg *config.Config, store storage.Store, engine *Engine, host Host, clock Clock, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		host:     host,
		clock:    clock,
		logger:   logger.With().Str("component", "coordinator").Logger(),
		sessions: make(map[string]*sessionGate),
	}
}

// Login arms a session gate. The session is polled from the next tick
// until it resolves or logs out.
func (c *Coordinator) Login(sessionID, accountKey, originKey, characterName string) {
	if !c.cfg.Enable {
		return
	}

	now := c.clock.Now()

	c.mu.Lock()
	c.sessions[sessionID] = &sessionGate{
		sessionID:     sessionID,
		accountKey:    accountKey,
		originKey:     originKey,
		characterName: characterName,
		loginAt:       now,
		state:         gateArmed,
	}
	metrics.ActiveSessions.Set(float64(len(c.sessions)))
	c.mu.Unlock()

	if c.cfg.ShowModuleStatus {
		if err := c.host.Notify(sessionID, statusBanner); err != nil {
			c.logger.Warn().Err(err).Str("session", sessionID).Msg("Failed to send status banner")
		}
	}

	c.logger.Debug().
		Str("session", sessionID).
		Str("account", accountKey).
		Str("origin", originKey).
		Msg("Session armed")
}

// Logout closes the session gate without side effects.
func (c *Coordinator) Logout(sessionID string) {
	if !c.cfg.Enable {
		return
	}

	c.mu.Lock()
	gate, ok := c.sessions[sessionID]
	if ok {
		gate.state = gateClosed
		delete(c.sessions, sessionID)
	}
	metrics.ActiveSessions.Set(float64(len(c.sessions)))
	c.mu.Unlock()

	if ok {
		c.logger.Debug().Str("session", sessionID).Msg("Session closed before resolution")
	}
}

// Tick advances one session's accumulator by diffMillis and, at most
// once per accumulated second, runs an eligibility pass. A denied pass
// leaves the gate armed so the session retries on the next second; a
// grant applies the host side effects and resolves the session.
func (c *Coordinator) Tick(sessionID string, diffMillis int64) {
	if !c.cfg.Enable {
		return
	}

	c.mu.Lock()
	gate, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return
	}
	due := gate.advance(diffMillis)
	snapshot := *gate
	c.mu.Unlock()

	if !due {
		return
	}

	now := c.clock.Now()
	if !snapshot.delayElapsed(now, time.Duration(c.cfg.RewardDelaySeconds)*time.Second) {
		return
	}

	decision := c.engine.Evaluate(snapshot.accountKey, snapshot.characterName, snapshot.originKey, now)
	if !decision.Granted {
		return
	}

	c.mu.Lock()
	if gate, ok := c.sessions[sessionID]; ok {
		gate.state = gateResolved
		delete(c.sessions, sessionID)
	}
	metrics.ActiveSessions.Set(float64(len(c.sessions)))
	c.mu.Unlock()

	if err := c.host.GrantCurrency(sessionID, c.cfg.DailyGoldAmount); err != nil {
		c.logger.Error().Err(err).Str("session", sessionID).Msg("Host failed to grant currency")
	}
	metrics.GoldGranted.Add(float64(c.cfg.DailyGoldAmount))

	if c.cfg.ShowAnnounceMessage {
		if err := c.host.Notify(sessionID, c.announceText()); err != nil {
			c.logger.Warn().Err(err).Str("session", sessionID).Msg("Failed to send announce message")
		}
	}
}

// Sessions returns the number of sessions currently polled.
func (c *Coordinator) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Close flushes both record stores. Called at module shutdown.
func (c *Coordinator) Close() error {
	ctx := context.Background()
	err := errors.Join(
		c.store.Accounts().Save(ctx),
		c.store.Origins().Save(ctx),
	)
	if err != nil {
		c.logger.Error().Err(err).Msg("Final record save failed")
		return err
	}
	c.logger.Info().
		Int("accounts", c.store.Accounts().Len()).
		Int("origins", c.store.Origins().Len()).
		Msg("Record stores flushed")
	return nil
}

func (c *Coordinator) announceText() string {
	gold := strconv.FormatInt(c.cfg.DailyGoldAmount/copperPerGold, 10)
	return strings.Replace(c.cfg.AnnounceMessage, goldToken, gold, 1)
}
