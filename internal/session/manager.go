package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gamecenter/internal/catalog"
	"gamecenter/internal/game"
	"gamecenter/internal/logger"
	"gamecenter/internal/metrics"
	"gamecenter/internal/stats"
	"gamecenter/internal/storage"
)

var (
	ErrUnknownGame = errors.New("unknown game")
	ErrUnavailable = errors.New("game is not available")
	ErrNoEngine    = errors.New("game has no engine")
)

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	catalog  *catalog.Catalog
	registry *game.Registry
	store    *storage.Store
	stats    stats.Store

	// Schedule, Rand and Now are the seams handed to sessions and matches.
	// Nil values fall back to the wall clock and the global PRNG.
	Schedule Scheduler
	Rand     game.Rand
	Now      func() time.Time

	// OnChange runs after a session's state changed and was persisted.
	OnChange func(*Session)
}

// NewManager creates a session manager. statsStore may differ from store,
// e.g. when stats live in Redis.
func NewManager(cat *catalog.Catalog, registry *game.Registry, store *storage.Store, statsStore stats.Store) *Manager {
	if statsStore == nil {
		statsStore = store
	}
	return &Manager{
		sessions: make(map[string]*Session),
		catalog:  cat,
		registry: registry,
		store:    store,
		stats:    statsStore,
	}
}

// Resolve returns the engine mounted for a catalog id.
func (m *Manager) Resolve(gameID string) (game.Game, error) {
	return Resolve(m.catalog, m.registry, gameID)
}

// Resolve looks gameID up in cat and registry. Only available games with
// a registered engine can be played.
func Resolve(cat *catalog.Catalog, registry *game.Registry, gameID string) (game.Game, error) {
	desc, ok := cat.GetByID(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if desc.Status != catalog.StatusAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnavailable, gameID, desc.Status)
	}
	g, ok := registry.Get(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoEngine, gameID)
	}
	return g, nil
}

func (m *Manager) matchConfig() game.MatchConfig {
	return game.MatchConfig{Rand: m.Rand, Now: m.Now, Stats: m.stats}
}

// Create mounts a new match for gameID and persists the session.
func (m *Manager) Create(ctx context.Context, gameID string) (*Session, error) {
	g, err := m.Resolve(gameID)
	if err != nil {
		return nil, err
	}
	code := uuid.NewString()
	if err := m.store.CreateSession(ctx, code, gameID); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s := NewSession(code, gameID, g.NewMatch(ctx, m.matchConfig()), m.Schedule)
	s.notify = m.changed
	if err := m.SaveMatchState(ctx, s); err != nil {
		logger.Warn("save match state", "session", code, "err", err)
	}

	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	metrics.SessionsActive.Inc()
	logger.Info("session created", "session", code, "game", gameID)
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

func (m *Manager) changed(s *Session) {
	if err := m.SaveMatchState(context.Background(), s); err != nil {
		logger.Warn("save match state", "session", s.Code, "err", err)
	}
	if m.OnChange != nil {
		m.OnChange(s)
	}
}

// SaveMatchState persists the session status and match snapshot.
func (m *Manager) SaveMatchState(ctx context.Context, s *Session) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	status := s.Status
	data, err := s.Match.MarshalJSON()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}

	if err := m.store.UpdateSessionStatus(ctx, s.Code, string(status)); err != nil {
		return err
	}
	return m.store.SaveMatchState(ctx, s.Code, string(data))
}

// Restore loads unfinished sessions from the database on startup and
// re-arms their scheduled actions.
func (m *Manager) Restore(ctx context.Context) error {
	rows, err := m.store.ListSessions(ctx, "")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, row := range rows {
		if row.Status == string(StatusFinished) {
			continue
		}
		g, err := m.Resolve(row.GameID)
		if err != nil {
			logger.Warn("skipping session", "session", row.Code, "err", err)
			continue
		}
		match := g.NewMatch(ctx, m.matchConfig())
		stateJSON, err := m.store.GetMatchState(ctx, row.Code)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			logger.Warn("skipping session", "session", row.Code, "err", err)
			continue
		default:
			if err := match.UnmarshalJSON([]byte(stateJSON)); err != nil {
				logger.Warn("skipping session", "session", row.Code, "err", fmt.Errorf("unmarshal: %w", err))
				continue
			}
		}

		s := NewSession(row.Code, row.GameID, match, m.Schedule)
		s.Status = Status(row.Status)
		s.CreatedAt = row.CreatedAt
		s.notify = m.changed
		s.mu.Lock()
		s.scheduleLocked()
		s.mu.Unlock()

		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
		metrics.SessionsActive.Inc()
	}
	return nil
}

// Finish ends a session and forgets it.
func (m *Manager) Finish(ctx context.Context, code string) bool {
	s, ok := m.Get(code)
	if !ok {
		return false
	}
	s.Finish()
	m.Remove(ctx, code)
	return true
}

// Remove deletes a session from memory and storage.
func (m *Manager) Remove(ctx context.Context, code string) {
	m.mu.Lock()
	_, ok := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()
	if ok {
		metrics.SessionsActive.Dec()
	}
	if err := m.store.DeleteSession(ctx, code); err != nil {
		logger.Warn("delete session", "session", code, "err", err)
	}
}

// CleanupLoop removes stale sessions periodically until ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(ctx, maxAge)
		}
	}
}

// cleanup drops finished sessions and sessions nobody is watching once
// they have not changed within maxAge.
func (m *Manager) cleanup(ctx context.Context, maxAge time.Duration) {
	now := time.Now()
	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	for _, s := range candidates {
		s.mu.Lock()
		finished := s.Status == StatusFinished
		idle := len(s.clients) == 0
		s.mu.Unlock()
		if !finished && !idle {
			continue
		}
		row, err := m.store.GetSession(ctx, s.Code)
		if err == nil && now.Sub(row.UpdatedAt) <= maxAge {
			continue
		}
		logger.Info("cleaning up session", "session", s.Code, "finished", finished)
		s.Finish()
		m.Remove(ctx, s.Code)
	}
}
