package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type StoreConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

// Store holds the live sessions. Sessions idle for longer than the TTL are
// removed by Sweep; when full, the least recently used session is evicted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
	agg      Aggregator
	cfg      StoreConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewStore(agg Aggregator, cfg StoreConfig, logger *slog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*State),
		agg:      agg,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a session with every filter value selected.
func (st *Store) Create() *State {
	id := uuid.NewString()
	s := NewState(id, st.agg, st.agg.DefaultSelection(), st.logger)
	now := st.now()
	s.createdAt = now
	s.touch(now)

	st.mu.Lock()
	if st.cfg.MaxSessions > 0 && len(st.sessions) >= st.cfg.MaxSessions {
		st.evictOldestLocked()
	}
	st.sessions[id] = s
	st.mu.Unlock()

	st.logger.Debug("session created", "session_id", id)
	return s
}

func (st *Store) Get(id string) (*State, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	s.touch(st.now())
	return s, nil
}

// GetOrCreate returns the session for id, creating a new one when id is
// unknown or expired. The boolean is true when a session was created.
func (st *Store) GetOrCreate(id string) (*State, bool) {
	if id != "" {
		if s, err := st.Get(id); err == nil {
			return s, false
		}
	}
	return st.Create(), true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Stats describes the live sessions for the admin endpoint.
type Stats struct {
	Live            int        `json:"live"`
	MaxSessions     int        `json:"max_sessions"`
	OldestCreatedAt *time.Time `json:"oldest_created_at,omitempty"`
}

func (st *Store) Stats() Stats {
	st.mu.RLock()
	defer st.mu.RUnlock()

	stats := Stats{Live: len(st.sessions), MaxSessions: st.cfg.MaxSessions}
	for _, s := range st.sessions {
		if created := s.CreatedAt(); stats.OldestCreatedAt == nil || created.Before(*stats.OldestCreatedAt) {
			stats.OldestCreatedAt = &created
		}
	}
	return stats
}

func (st *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range st.sessions {
		if seen := s.LastSeen(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	if oldestID != "" {
		delete(st.sessions, oldestID)
		st.logger.Info("session evicted", "session_id", oldestID, "last_seen", oldest)
	}
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	if st.cfg.TTL <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.cfg.TTL)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions until ctx is cancelled.
func (st *Store) Run(ctx context.Context) {
	if st.cfg.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(st.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				st.logger.Info("expired sessions removed", "count", n, "live", st.Len())
			}
		}
	}
}
