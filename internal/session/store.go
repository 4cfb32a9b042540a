// Package session holds per-(app, user, session) conversation state shared by
// the structuring adapters across multi-turn refinement.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Turn roles, mirroring the model API's conversation roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Key identifies one conversation.
type Key struct {
	App       string
	UserID    string
	SessionID string
}

// Turn is one message in a conversation.
type Turn struct {
	Role string
	Text string
	At   time.Time
}

// Session is the evolving conversational context for one key. Safe for
// concurrent use; requests for different sessions never contend on the same
// lock.
type Session struct {
	key       Key
	createdAt time.Time
	clock     clockwork.Clock

	mu    sync.Mutex
	turns []Turn
}

// Key returns the session's identity.
func (s *Session) Key() Key { return s.key }

// CreatedAt returns when the session was first created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Append records a conversation turn.
func (s *Session) Append(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Text: text, At: s.clock.Now()})
}

// History returns a copy of the most recent limit turns; limit <= 0 returns
// everything.
func (s *Session) History(limit int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Store owns all sessions for the process lifetime. Sessions are never
// evicted: the store is explicitly constructed at startup and torn down with
// the process, and the ingestion workload keys sessions by reporter, which is
// a bounded population.
type Store struct {
	clock  clockwork.Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[Key]*Session
}

// NewStore creates an empty session store. Pass a nil clock for real time.
func NewStore(clock clockwork.Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:    clock,
		logger:   logger,
		sessions: make(map[Key]*Session),
	}
}

// GetOrCreate returns the session for (app, userID, sessionID), creating it
// on first use. Creation is idempotent per key; the second return reports
// whether this call created the session.
func (st *Store) GetOrCreate(app, userID, sessionID string) (*Session, bool) {
	key := Key{App: app, UserID: userID, SessionID: sessionID}

	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[key]; ok {
		return s, false
	}

	s := &Session{
		key:       key,
		createdAt: st.clock.Now(),
		clock:     st.clock,
	}
	st.sessions[key] = s
	st.logger.Info("created session", "app", app, "user_id", userID, "session_id", sessionID)
	return s, true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
