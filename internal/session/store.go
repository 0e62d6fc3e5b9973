package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const alphanum = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewSessionID produces an id of the canonical shape
// sess_<unix_ms>_<6 lowercase alphanum>, the suffix derived from a
// freshly generated uuid.
func NewSessionID() string {
	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), randomAlphanum(6))
}

func randomAlphanum(n int) string {
	u := uuid.New()
	out := make([]byte, n)
	for i := range out {
		out[i] = alphanum[int(u[i%len(u)])%len(alphanum)]
	}
	return string(out)
}

// Store is the process-wide session map, guarded by a coarse RWMutex for
// membership changes and per-session mutexes (Session.Lock/Unlock) for
// in-turn serialization.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger

	idleTTL   time.Duration
	closedTTL time.Duration

	stopGC chan struct{}
}

// NewStore creates a session store and starts its background GC sweep
// (evicting sessions closed or idle for more than 30 minutes).
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		sessions:  make(map[string]*Session),
		logger:    logger,
		idleTTL:   30 * time.Minute,
		closedTTL: 30 * time.Minute,
		stopGC:    make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *Store) gcLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopGC:
			return
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Lock()
		ttl := s.idleTTL
		if sess.Status == StatusClosed {
			ttl = s.closedTTL
		}
		evict := sess.IsIdleSince(now.Add(-ttl))
		sess.Unlock()
		if evict {
			delete(s.sessions, id)
			s.logger.Debug("session: evicted idle session", zap.String("session_id", id))
		}
	}
}

// Stop halts the GC sweep goroutine.
func (s *Store) Stop() {
	close(s.stopGC)
}

// Lookup returns the raw entry for id without applying auto-rotation
// semantics; used by tests and admin tooling.
func (s *Store) Lookup(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Store) insert(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Resolution is the outcome of GetOrCreateActive: the active session to
// use for this turn, and — if the caller's id pointed at a closed session —
// the original id that was rotated away from.
type Resolution struct {
	Session     *Session
	Rotated     bool
	OriginalID  string
}

// GetOrCreateActive resolves the session for a turn: sessions are created
// lazily on first lookup; an id pointing at a closed session allocates a
// fresh successor id instead of reusing it.
func (s *Store) GetOrCreateActive(requestedID string) Resolution {
	if requestedID == "" {
		sess := newSession(NewSessionID())
		s.insert(sess)
		return Resolution{Session: sess}
	}

	s.mu.RLock()
	existing, ok := s.sessions[requestedID]
	s.mu.RUnlock()

	if !ok {
		sess := newSession(requestedID)
		s.insert(sess)
		return Resolution{Session: sess}
	}

	existing.Lock()
	closed := existing.Status == StatusClosed
	existing.Unlock()

	if !closed {
		return Resolution{Session: existing}
	}

	successor := newSession(NewSessionID())
	s.insert(successor)
	s.logger.Info("session: auto-rotated closed session",
		zap.String("closed_session_id", requestedID),
		zap.String("new_session_id", successor.ID))
	return Resolution{Session: successor, Rotated: true, OriginalID: requestedID}
}

// Touch stamps UpdatedAt; callers hold the session lock.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}
