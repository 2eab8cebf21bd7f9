package memory

import (
	"context"
	"sync"
	"time"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions idle for longer than idleTTL are treated as gone.
type SessionStore struct {
	idleTTL time.Duration
	clock   func() time.Time

	mu       sync.RWMutex
	sessions map[string]*storedSession
}

type storedSession struct {
	session    *app.Session
	lastActive time.Time
}

// NewSessionStore keeps sessions until deleted or idle for idleTTL; zero disables expiry.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		idleTTL:  idleTTL,
		clock:    time.Now,
		sessions: make(map[string]*storedSession),
	}
}

func (s *SessionStore) Save(_ context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = &storedSession{session: session, lastActive: s.clock()}
	return nil
}

// Get returns a live session and refreshes its idle timer.
func (s *SessionStore) Get(_ context.Context, sessionID string) (*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	now := s.clock()
	if s.expired(entry, now) {
		delete(s.sessions, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	entry.lastActive = now
	return entry.session, nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *SessionStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(entry *storedSession, now time.Time) bool {
	return s.idleTTL > 0 && now.Sub(entry.lastActive) > s.idleTTL
}
