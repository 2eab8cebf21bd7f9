package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Session state stays in a local map; sessions are driven by the
//     connection that owns them.
//   - Redis holds a liveness key per session whose TTL is the idle timeout.
//     Every Get refreshes it; once Redis expires the key the session is gone.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *app.Session) error {
	if err := s.client.Set(ctx, s.key(session.ID()), session.UserID(), s.ttl).Err(); err != nil {
		return domain.StorageError("mark session live", err)
	}
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*app.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	live, err := s.touch(ctx, sessionID)
	if err != nil {
		return nil, domain.StorageError("refresh session", err)
	}
	if !live {
		s.forget(sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.forget(sessionID)
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return domain.StorageError("delete session", err)
	}
	return nil
}

// Sweep drops local sessions whose liveness key has expired.
func (s *SessionStore) Sweep(ctx context.Context) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			continue
		}
		if n == 0 {
			s.forget(id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) touch(ctx context.Context, sessionID string) (bool, error) {
	if s.ttl <= 0 {
		n, err := s.client.Exists(ctx, s.key(sessionID)).Result()
		return n > 0, err
	}
	return s.client.Expire(ctx, s.key(sessionID), s.ttl).Result()
}

func (s *SessionStore) forget(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
