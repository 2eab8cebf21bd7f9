package memory

import (
	"context"
	"sync"

	"video-training-service/internal/domain"
)

// AccountSnapshotter persists the full user list; SaveAccounts must be all-or-nothing.
type AccountSnapshotter interface {
	LoadAccounts() ([]domain.User, error)
	SaveAccounts(users []domain.User) error
}

// AccountStore is an in-memory implementation of app.AccountStore with a
// unique index on normalized email.
type AccountStore struct {
	snap AccountSnapshotter

	mu      sync.RWMutex
	users   []domain.User
	byID    map[string]int
	byEmail map[string]int
}

func NewAccountStore() *AccountStore {
	return &AccountStore{byID: make(map[string]int), byEmail: make(map[string]int)}
}

// NewPersistentAccountStore loads users from snap and saves every registration back to it.
func NewPersistentAccountStore(snap AccountSnapshotter) (*AccountStore, error) {
	users, err := snap.LoadAccounts()
	if err != nil {
		return nil, domain.StorageError("load accounts", err)
	}
	s := NewAccountStore()
	s.snap = snap
	for _, u := range users {
		s.indexLocked(u)
	}
	return s, nil
}

func (s *AccountStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = domain.NormalizeEmail(user.Email)
	if _, exists := s.byEmail[user.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	if s.snap != nil {
		next := make([]domain.User, len(s.users), len(s.users)+1)
		copy(next, s.users)
		if err := s.snap.SaveAccounts(append(next, user)); err != nil {
			return domain.StorageError("save accounts", err)
		}
	}
	s.indexLocked(user)
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[i], nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[i], nil
}

func (s *AccountStore) indexLocked(u domain.User) {
	s.users = append(s.users, u)
	s.byID[u.ID] = len(s.users) - 1
	s.byEmail[domain.NormalizeEmail(u.Email)] = len(s.users) - 1
}
