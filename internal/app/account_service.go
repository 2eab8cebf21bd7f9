package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"video-training-service/internal/domain"
)

const defaultBcryptCost = 12

type registerInput struct {
	Name       string `validate:"required,max=200"`
	Email      string `validate:"required,email"`
	Credential string `validate:"required,max=72"`
}

// AccountService registers and authenticates users. Credentials are only
// ever stored as bcrypt hashes.
type AccountService struct {
	store AccountStore
	cost  int
	now   func() time.Time
	log   *slog.Logger
}

func NewAccountService(store AccountStore, log *slog.Logger) *AccountService {
	if log == nil {
		log = slog.Default()
	}
	return &AccountService{store: store, cost: defaultBcryptCost, now: time.Now, log: log}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.cost = cost
	return s
}

// Register creates a user. A second registration with the same email
// fails with domain.ErrDuplicateEmail and leaves the first user untouched.
func (s *AccountService) Register(ctx context.Context, name, email, credential string) (domain.User, error) {
	in := registerInput{
		Name:       strings.TrimSpace(name),
		Email:      domain.NormalizeEmail(email),
		Credential: credential,
	}
	if err := validateInput(in); err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Credential), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash credential: %w", err)
	}
	user := domain.User{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		CredentialHash: string(hash),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("user registered", "user", user.ID)
	return user, nil
}

// Authenticate returns the user id for a matching email and credential.
func (s *AccountService) Authenticate(ctx context.Context, email, credential string) (string, error) {
	user, err := s.store.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(credential)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return user.ID, nil
}

// GetUser looks a user up by id.
func (s *AccountService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.store.GetByID(ctx, userID)
}
