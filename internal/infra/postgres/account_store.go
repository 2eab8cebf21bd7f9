package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"video-training-service/internal/domain"
)

const uniqueViolation = "23505"

// AccountStore keeps users in Postgres; email uniqueness is a table constraint.
type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

func (s *AccountStore) Create(ctx context.Context, user domain.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, credential_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, domain.NormalizeEmail(user.Email), user.CredentialHash, user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return domain.StorageError("create user", err)
	}
	return nil
}

func (s *AccountStore) GetByID(ctx context.Context, userID string) (domain.User, error) {
	return s.getOne(ctx, `WHERE id=$1`, userID)
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getOne(ctx, `WHERE email=$1`, domain.NormalizeEmail(email))
}

func (s *AccountStore) getOne(ctx context.Context, where string, arg string) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, credential_hash, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.CredentialHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, domain.StorageError("load user", err)
	}
	return u, nil
}
