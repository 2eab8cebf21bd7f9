package app

import (
	"context"

	"video-training-service/internal/domain"
)

// VideoReader loads a single video with its questions.
type VideoReader interface {
	GetVideo(ctx context.Context, videoID string) (domain.Video, error)
}

// VideoCache is a read-through cache in front of the catalog.
type VideoCache interface {
	VideoReader
	Invalidate(ctx context.Context, videoID string)
}

// CatalogStore holds videos and their questions. Mutations are serialized
// by the implementation and are durable once they return nil.
type CatalogStore interface {
	VideoReader
	CreateVideo(ctx context.Context, title string, source domain.VideoSource) (string, error)
	ListVideos(ctx context.Context) ([]domain.Video, error)
	AddQuestion(ctx context.Context, videoID, text, expectedAnswer string) (domain.Question, error)
	UpdateQuestion(ctx context.Context, videoID string, index int, text, expectedAnswer string) error
	DeleteQuestion(ctx context.Context, videoID string, index int) error
	UpdateQuestionByID(ctx context.Context, videoID, questionID, text, expectedAnswer string) error
	DeleteQuestionByID(ctx context.Context, videoID, questionID string) error
}

// AccountStore persists users; Create must reject a duplicate email with domain.ErrDuplicateEmail.
type AccountStore interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, userID string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// ResultsLedger is the append-only record of completed sessions.
type ResultsLedger interface {
	Append(ctx context.Context, record domain.ResultRecord) error
	QueryByUser(ctx context.Context, userID string) ([]domain.ResultRecord, error)
}

// SessionRepository keeps live sessions between collaborator events (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}
