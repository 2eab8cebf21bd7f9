package app

import (
	"context"
	"log/slog"
	"strings"

	"video-training-service/internal/domain"
)

type videoInput struct {
	Title string `validate:"required,max=300"`
}

type questionInput struct {
	Text           string `validate:"required"`
	ExpectedAnswer string `validate:"required"`
}

// CatalogService is the administrator surface over the catalog store.
type CatalogService struct {
	store CatalogStore
	cache VideoCache
	log   *slog.Logger
}

// NewCatalogService wires the store; cache may be nil.
func NewCatalogService(store CatalogStore, cache VideoCache, log *slog.Logger) *CatalogService {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogService{store: store, cache: cache, log: log}
}

func (s *CatalogService) CreateVideo(ctx context.Context, title string, source domain.VideoSource) (string, error) {
	title = strings.TrimSpace(title)
	if err := validateInput(videoInput{Title: title}); err != nil {
		return "", err
	}
	source = domain.VideoSource{URL: strings.TrimSpace(source.URL), FilePath: strings.TrimSpace(source.FilePath)}
	if err := source.Validate(); err != nil {
		return "", err
	}
	id, err := s.store.CreateVideo(ctx, title, source)
	if err != nil {
		return "", err
	}
	s.log.Info("video created", "video", id)
	return id, nil
}

func (s *CatalogService) GetVideo(ctx context.Context, videoID string) (domain.Video, error) {
	return s.store.GetVideo(ctx, videoID)
}

func (s *CatalogService) ListVideos(ctx context.Context) ([]domain.Video, error) {
	return s.store.ListVideos(ctx)
}

func (s *CatalogService) AddQuestion(ctx context.Context, videoID, text, expectedAnswer string) (domain.Question, error) {
	in, err := newQuestionInput(text, expectedAnswer)
	if err != nil {
		return domain.Question{}, err
	}
	q, err := s.store.AddQuestion(ctx, videoID, in.Text, in.ExpectedAnswer)
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, videoID)
	return q, nil
}

func (s *CatalogService) UpdateQuestion(ctx context.Context, videoID string, index int, text, expectedAnswer string) error {
	in, err := newQuestionInput(text, expectedAnswer)
	if err != nil {
		return err
	}
	if err := s.store.UpdateQuestion(ctx, videoID, index, in.Text, in.ExpectedAnswer); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, videoID string, index int) error {
	if err := s.store.DeleteQuestion(ctx, videoID, index); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

func (s *CatalogService) UpdateQuestionByID(ctx context.Context, videoID, questionID, text, expectedAnswer string) error {
	in, err := newQuestionInput(text, expectedAnswer)
	if err != nil {
		return err
	}
	if err := s.store.UpdateQuestionByID(ctx, videoID, questionID, in.Text, in.ExpectedAnswer); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

func (s *CatalogService) DeleteQuestionByID(ctx context.Context, videoID, questionID string) error {
	if err := s.store.DeleteQuestionByID(ctx, videoID, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, videoID)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, videoID string) {
	s.log.Debug("catalog changed", "video", videoID)
	if s.cache != nil {
		s.cache.Invalidate(ctx, videoID)
	}
}

func newQuestionInput(text, expectedAnswer string) (questionInput, error) {
	in := questionInput{Text: strings.TrimSpace(text), ExpectedAnswer: strings.TrimSpace(expectedAnswer)}
	return in, validateInput(in)
}
