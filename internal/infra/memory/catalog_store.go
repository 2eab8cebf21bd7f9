package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"video-training-service/internal/domain"
)

// CatalogSnapshotter persists the whole catalog (e.g. a JSON document on disk).
// SaveCatalog must be all-or-nothing.
type CatalogSnapshotter interface {
	LoadCatalog() ([]domain.Video, error)
	SaveCatalog(videos []domain.Video) error
}

// CatalogStore is an in-memory implementation of app.CatalogStore.
// Writers are serialized by mu; the new state is persisted before it
// becomes visible, so a failed save leaves both memory and disk unchanged.
type CatalogStore struct {
	snap  CatalogSnapshotter
	clock func() time.Time

	mu     sync.RWMutex
	videos []domain.Video
	index  map[string]int
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{clock: time.Now, index: make(map[string]int)}
}

// NewPersistentCatalogStore loads the catalog from snap and saves every mutation back to it.
func NewPersistentCatalogStore(snap CatalogSnapshotter) (*CatalogStore, error) {
	videos, err := snap.LoadCatalog()
	if err != nil {
		return nil, domain.StorageError("load catalog", err)
	}
	s := NewCatalogStore()
	s.snap = snap
	s.videos = videos
	for i, v := range videos {
		s.index[v.ID] = i
	}
	return s, nil
}

func (s *CatalogStore) CreateVideo(_ context.Context, title string, source domain.VideoSource) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video := domain.Video{
		ID:        uuid.NewString(),
		Title:     title,
		Source:    source,
		Questions: []domain.Question{},
		CreatedAt: s.clock().UTC(),
	}
	next := make([]domain.Video, len(s.videos), len(s.videos)+1)
	copy(next, s.videos)
	next = append(next, video)
	if err := s.persistLocked(next); err != nil {
		return "", err
	}
	s.videos = next
	s.index[video.ID] = len(next) - 1
	return video.ID, nil
}

func (s *CatalogStore) GetVideo(_ context.Context, videoID string) (domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[videoID]
	if !ok {
		return domain.Video{}, domain.ErrVideoNotFound
	}
	return s.videos[i].Clone(), nil
}

func (s *CatalogStore) ListVideos(_ context.Context) ([]domain.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Video, 0, len(s.videos))
	for _, v := range s.videos {
		out = append(out, v.Clone())
	}
	return out, nil
}

func (s *CatalogStore) AddQuestion(_ context.Context, videoID, text, expectedAnswer string) (domain.Question, error) {
	q := domain.Question{ID: uuid.NewString(), Text: text, ExpectedAnswer: expectedAnswer}
	err := s.mutate(videoID, func(v *domain.Video) error {
		v.AppendQuestion(q)
		return nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *CatalogStore) UpdateQuestion(_ context.Context, videoID string, index int, text, expectedAnswer string) error {
	return s.mutate(videoID, func(v *domain.Video) error {
		return v.ReplaceQuestion(index, text, expectedAnswer)
	})
}

func (s *CatalogStore) DeleteQuestion(_ context.Context, videoID string, index int) error {
	return s.mutate(videoID, func(v *domain.Video) error {
		return v.RemoveQuestion(index)
	})
}

func (s *CatalogStore) UpdateQuestionByID(_ context.Context, videoID, questionID, text, expectedAnswer string) error {
	return s.mutate(videoID, func(v *domain.Video) error {
		return v.ReplaceQuestion(v.QuestionIndex(questionID), text, expectedAnswer)
	})
}

func (s *CatalogStore) DeleteQuestionByID(_ context.Context, videoID, questionID string) error {
	return s.mutate(videoID, func(v *domain.Video) error {
		return v.RemoveQuestion(v.QuestionIndex(questionID))
	})
}

// mutate applies fn to a copy of the video and commits it only if fn and persistence succeed.
func (s *CatalogStore) mutate(videoID string, fn func(v *domain.Video) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[videoID]
	if !ok {
		return domain.ErrVideoNotFound
	}
	updated := s.videos[i].Clone()
	if err := fn(&updated); err != nil {
		return err
	}
	next := make([]domain.Video, len(s.videos))
	copy(next, s.videos)
	next[i] = updated
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.videos = next
	return nil
}

func (s *CatalogStore) persistLocked(videos []domain.Video) error {
	if s.snap == nil {
		return nil
	}
	if err := s.snap.SaveCatalog(videos); err != nil {
		return domain.StorageError("save catalog", err)
	}
	return nil
}
