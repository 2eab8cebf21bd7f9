package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"video-training-service/internal/domain"
)

// CatalogStore keeps videos and questions in Postgres. Question mutations
// lock the owning video row, so writers on one video are serialized.
type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

func (s *CatalogStore) CreateVideo(ctx context.Context, title string, source domain.VideoSource) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO videos (id, title, source_url, source_path) VALUES ($1, $2, $3, $4)`,
		id, title, nullable(source.URL), nullable(source.FilePath))
	if err != nil {
		return "", domain.StorageError("create video", err)
	}
	return id, nil
}

func (s *CatalogStore) GetVideo(ctx context.Context, videoID string) (domain.Video, error) {
	var video domain.Video
	var url, path *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, source_url, source_path, created_at FROM videos WHERE id=$1`, videoID).
		Scan(&video.ID, &video.Title, &url, &path, &video.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Video{}, domain.ErrVideoNotFound
	}
	if err != nil {
		return domain.Video{}, domain.StorageError("load video", err)
	}
	video.Source = sourceOf(url, path)

	byVideo, err := s.loadQuestions(ctx, []string{videoID})
	if err != nil {
		return domain.Video{}, err
	}
	video.Questions = byVideo[videoID]
	if video.Questions == nil {
		video.Questions = []domain.Question{}
	}
	return video, nil
}

func (s *CatalogStore) ListVideos(ctx context.Context) ([]domain.Video, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, source_url, source_path, created_at FROM videos ORDER BY seq`)
	if err != nil {
		return nil, domain.StorageError("list videos", err)
	}
	defer rows.Close()

	var videos []domain.Video
	var ids []string
	for rows.Next() {
		var v domain.Video
		var url, path *string
		if err := rows.Scan(&v.ID, &v.Title, &url, &path, &v.CreatedAt); err != nil {
			return nil, domain.StorageError("scan video", err)
		}
		v.Source = sourceOf(url, path)
		videos = append(videos, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list videos", err)
	}
	if len(ids) == 0 {
		return videos, nil
	}

	byVideo, err := s.loadQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i].Questions = byVideo[videos[i].ID]
		if videos[i].Questions == nil {
			videos[i].Questions = []domain.Question{}
		}
	}
	return videos, nil
}

func (s *CatalogStore) AddQuestion(ctx context.Context, videoID, text, expectedAnswer string) (domain.Question, error) {
	q := domain.Question{ID: uuid.NewString(), Text: text, ExpectedAnswer: expectedAnswer}
	err := s.withVideoLock(ctx, videoID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO questions (id, video_id, position, question_text, expected_answer)
			 SELECT $1, $2, COUNT(*), $3, $4 FROM questions WHERE video_id=$2`,
			q.ID, videoID, text, expectedAnswer)
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *CatalogStore) UpdateQuestion(ctx context.Context, videoID string, index int, text, expectedAnswer string) error {
	return s.withVideoLock(ctx, videoID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE questions SET question_text=$3, expected_answer=$4 WHERE video_id=$1 AND position=$2`,
			videoID, index, text, expectedAnswer)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrQuestionNotFound
		}
		return nil
	})
}

func (s *CatalogStore) DeleteQuestion(ctx context.Context, videoID string, index int) error {
	return s.withVideoLock(ctx, videoID, func(tx pgx.Tx) error {
		return deleteAt(ctx, tx, videoID, index)
	})
}

func (s *CatalogStore) UpdateQuestionByID(ctx context.Context, videoID, questionID, text, expectedAnswer string) error {
	return s.withVideoLock(ctx, videoID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE questions SET question_text=$3, expected_answer=$4 WHERE video_id=$1 AND id=$2`,
			videoID, questionID, text, expectedAnswer)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrQuestionNotFound
		}
		return nil
	})
}

func (s *CatalogStore) DeleteQuestionByID(ctx context.Context, videoID, questionID string) error {
	return s.withVideoLock(ctx, videoID, func(tx pgx.Tx) error {
		var position int
		err := tx.QueryRow(ctx,
			`SELECT position FROM questions WHERE video_id=$1 AND id=$2`, videoID, questionID).Scan(&position)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrQuestionNotFound
		}
		if err != nil {
			return err
		}
		return deleteAt(ctx, tx, videoID, position)
	})
}

// withVideoLock runs fn in a transaction holding the video row lock.
func (s *CatalogStore) withVideoLock(ctx context.Context, videoID string, fn func(tx pgx.Tx) error) error {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM videos WHERE id=$1 FOR UPDATE`, videoID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVideoNotFound
		}
		if err != nil {
			return err
		}
		return fn(tx)
	})
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return domain.StorageError(fmt.Sprintf("update video %s", videoID), err)
}

func (s *CatalogStore) loadQuestions(ctx context.Context, videoIDs []string) (map[string][]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT video_id, id, question_text, expected_answer FROM questions
		 WHERE video_id = ANY($1) ORDER BY video_id, position`, videoIDs)
	if err != nil {
		return nil, domain.StorageError("load questions", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Question, len(videoIDs))
	for rows.Next() {
		var videoID string
		var question domain.Question
		if err := rows.Scan(&videoID, &question.ID, &question.Text, &question.ExpectedAnswer); err != nil {
			return nil, domain.StorageError("scan question", err)
		}
		out[videoID] = append(out[videoID], question)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("load questions", err)
	}
	return out, nil
}

func deleteAt(ctx context.Context, tx pgx.Tx, videoID string, position int) error {
	tag, err := tx.Exec(ctx, `DELETE FROM questions WHERE video_id=$1 AND position=$2`, videoID, position)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	_, err = tx.Exec(ctx,
		`UPDATE questions SET position = position - 1 WHERE video_id=$1 AND position > $2`, videoID, position)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sourceOf(url, path *string) domain.VideoSource {
	var src domain.VideoSource
	if url != nil {
		src.URL = *url
	}
	if path != nil {
		src.FilePath = *path
	}
	return src
}
