package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"video-training-service/internal/domain"
)

// ResultsLedger appends results as rows; each append is one INSERT, so
// concurrent completions never overwrite each other.
type ResultsLedger struct {
	pool *pgxpool.Pool
}

func NewResultsLedger(pool *pgxpool.Pool) *ResultsLedger {
	return &ResultsLedger{pool: pool}
}

func (l *ResultsLedger) Append(ctx context.Context, r domain.ResultRecord) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO results (user_id, video_id, score, feedback, recorded_at) VALUES ($1, $2, $3::numeric, $4, $5)`,
		r.UserID, r.VideoID, r.Score, r.Feedback, r.Timestamp)
	if err != nil {
		return domain.StorageError("append result", err)
	}
	return nil
}

func (l *ResultsLedger) QueryByUser(ctx context.Context, userID string) ([]domain.ResultRecord, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT user_id, video_id, score::float8, feedback, recorded_at FROM results
		 WHERE user_id=$1 ORDER BY recorded_at, id`, userID)
	if err != nil {
		return nil, domain.StorageError("query results", err)
	}
	defer rows.Close()

	var out []domain.ResultRecord
	for rows.Next() {
		var r domain.ResultRecord
		if err := rows.Scan(&r.UserID, &r.VideoID, &r.Score, &r.Feedback, &r.Timestamp); err != nil {
			return nil, domain.StorageError("scan result", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("query results", err)
	}
	return out, nil
}
