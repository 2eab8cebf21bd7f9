package filestore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"video-training-service/internal/domain"
)

var resultsHeader = []string{"user_id", "video_id", "score", "feedback", "timestamp"}

// ResultsLog is the append-only CSV results table. Each append is a single
// flushed and synced write under a mutex; a failed append is truncated
// away so earlier rows stay readable.
type ResultsLog struct {
	path string
	mu   sync.Mutex

	// sink wraps the file for writes; tests swap it to inject failures.
	sink func(f *os.File) io.Writer
}

func NewResultsLog(dir string) *ResultsLog {
	return &ResultsLog{
		path: filepath.Join(dir, resultsFile),
		sink: func(f *os.File) io.Writer { return f },
	}
}

func (l *ResultsLog) AppendResult(r domain.ResultRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if err := l.writeRow(f, size == 0, r); err != nil {
		if terr := f.Truncate(size); terr != nil {
			return errors.Join(err, fmt.Errorf("truncate partial row: %w", terr))
		}
		return err
	}
	return nil
}

func (l *ResultsLog) writeRow(f *os.File, header bool, r domain.ResultRecord) error {
	w := csv.NewWriter(l.sink(f))
	if header {
		if err := w.Write(resultsHeader); err != nil {
			return err
		}
	}
	row := []string{
		r.UserID,
		r.VideoID,
		decimal.NewFromFloat(r.Score).StringFixed(1),
		r.Feedback,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// LoadResults reads every record. A missing file is an empty ledger.
func (l *ResultsLog) LoadResults() ([]domain.ResultRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(resultsHeader)
	var out []domain.ResultRecord
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", l.path, line, err)
		}
		if line == 1 && row[0] == resultsHeader[0] {
			continue
		}
		rec, err := parseResultRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", l.path, line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseResultRow(row []string) (domain.ResultRecord, error) {
	score, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("score: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, row[4])
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	return domain.ResultRecord{
		UserID:    row[0],
		VideoID:   row[1],
		Score:     score,
		Feedback:  row[3],
		Timestamp: ts,
	}, nil
}
