package memory

import (
	"context"
	"sync"

	"video-training-service/internal/domain"
)

// ResultsJournal is the durable side of the ledger (e.g. a CSV log).
type ResultsJournal interface {
	LoadResults() ([]domain.ResultRecord, error)
	AppendResult(record domain.ResultRecord) error
}

// ResultsLedger is an append-only, in-memory implementation of app.ResultsLedger.
// A record becomes visible only after the journal accepted it.
type ResultsLedger struct {
	journal ResultsJournal

	mu      sync.RWMutex
	records []domain.ResultRecord
	byUser  map[string][]int
}

func NewResultsLedger() *ResultsLedger {
	return &ResultsLedger{byUser: make(map[string][]int)}
}

// NewJournaledResultsLedger replays the journal and appends every new record to it.
func NewJournaledResultsLedger(journal ResultsJournal) (*ResultsLedger, error) {
	records, err := journal.LoadResults()
	if err != nil {
		return nil, domain.StorageError("load results", err)
	}
	l := NewResultsLedger()
	l.journal = journal
	for _, r := range records {
		l.addLocked(r)
	}
	return l, nil
}

func (l *ResultsLedger) Append(_ context.Context, record domain.ResultRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.journal != nil {
		if err := l.journal.AppendResult(record); err != nil {
			return domain.StorageError("append result", err)
		}
	}
	l.addLocked(record)
	return nil
}

func (l *ResultsLedger) QueryByUser(_ context.Context, userID string) ([]domain.ResultRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.byUser[userID]
	out := make([]domain.ResultRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, l.records[i])
	}
	return out, nil
}

// Len reports the total number of records.
func (l *ResultsLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *ResultsLedger) addLocked(r domain.ResultRecord) {
	l.records = append(l.records, r)
	l.byUser[r.UserID] = append(l.byUser[r.UserID], len(l.records)-1)
}
