package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"video-training-service/internal/domain"
)

func TestResultsLedgerQueryByUser(t *testing.T) {
	ctx := context.Background()
	ledger := NewResultsLedger()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	for _, r := range []domain.ResultRecord{
		{UserID: "u1", VideoID: "v1", Score: 50, Timestamp: now},
		{UserID: "u2", VideoID: "v1", Score: 100, Timestamp: now},
		{UserID: "u1", VideoID: "v2", Score: 75, Timestamp: now},
	} {
		if err := ledger.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := ledger.QueryByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || got[0].VideoID != "v1" || got[1].VideoID != "v2" {
		t.Fatalf("unexpected records: %+v", got)
	}
	if none, _ := ledger.QueryByUser(ctx, "nobody"); len(none) != 0 {
		t.Fatalf("expected no records, got %+v", none)
	}
}

func TestResultsLedgerJournalFailureIsNotVisible(t *testing.T) {
	ctx := context.Background()
	journal := &failingJournal{}
	ledger, err := NewJournaledResultsLedger(journal)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ledger.Append(ctx, domain.ResultRecord{UserID: "u1", VideoID: "v1", Score: 10}); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected empty ledger after failed append")
	}
}

func TestResultsLedgerConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	ledger := NewResultsLedger()

	const writers = 50
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < writers; i++ {
		i := i
		g.Go(func() error {
			return ledger.Append(gctx, domain.ResultRecord{UserID: fmt.Sprintf("u%d", i%5), VideoID: "v1", Score: 50})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ledger.Len() != writers {
		t.Fatalf("expected %d records, got %d", writers, ledger.Len())
	}
	if got, _ := ledger.QueryByUser(ctx, "u3"); len(got) != writers/5 {
		t.Fatalf("expected %d records for u3, got %d", writers/5, len(got))
	}
}

type failingJournal struct{}

func (failingJournal) LoadResults() ([]domain.ResultRecord, error) { return nil, nil }
func (failingJournal) AppendResult(domain.ResultRecord) error    { return errors.New("read-only filesystem") }
