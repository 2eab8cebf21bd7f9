package app

import (
	"context"

	"video-training-service/internal/domain"
)

// ReportService reads the ledger and decorates records with video titles.
type ReportService struct {
	ledger  ResultsLedger
	catalog CatalogStore
}

func NewReportService(ledger ResultsLedger, catalog CatalogStore) *ReportService {
	return &ReportService{ledger: ledger, catalog: catalog}
}

// UserReport returns every result for userID. AverageScore stays nil when
// the user has no results.
func (s *ReportService) UserReport(ctx context.Context, userID string) (domain.UserReport, error) {
	records, err := s.ledger.QueryByUser(ctx, userID)
	if err != nil {
		return domain.UserReport{}, err
	}
	report := domain.UserReport{UserID: userID, Entries: make([]domain.ReportEntry, 0, len(records))}
	if len(records) == 0 {
		return report, nil
	}

	videos, err := s.catalog.ListVideos(ctx)
	if err != nil {
		return domain.UserReport{}, err
	}
	titles := make(map[string]string, len(videos))
	for _, v := range videos {
		titles[v.ID] = v.Title
	}

	sum := 0.0
	for _, r := range records {
		report.Entries = append(report.Entries, domain.ReportEntry{ResultRecord: r, VideoTitle: titles[r.VideoID]})
		sum += r.Score
	}
	avg := sum / float64(len(records))
	report.AverageScore = &avg
	return report, nil
}
