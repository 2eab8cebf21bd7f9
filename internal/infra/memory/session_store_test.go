package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
	"video-training-service/internal/evaluator"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)
	session := startSession(t)

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, session.ID())
	if err != nil || got != session {
		t.Fatalf("expected session present, got %v %v", got, err)
	}

	_ = store.Delete(ctx, session.ID())
	if _, err := store.Get(ctx, session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	store := NewSessionStore(10 * time.Minute)
	store.clock = func() time.Time { return now }

	idle := startSession(t)
	active := startSession(t)
	_ = store.Save(ctx, idle)
	_ = store.Save(ctx, active)

	now = now.Add(6 * time.Minute)
	if _, err := store.Get(ctx, active.ID()); err != nil {
		t.Fatalf("get active: %v", err)
	}
	now = now.Add(6 * time.Minute)

	if removed := store.Sweep(ctx); removed != 1 {
		t.Fatalf("expected 1 idle session swept, got %d", removed)
	}
	if _, err := store.Get(ctx, idle.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected idle session gone, got %v", err)
	}
	if _, err := store.Get(ctx, active.ID()); err != nil {
		t.Fatalf("expected active session kept, got %v", err)
	}
}

func startSession(t *testing.T) *app.Session {
	t.Helper()
	ctx := context.Background()
	catalog := NewCatalogStore()
	videoID, _ := catalog.CreateVideo(ctx, "Video", domain.VideoSource{URL: "https://example.com/v"})
	_, _ = catalog.AddQuestion(ctx, videoID, "q", "a")
	service := app.NewQuizService(catalog, NewResultsLedger(), evaluator.Attempt{})
	session, err := service.Start(ctx, "u1", videoID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return session
}
