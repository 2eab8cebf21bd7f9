package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
	"video-training-service/internal/evaluator"
	"video-training-service/internal/infra/memory"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	session := startSession(t)

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("quiz:session:" + session.ID()) {
		t.Fatalf("expected redis key to be set")
	}

	if err := store.Delete(ctx, session.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:session:" + session.ID()) {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreIdleExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	session := startSession(t)
	_ = store.Save(ctx, session)

	mr.FastForward(40 * time.Second)
	if _, err := store.Get(ctx, session.ID()); err != nil {
		t.Fatalf("expected live session, got %v", err)
	}
	// Get refreshed the TTL, so another 40s keeps it alive.
	mr.FastForward(40 * time.Second)
	if _, err := store.Get(ctx, session.ID()); err != nil {
		t.Fatalf("expected refreshed session, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, session.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func startSession(t *testing.T) *app.Session {
	t.Helper()
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	videoID, _ := catalog.CreateVideo(ctx, "Video", domain.VideoSource{URL: "https://example.com/v"})
	_, _ = catalog.AddQuestion(ctx, videoID, "q", "a")
	service := app.NewQuizService(catalog, memory.NewResultsLedger(), evaluator.Attempt{})
	session, err := service.Start(ctx, "u1", videoID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return session
}
