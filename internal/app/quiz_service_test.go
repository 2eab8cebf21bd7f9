package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
	"video-training-service/internal/evaluator"
	"video-training-service/internal/infra/memory"
)

var fixedNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func TestIndexAdvancesByOneUntilComplete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	videoID := env.video(t, 3)

	session, err := env.service.Start(ctx, "u1", videoID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.CurrentIndex() != 0 || session.Status() != domain.SessionInProgress {
		t.Fatalf("expected Presenting(0), got %d %s", session.CurrentIndex(), session.Status())
	}

	if err := env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "a1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if session.CurrentIndex() != 1 {
		t.Fatalf("expected index 1, got %d", session.CurrentIndex())
	}
	if err := env.service.Skip(ctx, session); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if session.CurrentIndex() != 2 {
		t.Fatalf("expected index 2, got %d", session.CurrentIndex())
	}
	if err := env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "a3"}); err != nil {
		t.Fatalf("submit last: %v", err)
	}
	if session.CurrentIndex() != 3 || session.Status() != domain.SessionComplete {
		t.Fatalf("expected complete at index 3, got %d %s", session.CurrentIndex(), session.Status())
	}

	if err := env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "late"}); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected complete error on submit, got %v", err)
	}
	if err := env.service.Skip(ctx, session); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected complete error on skip, got %v", err)
	}
	if session.CurrentIndex() != 3 {
		t.Fatalf("index moved after completion: %d", session.CurrentIndex())
	}
}

func TestBlankSubmissionIsRejectedWithoutStateChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session, _ := env.service.Start(ctx, "u1", env.video(t, 2))

	for _, blank := range []string{"", "   ", "\t\n"} {
		if err := env.service.Submit(ctx, session, domain.AnswerSubmission{Text: blank}); !errors.Is(err, domain.ErrEmptyAnswer) {
			t.Fatalf("blank %q: expected empty answer, got %v", blank, err)
		}
	}
	if session.CurrentIndex() != 0 || len(session.Answers()) != 0 {
		t.Fatalf("state changed: index=%d answers=%d", session.CurrentIndex(), len(session.Answers()))
	}
}

func TestAttemptRateScore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session, _ := env.service.Start(ctx, "u1", env.video(t, 4))

	_ = env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "one"})
	_ = env.service.Skip(ctx, session)
	_ = env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "three", AudioRef: "rec-3.wav"})
	if err := env.service.Skip(ctx, session); err != nil {
		t.Fatalf("final skip: %v", err)
	}

	result, err := env.service.Result(ctx, session)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Score != 50.0 || result.Feedback != "Good job!" {
		t.Fatalf("expected 50.0 / Good job!, got %v / %q", result.Score, result.Feedback)
	}
	if !result.Timestamp.Equal(fixedNow) || result.UserID != "u1" {
		t.Fatalf("unexpected record: %+v", result)
	}
	answers := session.Answers()
	if len(answers) != 2 || answers[1].QuestionIndex != 2 || answers[1].AudioRef != "rec-3.wav" {
		t.Fatalf("unexpected answers: %+v", answers)
	}
}

func TestAttemptRateRoundsToOneDecimal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session, _ := env.service.Start(ctx, "u1", env.video(t, 3))

	_ = env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "x"})
	_ = env.service.Skip(ctx, session)
	_ = env.service.Skip(ctx, session)

	result, _ := env.service.Result(ctx, session)
	if result.Score != 33.3 {
		t.Fatalf("expected 33.3, got %v", result.Score)
	}
}

func TestCompletionAppendsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session, _ := env.service.Start(ctx, "u1", env.video(t, 1))

	if err := env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "a"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := env.service.Result(ctx, session); err != nil {
			t.Fatalf("re-render %d: %v", i, err)
		}
		_ = session.View()
	}
	if env.ledger.Len() != 1 {
		t.Fatalf("expected one ledger record, got %d", env.ledger.Len())
	}
}

func TestFailedAppendIsRetriedByResult(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	videoID, _ := catalog.CreateVideo(ctx, "Video", domain.VideoSource{URL: "https://example.com/v"})
	_, _ = catalog.AddQuestion(ctx, videoID, "q", "a")
	ledger := &flakyLedger{ResultsLedger: memory.NewResultsLedger(), fail: true}
	service := app.NewQuizService(catalog, ledger, evaluator.Attempt{})

	session, _ := service.Start(ctx, "u1", videoID)
	err := service.Submit(ctx, session, domain.AnswerSubmission{Text: "a"})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if session.Status() != domain.SessionComplete || session.View().Result != nil {
		t.Fatalf("expected complete session without recorded result")
	}

	ledger.fail = false
	if _, err := service.Result(ctx, session); err != nil {
		t.Fatalf("result: %v", err)
	}
	if _, err := service.Result(ctx, session); err != nil {
		t.Fatalf("result again: %v", err)
	}
	if ledger.Len() != 1 {
		t.Fatalf("expected exactly one record, got %d", ledger.Len())
	}
}

func TestEmptyVideoSessionOnlyAcceptsAbandon(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session, err := env.service.Start(ctx, "u1", env.video(t, 0))
	if err != nil {
		t.Fatalf("start on empty video should not fail: %v", err)
	}
	if session.Status() != domain.SessionEmpty {
		t.Fatalf("expected empty session, got %s", session.Status())
	}
	if err := env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "x"}); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions on submit, got %v", err)
	}
	if err := env.service.Skip(ctx, session); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions on skip, got %v", err)
	}
	if _, err := env.service.Result(ctx, session); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected no questions on result, got %v", err)
	}

	env.service.Abandon(session)
	if session.Status() != domain.SessionAbandoned || env.ledger.Len() != 0 {
		t.Fatalf("expected abandoned session with no record")
	}
}

func TestAbandonWritesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session, _ := env.service.Start(ctx, "u1", env.video(t, 2))
	_ = env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "a"})

	env.service.Abandon(session)
	if err := env.service.Submit(ctx, session, domain.AnswerSubmission{Text: "b"}); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if env.ledger.Len() != 0 {
		t.Fatalf("abandon must not record a result")
	}
}

func TestStartRequiresKnownVideoAndUser(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	accounts := memory.NewAccountStore()
	service := app.NewQuizService(catalog, memory.NewResultsLedger(), evaluator.Attempt{}, app.WithAccounts(accounts))

	if _, err := service.Start(ctx, "ghost", "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	_ = accounts.Create(ctx, domain.User{ID: "u1", Email: "u1@example.com"})
	if _, err := service.Start(ctx, "u1", "missing"); !errors.Is(err, domain.ErrVideoNotFound) {
		t.Fatalf("expected video not found, got %v", err)
	}
}

func TestSessionIgnoresLaterCatalogEdits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	videoID := env.video(t, 2)
	session, _ := env.service.Start(ctx, "u1", videoID)

	_ = env.catalog.DeleteQuestion(ctx, videoID, 0)
	view := session.View()
	if view.Total != 2 || view.Question == nil || view.Question.Text != "question 1" {
		t.Fatalf("session should keep its snapshot, got %+v", view)
	}
}

func TestMeanEvaluationPolicy(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	videoID, _ := catalog.CreateVideo(ctx, "Greetings", domain.VideoSource{URL: "https://example.com/g"})
	_, _ = catalog.AddQuestion(ctx, videoID, "Greet an elder", "namaste ji")
	_, _ = catalog.AddQuestion(ctx, videoID, "Say thank you", "dhanyavaad")
	_, _ = catalog.AddQuestion(ctx, videoID, "Say goodbye", "phir milenge")
	_, _ = catalog.AddQuestion(ctx, videoID, "Say sorry", "maaf kijiye")
	ledger := memory.NewResultsLedger()
	service := app.NewQuizService(catalog, ledger, evaluator.TextMatch{MaxEditDistance: 1},
		app.WithScoringPolicy(app.ScoreMeanEvaluation), app.WithClock(func() time.Time { return fixedNow }))

	session, _ := service.Start(ctx, "u1", videoID)
	_ = service.Submit(ctx, session, domain.AnswerSubmission{Text: "Namaste ji"}) // 100
	_ = service.Submit(ctx, session, domain.AnswerSubmission{Text: "dhanyavad"})  // 50
	_ = service.Skip(ctx, session)                                                 // 0
	_ = service.Submit(ctx, session, domain.AnswerSubmission{Text: "kuch nahi"})  // 0

	result, err := service.Result(ctx, session)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Score != 37.5 {
		t.Fatalf("expected 37.5, got %v", result.Score)
	}
	if result.Feedback == "" || result.Feedback == "Good job!" {
		t.Fatalf("expected evaluator-derived feedback, got %q", result.Feedback)
	}
	answers := session.Answers()
	if *answers[0].Score != 100 || *answers[1].Score != 50 {
		t.Fatalf("per-answer scores not fixed at submit: %v %v", *answers[0].Score, *answers[1].Score)
	}
}

func TestParseScoringPolicy(t *testing.T) {
	if p, _ := app.ParseScoringPolicy(""); p != app.ScoreAttemptRate {
		t.Fatalf("expected attempt-rate default, got %s", p)
	}
	if p, _ := app.ParseScoringPolicy("Mean-Evaluation"); p != app.ScoreMeanEvaluation {
		t.Fatalf("expected mean-evaluation, got %s", p)
	}
	if _, err := app.ParseScoringPolicy("blend"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

type testEnv struct {
	catalog *memory.CatalogStore
	ledger  *memory.ResultsLedger
	service *app.QuizService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog := memory.NewCatalogStore()
	ledger := memory.NewResultsLedger()
	service := app.NewQuizService(catalog, ledger, evaluator.Attempt{},
		app.WithClock(func() time.Time { return fixedNow }))
	return &testEnv{catalog: catalog, ledger: ledger, service: service}
}

func (e *testEnv) video(t *testing.T, questions int) string {
	t.Helper()
	ctx := context.Background()
	videoID, err := e.catalog.CreateVideo(ctx, "Video", domain.VideoSource{URL: "https://example.com/v"})
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	for i := 1; i <= questions; i++ {
		if _, err := e.catalog.AddQuestion(ctx, videoID, fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("add question: %v", err)
		}
	}
	return videoID
}

type flakyLedger struct {
	*memory.ResultsLedger
	fail bool
}

func (l *flakyLedger) Append(ctx context.Context, r domain.ResultRecord) error {
	if l.fail {
		return domain.StorageError("append result", errors.New("connection refused"))
	}
	return l.ResultsLedger.Append(ctx, r)
}
