package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"video-training-service/internal/domain"
	"video-training-service/internal/evaluator"
)

// ScoringPolicy decides how a completed session is tallied. Exactly one is
// active per QuizService.
type ScoringPolicy string

const (
	// ScoreAttemptRate scores 100·answered/total and ignores per-answer scores.
	ScoreAttemptRate ScoringPolicy = "attempt-rate"
	// ScoreMeanEvaluation averages evaluator scores over all questions; skipped ones count 0.
	ScoreMeanEvaluation ScoringPolicy = "mean-evaluation"

	completionFeedback = "Good job!"
)

// ParseScoringPolicy maps a config value to a policy; empty means attempt-rate.
func ParseScoringPolicy(raw string) (ScoringPolicy, error) {
	switch ScoringPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ScoreAttemptRate:
		return ScoreAttemptRate, nil
	case ScoreMeanEvaluation:
		return ScoreMeanEvaluation, nil
	default:
		return "", fmt.Errorf("unknown scoring policy %q", raw)
	}
}

type QuizOption func(*QuizService)

func WithScoringPolicy(p ScoringPolicy) QuizOption { return func(s *QuizService) { s.policy = p } }
func WithAccounts(a AccountStore) QuizOption       { return func(s *QuizService) { s.accounts = a } }
func WithLogger(l *slog.Logger) QuizOption         { return func(s *QuizService) { s.log = l } }

// WithClock is for deterministic timestamps in tests.
func WithClock(now func() time.Time) QuizOption { return func(s *QuizService) { s.now = now } }

// QuizService contains the quiz session use cases: start, submit, skip,
// abandon and the exactly-once recording of the result.
type QuizService struct {
	videos    VideoReader
	ledger    ResultsLedger
	evaluator evaluator.Evaluator
	accounts  AccountStore
	policy    ScoringPolicy
	now       func() time.Time
	log       *slog.Logger
}

func NewQuizService(videos VideoReader, ledger ResultsLedger, eval evaluator.Evaluator, opts ...QuizOption) *QuizService {
	s := &QuizService{
		videos:    videos,
		ledger:    ledger,
		evaluator: eval,
		policy:    ScoreAttemptRate,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Policy reports the active scoring policy.
func (s *QuizService) Policy() ScoringPolicy { return s.policy }

// Start begins a session at the first question. A video without questions
// yields a session in domain.SessionEmpty which only accepts Abandon.
func (s *QuizService) Start(ctx context.Context, userID, videoID string) (*Session, error) {
	if s.accounts != nil {
		if _, err := s.accounts.GetByID(ctx, userID); err != nil {
			return nil, err
		}
	}
	video, err := s.videos.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	session := newSession(uuid.NewString(), userID, video, s.now())
	s.log.Info("quiz session started",
		"session", session.id, "user", userID, "video", videoID, "questions", len(video.Questions))
	return session, nil
}

// Submit records an answer for the current question and advances.
// Blank text is rejected with domain.ErrEmptyAnswer and changes nothing.
func (s *QuizService) Submit(ctx context.Context, session *Session, submission domain.AnswerSubmission) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.checkPresentingLocked(); err != nil {
		return err
	}
	if strings.TrimSpace(submission.Text) == "" {
		return domain.ErrEmptyAnswer
	}

	idx := session.current
	question := session.questions[idx]
	score, feedback := s.evaluator.Evaluate(question.ExpectedAnswer, submission.Text)
	score = clampScore(score)
	session.answers[idx] = domain.Answer{
		QuestionIndex: idx,
		QuestionID:    question.ID,
		SubmittedText: submission.Text,
		Score:         &score,
		Feedback:      &feedback,
		AudioRef:      submission.AudioRef,
	}
	return s.advanceLocked(ctx, session)
}

// Skip advances past the current question without recording an answer.
func (s *QuizService) Skip(ctx context.Context, session *Session) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.checkPresentingLocked(); err != nil {
		return err
	}
	return s.advanceLocked(ctx, session)
}

// Abandon discards the session; nothing is written to the ledger.
func (s *QuizService) Abandon(session *Session) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.status == domain.SessionAbandoned {
		return
	}
	session.status = domain.SessionAbandoned
	s.log.Info("quiz session abandoned", "session", session.id, "user", session.userID, "video", session.videoID)
}

// Result returns the recorded result of a completed session. If the
// append at completion failed, it is attempted again here; once it has
// succeeded the stored record is returned and the ledger is not touched.
func (s *QuizService) Result(ctx context.Context, session *Session) (domain.ResultRecord, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	switch session.status {
	case domain.SessionComplete:
	case domain.SessionAbandoned:
		return domain.ResultRecord{}, domain.ErrSessionClosed
	case domain.SessionEmpty:
		return domain.ResultRecord{}, domain.ErrNoQuestions
	default:
		return domain.ResultRecord{}, domain.ErrSessionNotComplete
	}
	if err := s.recordLocked(ctx, session); err != nil {
		return domain.ResultRecord{}, err
	}
	return *session.result, nil
}

func (s *QuizService) advanceLocked(ctx context.Context, session *Session) error {
	if !session.advanceLocked() {
		return nil
	}
	return s.recordLocked(ctx, session)
}

// recordLocked appends the ledger record at most once per session.
func (s *QuizService) recordLocked(ctx context.Context, session *Session) error {
	if session.result != nil {
		return nil
	}
	score, feedback := s.tally(session)
	record := domain.ResultRecord{
		UserID:    session.userID,
		VideoID:   session.videoID,
		Score:     score,
		Feedback:  feedback,
		Timestamp: s.now().UTC(),
	}
	if err := s.ledger.Append(ctx, record); err != nil {
		s.log.Error("record quiz result", "session", session.id, "err", err)
		return fmt.Errorf("record result: %w", err)
	}
	session.result = &record
	s.log.Info("quiz session complete",
		"session", session.id, "user", session.userID, "video", session.videoID, "score", score)
	return nil
}

func (s *QuizService) tally(session *Session) (float64, string) {
	total := len(session.questions)
	if total == 0 {
		return 0, completionFeedback
	}

	switch s.policy {
	case ScoreMeanEvaluation:
		sum := 0.0
		notes := make([]string, 0, len(session.answers))
		for _, a := range session.answersLocked() {
			if a.Score != nil {
				sum += *a.Score
			}
			if a.Feedback != nil && *a.Feedback != "" {
				notes = append(notes, fmt.Sprintf("Q%d: %s", a.QuestionIndex+1, *a.Feedback))
			}
		}
		feedback := fmt.Sprintf("Answered %d of %d questions", len(session.answers), total)
		if len(notes) > 0 {
			feedback += ". " + strings.Join(notes, "; ")
		}
		return roundScore(sum / float64(total)), feedback
	default:
		return roundScore(float64(len(session.answers)) / float64(total) * 100), completionFeedback
	}
}

// roundScore keeps one decimal, the precision of the results log.
func roundScore(score float64) float64 {
	f, _ := decimal.NewFromFloat(score).Round(1).Float64()
	return f
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
