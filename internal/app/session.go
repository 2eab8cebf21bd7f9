package app

import (
	"sort"
	"sync"
	"time"

	"video-training-service/internal/domain"
)

// Session is one learner's pass through one video's questions. The UI
// collaborator holds the pointer between events; QuizService drives it.
type Session struct {
	id         string
	userID     string
	videoID    string
	videoTitle string
	startedAt  time.Time

	mu        sync.Mutex
	questions []domain.Question
	current   int
	answers   map[int]domain.Answer
	status    domain.SessionStatus
	result    *domain.ResultRecord
}

// QuestionView is the question currently shown to the learner.
type QuestionView struct {
	Index  int    `json:"index"`
	Number int    `json:"number"`
	Total  int    `json:"total"`
	Text   string `json:"text"`
}

// SessionView is a render-ready snapshot of a session.
type SessionView struct {
	SessionID  string               `json:"sessionId"`
	UserID     string               `json:"userId"`
	VideoID    string               `json:"videoId"`
	VideoTitle string               `json:"videoTitle"`
	Status     domain.SessionStatus `json:"status"`
	Index      int                  `json:"index"`
	Total      int                  `json:"total"`
	Question   *QuestionView        `json:"question,omitempty"`
	Answers    []domain.Answer      `json:"answers,omitempty"`
	Result     *domain.ResultRecord `json:"result,omitempty"`
}

// newSession snapshots the video's questions; later catalog edits do not affect it.
func newSession(id, userID string, video domain.Video, now time.Time) *Session {
	s := &Session{
		id:         id,
		userID:     userID,
		videoID:    video.ID,
		videoTitle: video.Title,
		startedAt:  now,
		questions:  video.Clone().Questions,
		answers:    make(map[int]domain.Answer),
		status:     domain.SessionInProgress,
	}
	if len(s.questions) == 0 {
		s.status = domain.SessionEmpty
	}
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) UserID() string       { return s.userID }
func (s *Session) VideoID() string      { return s.videoID }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Status reports the current state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentIndex is 0-based and reaches the question count exactly when complete.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Answers returns the recorded answers ordered by question index.
func (s *Session) Answers() []domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answersLocked()
}

// View renders the session for the collaborator.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		SessionID:  s.id,
		UserID:     s.userID,
		VideoID:    s.videoID,
		VideoTitle: s.videoTitle,
		Status:     s.status,
		Index:      s.current,
		Total:      len(s.questions),
	}
	if s.status == domain.SessionInProgress {
		q := s.questions[s.current]
		view.Question = &QuestionView{
			Index:  s.current,
			Number: s.current + 1,
			Total:  len(s.questions),
			Text:   q.Text,
		}
	}
	if s.status == domain.SessionComplete {
		view.Answers = s.answersLocked()
		if s.result != nil {
			rec := *s.result
			view.Result = &rec
		}
	}
	return view
}

// checkPresentingLocked returns nil when a question is on screen.
func (s *Session) checkPresentingLocked() error {
	switch s.status {
	case domain.SessionInProgress:
		return nil
	case domain.SessionComplete:
		return domain.ErrSessionComplete
	case domain.SessionEmpty:
		return domain.ErrNoQuestions
	default:
		return domain.ErrSessionClosed
	}
}

// advanceLocked moves to the next question and reports whether the session just completed.
func (s *Session) advanceLocked() bool {
	s.current++
	if s.current >= len(s.questions) {
		s.current = len(s.questions)
		s.status = domain.SessionComplete
		return true
	}
	return false
}

func (s *Session) answersLocked() []domain.Answer {
	out := make([]domain.Answer, 0, len(s.answers))
	for _, a := range s.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out
}
