package domain

import (
	"errors"
	"strings"
	"time"
)

// User is a registered learner or administrator.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	CredentialHash string    `json:"credential_hash"`
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeEmail is the canonical form used for uniqueness and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VideoSource points at the media for a video; exactly one field is set.
type VideoSource struct {
	URL      string `json:"url,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

// Validate enforces the exactly-one-of rule.
func (s VideoSource) Validate() error {
	hasURL := strings.TrimSpace(s.URL) != ""
	hasPath := strings.TrimSpace(s.FilePath) != ""
	switch {
	case hasURL && hasPath:
		return InvalidInput(errors.New("video source must be either a url or a file path, not both"))
	case !hasURL && !hasPath:
		return InvalidInput(errors.New("video source requires a url or a file path"))
	}
	return nil
}

// Question is one free-text prompt with the answer the evaluator compares against.
type Question struct {
	ID             string `json:"id"`
	Text           string `json:"question"`
	ExpectedAnswer string `json:"answer"`
}

// Video is a training video and its ordered questions.
type Video struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Source    VideoSource `json:"source"`
	Questions []Question  `json:"questions"`
	CreatedAt time.Time   `json:"created_at"`
}

// Clone returns a copy that shares no question storage with v.
func (v Video) Clone() Video {
	out := v
	out.Questions = make([]Question, len(v.Questions))
	copy(out.Questions, v.Questions)
	return out
}

// QuestionIndex returns the position of the question with the given id, or -1.
func (v *Video) QuestionIndex(questionID string) int {
	for i := range v.Questions {
		if v.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// AppendQuestion adds q at the end of the sequence.
func (v *Video) AppendQuestion(q Question) {
	v.Questions = append(v.Questions, q)
}

// ReplaceQuestion rewrites the question at index i, keeping its id.
func (v *Video) ReplaceQuestion(i int, text, expected string) error {
	if i < 0 || i >= len(v.Questions) {
		return ErrQuestionNotFound
	}
	v.Questions[i].Text = text
	v.Questions[i].ExpectedAnswer = expected
	return nil
}

// RemoveQuestion deletes index i; later questions shift down by one.
func (v *Video) RemoveQuestion(i int) error {
	if i < 0 || i >= len(v.Questions) {
		return ErrQuestionNotFound
	}
	v.Questions = append(v.Questions[:i:i], v.Questions[i+1:]...)
	return nil
}

// SessionStatus is the state of a learner's pass through one video's questions.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionComplete   SessionStatus = "complete"
	// SessionEmpty is a started session on a video without questions; only abandon applies.
	SessionEmpty     SessionStatus = "no_questions"
	SessionAbandoned SessionStatus = "abandoned"
)

// AnswerSubmission is the learner input for the current question.
type AnswerSubmission struct {
	Text string
	// AudioRef is an opaque reference to a recording; never interpreted here.
	AudioRef string
}

// Answer is a recorded submission for one question of a session.
type Answer struct {
	QuestionIndex int      `json:"questionIndex"`
	QuestionID    string   `json:"questionId"`
	SubmittedText string   `json:"submittedText"`
	Score         *float64 `json:"score,omitempty"`
	Feedback      *string  `json:"feedback,omitempty"`
	AudioRef      string   `json:"audioRef,omitempty"`
}

// ResultRecord is the durable outcome of one completed session.
type ResultRecord struct {
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	Score     float64   `json:"score"`
	Feedback  string    `json:"feedback"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportEntry decorates a record with the video title at read time.
type ReportEntry struct {
	ResultRecord
	VideoTitle string `json:"videoTitle"`
}

// UserReport aggregates a user's results. AverageScore is nil when there are none.
type UserReport struct {
	UserID       string        `json:"userId"`
	Entries      []ReportEntry `json:"entries"`
	AverageScore *float64      `json:"averageScore,omitempty"`
}
