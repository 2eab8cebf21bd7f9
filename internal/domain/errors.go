package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the base for every unknown-id error; match with errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrVideoNotFound is returned for an unknown video id.
	ErrVideoNotFound = fmt.Errorf("video %w", ErrNotFound)
	// ErrQuestionNotFound is returned for an unknown question index or id.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrUserNotFound is returned for an unknown user id.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrSessionNotFound is returned when a quiz session is unknown or expired.
	ErrSessionNotFound = fmt.Errorf("quiz session %w", ErrNotFound)

	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown emails and wrong credentials alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyAnswer rejects blank submissions without changing the session.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrNoQuestions is returned for submit/skip on a video without questions.
	ErrNoQuestions = errors.New("video has no questions")
	// ErrSessionComplete is returned for submit/skip after the last question.
	ErrSessionComplete = errors.New("quiz session already complete")
	// ErrSessionNotComplete is returned when asking for the result too early.
	ErrSessionNotComplete = errors.New("quiz session not complete")
	// ErrSessionClosed is returned for any action on an abandoned session.
	ErrSessionClosed = errors.New("quiz session abandoned")

	// ErrStorageUnavailable marks a durable store that could not be read or written.
	// The previous durable state is left intact.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// StorageError wraps a backend failure so that errors.Is(err, ErrStorageUnavailable) holds.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// InvalidInput wraps a validation failure.
func InvalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}
