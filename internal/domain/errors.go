package domain

import "errors"

var (
	// ErrAuthRequired is returned when a write needs an authenticated identity.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNoActiveQuestion is returned when a submission arrives while paused.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrInvalidOption indicates a chosen key outside the question's four options.
	ErrInvalidOption = errors.New("invalid answer option")
	// ErrAlreadyAnswered indicates the participant already answered this question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrQuestionNotFound indicates a referenced question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrStoreUnavailable indicates the backing store rejected a read or write.
	ErrStoreUnavailable = errors.New("store unavailable")
)
