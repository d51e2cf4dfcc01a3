package app

import (
	"context"

	"live-quiz-service/internal/domain"
)

// QuestionRepository stores the question bank (in-memory, Redis, etc).
// Watch delivers the full current bank immediately and again on every change.
type QuestionRepository interface {
	List(ctx context.Context) (map[string]domain.Question, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	Put(ctx context.Context, q domain.Question) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (<-chan map[string]domain.Question, func(), error)
}

// AnswerRepository stores answer records keyed by (participant, question).
// Put is create-only: writing an existing key fails with ErrAlreadyAnswered.
type AnswerRepository interface {
	Get(ctx context.Context, participantID, questionID string) (domain.AnswerRecord, bool, error)
	Put(ctx context.Context, rec domain.AnswerRecord) error
	All(ctx context.Context) (map[string]map[string]domain.AnswerRecord, error)
	Clear(ctx context.Context) error
	Watch(ctx context.Context) (<-chan map[string]map[string]domain.AnswerRecord, func(), error)
}

// StateRepository stores the game-state singleton.
type StateRepository interface {
	Get(ctx context.Context) (domain.GameState, error)
	Set(ctx context.Context, state domain.GameState) error
	Watch(ctx context.Context) (<-chan domain.GameState, func(), error)
}

// QuestionArchive mirrors admin question mutations into durable storage.
type QuestionArchive interface {
	Save(ctx context.Context, q domain.Question) error
	Remove(ctx context.Context, id string) error
}
