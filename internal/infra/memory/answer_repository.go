package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// AnswerRepository is an in-memory answer record set keyed by
// (participant, question), with snapshot watches.
type AnswerRepository struct {
	mu       sync.RWMutex
	records  map[string]map[string]domain.AnswerRecord
	watchers *broadcaster[map[string]map[string]domain.AnswerRecord]
}

func NewAnswerRepository() *AnswerRepository {
	return &AnswerRepository{
		records:  make(map[string]map[string]domain.AnswerRecord),
		watchers: newBroadcaster[map[string]map[string]domain.AnswerRecord](),
	}
}

func (r *AnswerRepository) Get(_ context.Context, participantID, questionID string) (domain.AnswerRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[participantID][questionID]
	return rec, ok, nil
}

// Put is create-only: a second write to the same key fails with
// ErrAlreadyAnswered instead of silently overwriting.
func (r *AnswerRepository) Put(_ context.Context, rec domain.AnswerRecord) error {
	r.mu.Lock()
	if _, exists := r.records[rec.ParticipantID][rec.QuestionID]; exists {
		r.mu.Unlock()
		return domain.ErrAlreadyAnswered
	}
	if r.records[rec.ParticipantID] == nil {
		r.records[rec.ParticipantID] = make(map[string]domain.AnswerRecord)
	}
	r.records[rec.ParticipantID][rec.QuestionID] = rec
	snapshot := copyAnswers(r.records)
	r.mu.Unlock()
	r.watchers.publish(snapshot)
	return nil
}

func (r *AnswerRepository) All(_ context.Context) (map[string]map[string]domain.AnswerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyAnswers(r.records), nil
}

func (r *AnswerRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	r.records = make(map[string]map[string]domain.AnswerRecord)
	snapshot := copyAnswers(r.records)
	r.mu.Unlock()
	r.watchers.publish(snapshot)
	return nil
}

func (r *AnswerRepository) Watch(_ context.Context) (<-chan map[string]map[string]domain.AnswerRecord, func(), error) {
	ch, cancel := r.watchers.subscribe(func() map[string]map[string]domain.AnswerRecord {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return copyAnswers(r.records)
	})
	return ch, cancel, nil
}

func copyAnswers(records map[string]map[string]domain.AnswerRecord) map[string]map[string]domain.AnswerRecord {
	out := make(map[string]map[string]domain.AnswerRecord, len(records))
	for participantID, byQuestion := range records {
		inner := make(map[string]domain.AnswerRecord, len(byQuestion))
		for questionID, rec := range byQuestion {
			inner[questionID] = rec
		}
		out[participantID] = inner
	}
	return out
}
