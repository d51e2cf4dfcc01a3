package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// QuestionRepository is an in-memory question bank with snapshot watches.
type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
	watchers  *broadcaster[map[string]domain.Question]
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{
		questions: make(map[string]domain.Question),
		watchers:  newBroadcaster[map[string]domain.Question](),
	}
}

func (r *QuestionRepository) List(_ context.Context) (map[string]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyBank(r.questions), nil
}

func (r *QuestionRepository) Get(_ context.Context, id string) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if q, ok := r.questions[id]; ok {
		return q, nil
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (r *QuestionRepository) Put(_ context.Context, q domain.Question) error {
	r.mu.Lock()
	r.questions[q.ID] = q
	snapshot := copyBank(r.questions)
	r.mu.Unlock()
	r.watchers.publish(snapshot)
	return nil
}

// Delete is idempotent; removing an absent question is not an error.
func (r *QuestionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.questions, id)
	snapshot := copyBank(r.questions)
	r.mu.Unlock()
	r.watchers.publish(snapshot)
	return nil
}

func (r *QuestionRepository) Watch(_ context.Context) (<-chan map[string]domain.Question, func(), error) {
	ch, cancel := r.watchers.subscribe(func() map[string]domain.Question {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return copyBank(r.questions)
	})
	return ch, cancel, nil
}

func copyBank(bank map[string]domain.Question) map[string]domain.Question {
	out := make(map[string]domain.Question, len(bank))
	for id, q := range bank {
		out[id] = q
	}
	return out
}
