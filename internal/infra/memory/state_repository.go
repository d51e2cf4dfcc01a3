package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// StateRepository holds the game-state singleton with snapshot watches.
type StateRepository struct {
	mu       sync.RWMutex
	state    domain.GameState
	watchers *broadcaster[domain.GameState]
}

func NewStateRepository() *StateRepository {
	return &StateRepository{watchers: newBroadcaster[domain.GameState]()}
}

func (r *StateRepository) Get(_ context.Context) (domain.GameState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state, nil
}

func (r *StateRepository) Set(_ context.Context, state domain.GameState) error {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	r.watchers.publish(state)
	return nil
}

func (r *StateRepository) Watch(_ context.Context) (<-chan domain.GameState, func(), error) {
	ch, cancel := r.watchers.subscribe(func() domain.GameState {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.state
	})
	return ch, cancel, nil
}
