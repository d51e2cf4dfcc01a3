package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

const (
	stateKey     = "quiz:state"
	stateChannel = "quiz:changed:state"
)

// StateRepository stores the game-state singleton as a JSON value.
// A missing key reads as the paused zero state.
type StateRepository struct {
	client *redis.Client
}

func NewStateRepository(client *redis.Client) *StateRepository {
	return &StateRepository{client: client}
}

func (r *StateRepository) Get(ctx context.Context) (domain.GameState, error) {
	raw, err := r.client.Get(ctx, stateKey).Result()
	if err == redis.Nil {
		return domain.GameState{}, nil
	}
	if err != nil {
		return domain.GameState{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	var state domain.GameState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.GameState{}, fmt.Errorf("unmarshal game state: %w", err)
	}
	return state, nil
}

func (r *StateRepository) Set(ctx context.Context, state domain.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}
	if err := r.client.Set(ctx, stateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	_ = r.client.Publish(ctx, stateChannel, "1").Err()
	return nil
}

func (r *StateRepository) Watch(ctx context.Context) (<-chan domain.GameState, func(), error) {
	return watchChannel(ctx, r.client, stateChannel, r.Get)
}
