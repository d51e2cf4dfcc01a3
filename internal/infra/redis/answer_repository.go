package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

const (
	participantsKey = "quiz:participants"
	answersChannel  = "quiz:changed:answers"
)

// AnswerRepository stores one hash per participant
// (HSET quiz:answers:{participantID} {questionID} {json}) plus a set of
// participant IDs for enumeration. Writes are conditional (HSETNX), so a
// duplicate submission loses even when two clients race past the guard's
// read-check.
type AnswerRepository struct {
	client *redis.Client
}

func NewAnswerRepository(client *redis.Client) *AnswerRepository {
	return &AnswerRepository{client: client}
}

func (r *AnswerRepository) Get(ctx context.Context, participantID, questionID string) (domain.AnswerRecord, bool, error) {
	raw, err := r.client.HGet(ctx, answersKey(participantID), questionID).Result()
	if err == redis.Nil {
		return domain.AnswerRecord{}, false, nil
	}
	if err != nil {
		return domain.AnswerRecord{}, false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	var rec domain.AnswerRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.AnswerRecord{}, false, fmt.Errorf("unmarshal answer: %w", err)
	}
	return rec, true, nil
}

func (r *AnswerRepository) Put(ctx context.Context, rec domain.AnswerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	created, err := r.client.HSetNX(ctx, answersKey(rec.ParticipantID), rec.QuestionID, data).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !created {
		return domain.ErrAlreadyAnswered
	}
	if err := r.client.SAdd(ctx, participantsKey, rec.ParticipantID).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	r.notify(ctx)
	return nil
}

func (r *AnswerRepository) All(ctx context.Context) (map[string]map[string]domain.AnswerRecord, error) {
	participants, err := r.client.SMembers(ctx, participantsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	out := make(map[string]map[string]domain.AnswerRecord, len(participants))
	for _, participantID := range participants {
		fields, err := r.client.HGetAll(ctx, answersKey(participantID)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		byQuestion := make(map[string]domain.AnswerRecord, len(fields))
		for questionID, raw := range fields {
			var rec domain.AnswerRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return nil, fmt.Errorf("unmarshal answer %s/%s: %w", participantID, questionID, err)
			}
			byQuestion[questionID] = rec
		}
		out[participantID] = byQuestion
	}
	return out, nil
}

func (r *AnswerRepository) Clear(ctx context.Context) error {
	participants, err := r.client.SMembers(ctx, participantsKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	pipe := r.client.Pipeline()
	for _, participantID := range participants {
		pipe.Del(ctx, answersKey(participantID))
	}
	pipe.Del(ctx, participantsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	r.notify(ctx)
	return nil
}

func (r *AnswerRepository) Watch(ctx context.Context) (<-chan map[string]map[string]domain.AnswerRecord, func(), error) {
	return watchChannel(ctx, r.client, answersChannel, r.All)
}

func (r *AnswerRepository) notify(ctx context.Context) {
	_ = r.client.Publish(ctx, answersChannel, "1").Err()
}

func answersKey(participantID string) string {
	return "quiz:answers:" + participantID
}
