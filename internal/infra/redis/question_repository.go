package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

const (
	questionsKey     = "quiz:questions"
	questionsChannel = "quiz:changed:questions"
)

// QuestionLoader fetches the question bank from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) (map[string]domain.Question, error)
}

// QuestionRepository keeps the question bank in a Redis hash
// (HSET quiz:questions {questionID} {json}) and notifies watchers through
// pub/sub. With a loader configured it behaves as a TTL cache over the
// backing store; without one the hash is authoritative and never expires.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) List(ctx context.Context) (map[string]domain.Question, error) {
	fields, err := r.client.HGetAll(ctx, questionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(fields) > 0 || r.loader == nil {
		return decodeBank(fields)
	}

	result, err, _ := r.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the hash.
		fields, err := r.client.HGetAll(ctx, questionsKey).Result()
		if err == nil && len(fields) > 0 {
			return decodeBank(fields)
		}

		bank, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		pipe := r.client.Pipeline()
		for id, q := range bank {
			data, err := json.Marshal(q)
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, questionsKey, id, data)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, questionsKey, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]domain.Question), nil
}

func (r *QuestionRepository) Get(ctx context.Context, id string) (domain.Question, error) {
	raw, err := r.client.HGet(ctx, questionsKey, id).Result()
	if err == redis.Nil {
		if r.loader == nil {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		bank, err := r.List(ctx)
		if err != nil {
			return domain.Question{}, err
		}
		if q, ok := bank[id]; ok {
			return q, nil
		}
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	var q domain.Question
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal question: %w", err)
	}
	return q, nil
}

func (r *QuestionRepository) Put(ctx context.Context, q domain.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	if err := r.client.HSet(ctx, questionsKey, q.ID, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	r.notify(ctx)
	return nil
}

// Delete is idempotent; removing an absent question is not an error.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.HDel(ctx, questionsKey, id).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	r.notify(ctx)
	return nil
}

func (r *QuestionRepository) Watch(ctx context.Context) (<-chan map[string]domain.Question, func(), error) {
	return watchChannel(ctx, r.client, questionsChannel, r.List)
}

func (r *QuestionRepository) notify(ctx context.Context) {
	_ = r.client.Publish(ctx, questionsChannel, "1").Err()
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func decodeBank(fields map[string]string) (map[string]domain.Question, error) {
	bank := make(map[string]domain.Question, len(fields))
	for id, raw := range fields {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("unmarshal question %s: %w", id, err)
		}
		bank[id] = q
	}
	return bank, nil
}
