package redis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/domain"
)

// watchChannel implements the full-snapshot subscription contract on top of
// redis pub/sub: the current value is delivered immediately, then the value
// is refetched and redelivered on every change notification.
func watchChannel[T any](ctx context.Context, client *redis.Client, channel string, fetch func(context.Context) (T, error)) (<-chan T, func(), error) {
	pubsub := client.Subscribe(ctx, channel)
	// Confirm the subscription before reading the current value. A change
	// published while the snapshot is being fetched then still triggers a
	// refetch; fetching first would lose it.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	initial, err := fetch(ctx)
	if err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan T, 8)
	stop := make(chan struct{})

	go func() {
		defer close(out)
		out <- initial
		msgs := pubsub.Channel()
		for {
			select {
			case _, ok := <-msgs:
				if !ok {
					return
				}
				snapshot, err := fetch(ctx)
				if err != nil {
					log.Printf("redis watch refetch on %s failed: %v", channel, err)
					continue
				}
				sendLatest(out, snapshot)
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

// sendLatest drops a stale buffered snapshot so slow consumers only see the
// newest state.
func sendLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
