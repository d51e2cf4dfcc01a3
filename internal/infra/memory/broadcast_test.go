package memory

import (
	"sync"
	"sync/atomic"
	"testing"
)

// Subscribing while publishes are in flight must never deliver the initial
// snapshot behind a newer one: the last value a subscriber reads has to be
// at least as new as its initial snapshot.
func TestBroadcasterInitialNeverTrailsAPublish(t *testing.T) {
	b := newBroadcaster[int]()

	var latest atomic.Int64
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			latest.Store(i)
			b.publish(int(i))
		}
	}()

	for i := 0; i < 500; i++ {
		ch, cancel := b.subscribe(func() int { return int(latest.Load()) })
		prev := <-ch
		for drained := false; !drained; {
			select {
			case v := <-ch:
				if v < prev {
					cancel()
					t.Fatalf("snapshot went backwards: %d after %d", v, prev)
				}
				prev = v
			default:
				drained = true
			}
		}
		cancel()
	}

	close(stop)
	wg.Wait()
}
