package memory

import "sync"

// broadcaster fans full-state snapshots out to subscribers. Each subscriber
// gets the current snapshot immediately and every later publish; slow
// consumers have stale snapshots dropped in favor of the newest one.
type broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[chan T]struct{})}
}

// subscribe registers a new watcher. The snapshot closure runs under the
// broadcaster lock and its result is enqueued before the channel joins the
// subscriber set, so every publish is serialized strictly after the initial
// value and nothing between snapshot and registration can be lost.
func (b *broadcaster[T]) subscribe(snapshot func() T) (<-chan T, func()) {
	ch := make(chan T, 8)
	b.mu.Lock()
	ch <- snapshot()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *broadcaster[T]) publish(snapshot T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
