package notify

import (
	"sync"
	"sync/atomic"
)

// Broadcaster fans out a payload-free "store changed" signal.
//
// Every subscriber owns a channel with a single-slot buffer. Signals that arrive while one is
// already pending coalesce, so Notify never blocks a writer and a slow subscriber sees at least
// one signal after its last receive.
type Broadcaster struct {
	mu        sync.Mutex
	subs      map[uint64]chan struct{}
	nextID    atomic.Uint64
	closed    bool
	closeOnce sync.Once
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]chan struct{})}
}

// Subscribe returns the signal channel and an idempotent unsubscribe func that closes it.
func (b *Broadcaster) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID.Add(1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

func (b *Broadcaster) Notify() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscription channel; later subscribers receive a closed channel.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		for id, ch := range b.subs {
			delete(b.subs, id)
			close(ch)
		}
	})
}
