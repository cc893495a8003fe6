package live

import (
	"context"
	"sync"
)

// Value is an observable container. A subscriber receives the current value
// (once one exists) and then every subsequent Set. Delivery conflates: a
// subscriber that falls behind sees the latest value, never a stale backlog.
type Value[T any] struct {
	mu   sync.Mutex
	val  T
	set  bool
	subs map[int64]chan T
	next int64
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: make(map[int64]chan T)}
}

// Set publishes a new value to all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = val
	v.set = true
	for _, ch := range v.subs {
		push(ch, val)
	}
}

// Get returns the latest value and whether one has been published yet.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val, v.set
}

// Subscribe registers a listener. The returned channel carries the current
// value immediately when one exists. The subscription ends when cancel is
// called or ctx is done; the channel is closed on teardown.
func (v *Value[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	ch := make(chan T, 1)

	v.mu.Lock()
	v.next++
	id := v.next
	v.subs[id] = ch
	if v.set {
		push(ch, v.val)
	}
	v.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
			close(ch)
		})
	}

	if ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, cancel)
		orig := cancel
		cancel = func() {
			stop()
			orig()
		}
	}

	return ch, cancel
}

// push replaces any undelivered value with the newest one.
func push[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
