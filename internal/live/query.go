package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultGrace is how long a query keeps running after its last subscriber
// leaves, so a briefly absent consumer can reattach without a refetch.
const DefaultGrace = 5 * time.Second

// Query keeps a Value fresh by re-running a fetch function whenever one of
// its tables changes. It runs only while observed: the underlying
// subscription starts with the first subscriber and is torn down a grace
// period after the last one leaves.
//
// Fetches follow switch-to-latest semantics: replacing the fetch (a filter
// change) or a newer trigger cancels the in-flight fetch, and a superseded
// result is never published.
type Query[T any] struct {
	notifier *Notifier
	tables   []string
	grace    time.Duration
	out      *Value[T]

	mu        sync.Mutex
	fetch     func(context.Context) (T, error)
	refs      int
	gen       uint64
	loopCtx   context.Context
	loopStop  context.CancelFunc
	inflight  context.CancelFunc
	stopTimer *time.Timer
}

// NewQuery binds fetch to the given tables. A zero grace uses DefaultGrace.
func NewQuery[T any](notifier *Notifier, tables []string, grace time.Duration, fetch func(context.Context) (T, error)) *Query[T] {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Query[T]{
		notifier: notifier,
		tables:   tables,
		grace:    grace,
		out:      NewValue[T](),
		fetch:    fetch,
	}
}

// Subscribe attaches a consumer. The first subscriber starts the query;
// the subscription ends when the returned cancel is called or ctx is
// done, and the query stops once no subscriber returns within the grace
// period.
func (q *Query[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	q.mu.Lock()
	q.refs++
	if q.stopTimer != nil {
		q.stopTimer.Stop()
		q.stopTimer = nil
	}
	started := q.loopCtx != nil
	if !started {
		q.loopCtx, q.loopStop = context.WithCancel(context.Background())
		go q.run(q.loopCtx)
	}
	q.mu.Unlock()

	// The Value subscription gets no ctx hook of its own: teardown must
	// release the query's ref too, so ctx drives the combined cancel.
	ch, valueCancel := q.out.Subscribe(nil)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			valueCancel()
			q.release()
		})
	}
	if ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, cancel)
		inner := cancel
		cancel = func() {
			stop()
			inner()
		}
	}
	return ch, cancel
}

// SetFetch replaces the fetch function, typically because the filter it
// closes over changed. Any in-flight fetch is abandoned and its result
// discarded; if the query is running, the new fetch is issued immediately.
func (q *Query[T]) SetFetch(fetch func(context.Context) (T, error)) {
	q.mu.Lock()
	q.fetch = fetch
	running := q.loopCtx != nil
	q.mu.Unlock()
	if running {
		q.trigger()
	}
}

// Refresh forces a re-fetch even without a change notification. Used as a
// defensive re-trigger after mutations outside the notifier's view.
func (q *Query[T]) Refresh() {
	q.mu.Lock()
	running := q.loopCtx != nil
	q.mu.Unlock()
	if running {
		q.trigger()
	}
}

// Latest returns the most recently published value, if any.
func (q *Query[T]) Latest() (T, bool) {
	return q.out.Get()
}

func (q *Query[T]) release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.refs--
	if q.refs > 0 || q.loopCtx == nil {
		return
	}
	// Keep the subscription alive for the grace window in case a consumer
	// comes right back (a UI rotation, a screen re-entry).
	q.stopTimer = time.AfterFunc(q.grace, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.refs > 0 || q.loopStop == nil {
			return
		}
		q.loopStop()
		q.loopCtx = nil
		q.loopStop = nil
		q.stopTimer = nil
	})
}

func (q *Query[T]) run(ctx context.Context) {
	id, changes := q.notifier.subscribe(q.tables)
	defer q.notifier.unsubscribe(id)

	q.trigger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			q.trigger()
		}
	}
}

// trigger starts a fetch for the current generation, cancelling whatever
// fetch was still in flight. The result is published only if no newer
// trigger happened in the meantime.
func (q *Query[T]) trigger() {
	q.mu.Lock()
	if q.loopCtx == nil {
		q.mu.Unlock()
		return
	}
	if q.inflight != nil {
		q.inflight()
	}
	fctx, cancel := context.WithCancel(q.loopCtx)
	q.inflight = cancel
	q.gen++
	gen := q.gen
	fetch := q.fetch
	q.mu.Unlock()

	go func() {
		defer cancel()
		val, err := fetch(fctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				slog.Error("live query fetch failed", "tables", q.tables, "error", err)
			}
			return
		}
		if fctx.Err() != nil {
			return
		}
		q.mu.Lock()
		current := gen == q.gen
		q.mu.Unlock()
		if current {
			q.out.Set(val)
		}
	}()
}
