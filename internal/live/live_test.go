package live

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
		panic("unreachable")
	}
}

func TestValueSubscribeReceivesCurrentThenUpdates(t *testing.T) {
	t.Parallel()

	v := NewValue[int]()
	v.Set(1)

	ch, cancel := v.Subscribe(context.Background())
	defer cancel()

	if got := recv(t, ch); got != 1 {
		t.Fatalf("initial emission = %d, want 1", got)
	}

	v.Set(2)
	if got := recv(t, ch); got != 2 {
		t.Fatalf("second emission = %d, want 2", got)
	}
}

func TestValueConflatesForSlowSubscriber(t *testing.T) {
	t.Parallel()

	v := NewValue[int]()
	ch, cancel := v.Subscribe(context.Background())
	defer cancel()

	// Nobody reading: only the newest value should survive.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	if got := recv(t, ch); got != 3 {
		t.Fatalf("conflated emission = %d, want 3", got)
	}
}

func TestValueCancelClosesChannel(t *testing.T) {
	t.Parallel()

	v := NewValue[int]()
	ch, cancel := v.Subscribe(context.Background())
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// A Set after cancel must not panic or deliver.
	v.Set(9)
}

func TestNotifierFiltersByTable(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	id, ch := n.subscribe([]string{"expenses"})
	defer n.unsubscribe(id)

	n.MarkChanged("categories")
	select {
	case <-ch:
		t.Fatal("listener should not see unrelated table change")
	case <-time.After(50 * time.Millisecond):
	}

	n.MarkChanged("expenses")
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("listener missed relevant table change")
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	t.Parallel()

	var n *Notifier
	n.MarkChanged("expenses")
	id, ch := n.subscribe([]string{"expenses"})
	if ch != nil {
		t.Fatal("nil notifier should hand out a nil channel")
	}
	n.unsubscribe(id)
}

func TestQueryRefetchesOnChange(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	var counter atomic.Int64
	q := NewQuery(n, []string{"expenses"}, time.Minute, func(ctx context.Context) (int64, error) {
		return counter.Add(1), nil
	})

	ch, cancel := q.Subscribe(context.Background())
	defer cancel()

	if got := recv(t, ch); got != 1 {
		t.Fatalf("initial fetch = %d, want 1", got)
	}

	n.MarkChanged("expenses")
	if got := recv(t, ch); got != 2 {
		t.Fatalf("refetch = %d, want 2", got)
	}
}

func TestQuerySetFetchSupersedesInFlight(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	release := make(chan struct{})
	q := NewQuery(n, []string{"expenses"}, time.Minute, func(ctx context.Context) (string, error) {
		// Simulate a slow query that a filter change overtakes.
		select {
		case <-release:
			return "stale", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	ch, cancel := q.Subscribe(context.Background())
	defer cancel()

	q.SetFetch(func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	close(release)

	if got := recv(t, ch); got != "fresh" {
		t.Fatalf("emission = %q, want %q (stale result must never be delivered)", got, "fresh")
	}

	// Nothing else should arrive.
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra emission %q", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQueryGracePeriodKeepsSubscriptionWarm(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	var fetches atomic.Int64
	q := NewQuery(n, []string{"expenses"}, 500*time.Millisecond, func(ctx context.Context) (int64, error) {
		return fetches.Add(1), nil
	})

	ch, cancel := q.Subscribe(context.Background())
	recv(t, ch)
	cancel()

	// Resubscribing within the grace window must reuse the running query:
	// the latest value is replayed without a new fetch.
	ch2, cancel2 := q.Subscribe(context.Background())
	defer cancel2()
	if got := recv(t, ch2); got != 1 {
		t.Fatalf("replayed value = %d, want 1", got)
	}
	if fetches.Load() != 1 {
		t.Fatalf("fetch count = %d, want 1", fetches.Load())
	}
}

func TestQueryStopsAfterSubscriberContextCancelled(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	var fetches atomic.Int64
	q := NewQuery(n, []string{"expenses"}, 50*time.Millisecond, func(ctx context.Context) (int64, error) {
		return fetches.Add(1), nil
	})

	// Leaving via ctx cancellation instead of the cancel func must release
	// the subscription all the same.
	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, _ := q.Subscribe(ctx)
	recv(t, ch)
	cancelCtx()

	time.Sleep(300 * time.Millisecond)
	before := fetches.Load()

	n.MarkChanged("expenses")
	time.Sleep(100 * time.Millisecond)
	if fetches.Load() != before {
		t.Fatalf("query still running after subscriber ctx cancelled: %d -> %d", before, fetches.Load())
	}

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after ctx cancellation")
	}
}

func TestQueryStopsAfterGraceExpires(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	var fetches atomic.Int64
	q := NewQuery(n, []string{"expenses"}, 50*time.Millisecond, func(ctx context.Context) (int64, error) {
		return fetches.Add(1), nil
	})

	ch, cancel := q.Subscribe(context.Background())
	recv(t, ch)
	cancel()

	time.Sleep(200 * time.Millisecond)
	before := fetches.Load()

	// With the query stopped, change marks must not provoke fetches.
	n.MarkChanged("expenses")
	time.Sleep(100 * time.Millisecond)
	if fetches.Load() != before {
		t.Fatalf("stopped query still fetching: %d -> %d", before, fetches.Load())
	}
}
