// Package live provides the in-process reactive layer: observable values,
// a table-change notifier, and live queries that re-run while observed.
//
// Repositories mark tables changed after every mutation; live queries
// subscribed to those tables re-fetch and republish. Each emission fully
// supersedes the previous one; there is no incremental diffing.
package live

import "sync"

// Notifier fans table-change marks out to interested listeners. A nil
// Notifier is valid and drops all marks, so repositories can run without
// a live layer (tests, one-shot tools).
type Notifier struct {
	mu   sync.Mutex
	subs map[int64]*tableSub
	next int64
}

type tableSub struct {
	tables map[string]struct{}
	ch     chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int64]*tableSub)}
}

// MarkChanged signals that rows in the given tables changed. Marks to the
// same listener coalesce: a slow listener sees at least one signal, not one
// per mutation.
func (n *Notifier) MarkChanged(tables ...string) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		if !sub.interested(tables) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (s *tableSub) interested(tables []string) bool {
	if len(s.tables) == 0 {
		return true
	}
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}

// subscribe registers interest in a set of tables; an empty set means all.
// On a nil Notifier the returned channel is nil and never fires.
func (n *Notifier) subscribe(tables []string) (int64, <-chan struct{}) {
	if n == nil {
		return 0, nil
	}
	sub := &tableSub{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan struct{}, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	id := n.next
	n.subs[id] = sub
	return id, sub.ch
}

func (n *Notifier) unsubscribe(id int64) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}
