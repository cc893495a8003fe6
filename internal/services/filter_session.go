// Package services holds the application-level orchestration above the
// repositories: the expense filter session, report aggregation and the
// shopping trip flow.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/live"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/prefs"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/storage"
)

// FilterSession is the shared filter state behind the expense list: a
// date range plus optional category and supplier dimensions. Every
// change rebuilds the whole tuple and swaps the fetch on both live
// queries, so a slow query for the previous filter can never publish
// over a newer one.
type FilterSession struct {
	expenses *storage.ExpenseRepo
	loc      *time.Location
	now      func() time.Time

	list  *live.Query[[]core.ExpenseDetail]
	total *live.Query[core.Money]

	mu        sync.Mutex
	filter    core.ExpenseFilter
	refreshes int
}

// NewFilterSession starts a session with the default filter read from
// preferences. An unknown stored preset falls back to the current month.
func NewFilterSession(expenses *storage.ExpenseRepo, notifier *live.Notifier, store *prefs.Store, loc *time.Location, grace time.Duration) *FilterSession {
	if loc == nil {
		loc = time.Local
	}
	s := &FilterSession{
		expenses: expenses,
		loc:      loc,
		now:      time.Now,
	}

	preset, err := core.ParsePreset(store.DefaultFilter())
	if err != nil {
		preset = core.PresetThisMonth
	}
	frame := preset.Frame(s.now().In(loc))
	s.filter = core.ExpenseFilter{Start: frame.Start, End: frame.End}

	s.list = live.NewQuery(notifier, storage.ExpenseTables, grace, s.fetchList(s.filter))
	s.total = live.NewQuery(notifier, storage.ExpenseTables, grace, s.fetchTotal(s.filter))
	return s
}

// List is the live filtered expense list.
func (s *FilterSession) List() *live.Query[[]core.ExpenseDetail] { return s.list }

// Total is the live sum over the same filter.
func (s *FilterSession) Total() *live.Query[core.Money] { return s.total }

// Filter returns the current filter tuple.
func (s *FilterSession) Filter() core.ExpenseFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// ApplyPreset replaces the date range with the preset's bounds computed
// at this instant, keeping the category and supplier dimensions.
func (s *FilterSession) ApplyPreset(p core.Preset) {
	frame := p.Frame(s.now().In(s.loc))
	s.update(func(f *core.ExpenseFilter) {
		f.Start = frame.Start
		f.End = frame.End
	})
}

// SetDateRange applies a custom range. A nil end with a non-nil start
// closes the range at the end of the start's day.
func (s *FilterSession) SetDateRange(start, end *time.Time) {
	var frame core.TimeFrame
	if start != nil {
		st := start.In(s.loc)
		var e *time.Time
		if end != nil {
			ev := end.In(s.loc)
			e = &ev
		}
		frame = core.CustomFrame(st, e)
	}
	s.update(func(f *core.ExpenseFilter) {
		f.Start = frame.Start
		f.End = frame.End
	})
}

// SetCategory restricts the view to one category; nil clears it.
func (s *FilterSession) SetCategory(id *int64) {
	s.update(func(f *core.ExpenseFilter) { f.CategoryID = id })
}

// SetSupplier restricts the view to one supplier; nil clears it.
func (s *FilterSession) SetSupplier(id *int64) {
	s.update(func(f *core.ExpenseFilter) { f.SupplierID = id })
}

// Clear drops every constraint, showing all expenses.
func (s *FilterSession) Clear() {
	s.update(func(f *core.ExpenseFilter) { *f = core.ExpenseFilter{} })
}

// Refresh forces both queries to re-fetch without a filter change.
func (s *FilterSession) Refresh() {
	s.mu.Lock()
	s.refreshes++
	s.mu.Unlock()
	s.list.Refresh()
	s.total.Refresh()
}

// Refreshes counts the manual refreshes issued so far.
func (s *FilterSession) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func (s *FilterSession) update(mutate func(*core.ExpenseFilter)) {
	s.mu.Lock()
	mutate(&s.filter)
	f := s.filter
	s.mu.Unlock()

	s.list.SetFetch(s.fetchList(f))
	s.total.SetFetch(s.fetchTotal(f))
}

func (s *FilterSession) fetchList(f core.ExpenseFilter) func(context.Context) ([]core.ExpenseDetail, error) {
	return func(ctx context.Context) ([]core.ExpenseDetail, error) {
		return s.expenses.Filtered(ctx, f)
	}
}

func (s *FilterSession) fetchTotal(f core.ExpenseFilter) func(context.Context) (core.Money, error) {
	return func(ctx context.Context) (core.Money, error) {
		return s.expenses.FilteredTotal(ctx, f)
	}
}
