package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/core"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/storage"
)

// ReportService assembles the aggregate views for the reports screen.
type ReportService struct {
	expenses *storage.ExpenseRepo
	loc      *time.Location
	now      func() time.Time
}

func NewReportService(expenses *storage.ExpenseRepo, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		expenses: expenses,
		loc:      loc,
		now:      time.Now,
	}
}

// Overview runs the independent aggregates for one filter concurrently
// and bundles them. The first failing query cancels the rest.
func (s *ReportService) Overview(ctx context.Context, f core.ExpenseFilter, bucket core.TrendBucket) (core.Overview, error) {
	var o core.Overview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.expenses.FilteredTotal(gctx, f)
		o.Total = total
		return err
	})
	g.Go(func() error {
		byCategory, err := s.expenses.SpendingByCategory(gctx, f)
		o.ByCategory = byCategory
		return err
	})
	g.Go(func() error {
		bySupplier, err := s.expenses.SpendingBySupplier(gctx, f)
		o.BySupplier = bySupplier
		return err
	})
	g.Go(func() error {
		trend, err := s.expenses.Trend(gctx, f, bucket)
		o.Trend = trend
		return err
	})
	g.Go(func() error {
		products, err := s.expenses.ProductReport(gctx, f)
		o.Products = products
		return err
	})

	if err := g.Wait(); err != nil {
		return core.Overview{}, err
	}
	return o, nil
}

// Averages computes the all-time daily and monthly spending averages.
// With no expenses recorded yet both averages are zero.
func (s *ReportService) Averages(ctx context.Context) (core.Averages, error) {
	first, ok, err := s.expenses.FirstExpenseAt(ctx)
	if err != nil {
		return core.Averages{}, err
	}
	if !ok {
		return core.Averages{}, nil
	}

	total, err := s.expenses.TotalAllTime(ctx)
	if err != nil {
		return core.Averages{}, err
	}
	return core.ComputeAverages(total.Cents, core.FromMillis(first, s.loc), s.now().In(s.loc)), nil
}
