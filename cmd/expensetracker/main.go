package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ibfahd/ExpenseTracker-sub000/internal/config"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/live"
	applog "github.com/ibfahd/ExpenseTracker-sub000/internal/log"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/prefs"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/services"
	"github.com/ibfahd/ExpenseTracker-sub000/internal/storage"
)

// app bundles the wired repositories and sessions a hosting UI layer
// would drive.
type app struct {
	categories *storage.CategoryRepo
	suppliers  *storage.SupplierRepo
	products   *storage.ProductRepo
	links      *storage.LinkRepo
	expenses   *storage.ExpenseRepo
	items      *storage.ShoppingRepo

	prefs    *prefs.Store
	filter   *services.FilterSession
	reports  *services.ReportService
	shopping *services.ShoppingSession
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to resolve timezone", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.Open(ctx, cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", applog.FieldError, err, applog.FieldDBPath, cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer db.Close()

	notifier := live.NewNotifier()
	a := &app{
		categories: storage.NewCategoryRepo(db, notifier),
		suppliers:  storage.NewSupplierRepo(db, notifier),
		products:   storage.NewProductRepo(db, notifier),
		links:      storage.NewLinkRepo(db, notifier),
		expenses:   storage.NewExpenseRepo(db, notifier),
		items:      storage.NewShoppingRepo(db, notifier),
		prefs:      prefs.NewStore(cfg.PrefsPath),
	}
	a.filter = services.NewFilterSession(a.expenses, notifier, a.prefs, loc, cfg.LiveGrace)
	a.reports = services.NewReportService(a.expenses, loc)
	a.shopping = services.NewShoppingSession(a.items, a.expenses)

	// Keep the filtered list warm so embedders attach to fresh state.
	listCh, stopList := a.filter.List().Subscribe(ctx)
	defer stopList()
	go func() {
		for range listCh {
		}
	}()

	averages, err := a.reports.Averages(ctx)
	if err != nil {
		logger.Warn("Failed to compute spending averages", applog.FieldError, err)
	}

	categories, err := a.categories.List(ctx)
	if err != nil {
		logger.Warn("Failed to list categories", applog.FieldError, err)
	}

	currency := a.prefs.CurrencyCode()
	logger.Info("Expense tracker started",
		applog.FieldDBPath, cfg.SQLiteDBPath,
		"currency", currency,
		"timezone", loc.String(),
		"categories", len(categories),
		"daily_average", averages.Daily.Format(currency),
		"monthly_average", averages.Monthly.Format(currency))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	logger.Info("Expense tracker stopped gracefully")
}
