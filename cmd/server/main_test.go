package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/cache"
	"github.com/Kleberson-Figueiredo/debt-control/internal/calculator"
	"github.com/Kleberson-Figueiredo/debt-control/internal/metrics"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/notify"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage/sqlstore"
)

func TestDailyJobInvalidatesDashboards(t *testing.T) {
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver: sqlstore.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user := models.NewUser("carol", "carol@example.com", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	category := &models.Category{UserID: user.ID, Description: "Home"}
	if err := store.CreateCategory(ctx, category); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	purchase := models.Date(2025, time.May, 20)
	state, planned, err := calculator.GenerateInstallments(decimal.NewFromInt(60), 1, purchase, 0)
	if err != nil {
		t.Fatalf("GenerateInstallments failed: %v", err)
	}
	debt := &models.Debt{
		UserID: user.ID, CategoryID: category.ID, Description: "Lamp",
		Value: decimal.NewFromInt(60), Plots: 1, PurchaseDate: purchase, State: state,
	}
	var installments []*models.Installment
	for _, p := range planned {
		installments = append(installments, &models.Installment{
			Number: p.Number, Amount: p.Amount, DueDate: p.DueDate, State: p.State,
		})
	}
	if err := store.CreateDebt(ctx, storage.NewDebt{Debt: debt, Installments: installments}); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}

	mr := miniredis.RunT(t)
	dashboards := cache.NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { dashboards.Close() })

	cacheDashboard := func() {
		t.Helper()
		key := cache.DashboardKey{UserID: user.ID, Limit: 100}
		if _, _, err := dashboards.Get(ctx, &key); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if err := dashboards.Set(ctx, key, &models.DashboardTotals{TotalPending: 1}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	cached := func() bool {
		t.Helper()
		key := cache.DashboardKey{UserID: user.ID, Limit: 100}
		_, ok, err := dashboards.Get(ctx, &key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		return ok
	}

	m := metrics.New()
	sweeper := notify.NewSweeper(store, notify.LogNotifier{Logger: slog.Default()}, notify.RetryPolicy{}, m, slog.Default())
	clock := func() time.Time { return time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC) }
	job := dailyJob(store, dashboards, sweeper, m, clock, slog.Default())

	cacheDashboard()
	if err := job(ctx); err != nil {
		t.Fatalf("daily job failed: %v", err)
	}
	if cached() {
		t.Error("dashboard still cached after the job flagged an overdue installment")
	}

	cacheDashboard()
	if err := job(ctx); err != nil {
		t.Fatalf("daily job failed: %v", err)
	}
	if !cached() {
		t.Error("a run that flips nothing must keep the cache")
	}
}
