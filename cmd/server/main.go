package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
	"github.com/Kleberson-Figueiredo/debt-control/internal/cache"
	"github.com/Kleberson-Figueiredo/debt-control/internal/config"
	"github.com/Kleberson-Figueiredo/debt-control/internal/metrics"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/notify"
	"github.com/Kleberson-Figueiredo/debt-control/internal/scheduler"
	"github.com/Kleberson-Figueiredo/debt-control/internal/server"
	"github.com/Kleberson-Figueiredo/debt-control/internal/service"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage/sqlstore"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default ./config.yaml if present)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log.Level)

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required (set DEBT_JWT_SECRET)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		ConnectAttempts: cfg.Database.ConnectAttempts,
		ConnectBackoff:  cfg.Database.ConnectBackoff,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	m := metrics.New()

	var dashboards cache.DashboardCache = cache.Nop{}
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rc.Close()
		dashboards = rc
		logger.Info("Dashboard cache enabled", "ttl", cfg.Redis.TTL)
	}

	var notifier notify.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.Notify.CredentialsFile != "" {
		fcm, err := notify.NewFCM(ctx, cfg.Notify.CredentialsFile, cfg.Notify.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to initialize firebase messaging: %w", err)
		}
		notifier = fcm
		logger.Info("Push notifications enabled", "project_id", cfg.Notify.ProjectID)
	}
	retryPolicy := notify.RetryPolicy{MaxRetries: cfg.Notify.MaxRetries, Backoff: cfg.Notify.RetryBackoff}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expire)
	authenticator := auth.NewPasswordAuthenticator(store)

	handler := server.New(server.Deps{
		Store:      store,
		JWT:        jwtManager,
		Metrics:    m,
		Cache:      dashboards,
		Auth:       service.NewAuthService(authenticator, jwtManager, store, logger),
		Categories: service.NewCategoryService(store),
		Debts: service.NewDebtService(store, service.DebtOptions{
			Cache:    dashboards,
			Notifier: notifier,
			Retry:    retryPolicy,
			Metrics:  m,
			Logger:   logger,
		}),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// h2c serves HTTP/2 without TLS for Connect and gRPC clients.
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Connect server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Scheduler.Enabled {
		loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			return fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
		}
		sched := scheduler.New(loc, logger)
		sweeper := notify.NewSweeper(store, notifier, retryPolicy, m, logger)
		clock := func() time.Time { return time.Now().In(loc) }
		if err := sched.Add("daily-reminders", cfg.Scheduler.Spec, dailyJob(store, dashboards, sweeper, m, clock, logger)); err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(ctx) })
	}

	return g.Wait()
}

// dailyJob flags overdue installments of every user, then sends the due
// date reminders. Any flipped row drops every user's cached dashboards.
func dailyJob(store *sqlstore.Store, dashboards cache.DashboardCache, sweeper *notify.Sweeper, m *metrics.Metrics, clock func() time.Time, logger *slog.Logger) scheduler.Job {
	return func(ctx context.Context) error {
		today := models.DateOf(clock())

		n, err := store.RefreshOverdue(ctx, "", today)
		if err != nil {
			return fmt.Errorf("refresh overdue: %w", err)
		}
		m.AddOverdue(n)
		if n > 0 {
			if err := dashboards.InvalidateAll(ctx); err != nil {
				logger.Warn("Dashboard cache invalidation failed", "error", err)
			}
		}

		res, err := sweeper.Run(ctx, today)
		if err != nil {
			return fmt.Errorf("reminder sweep: %w", err)
		}
		logger.Info("Daily job finished",
			"overdue", n,
			"candidates", res.Candidates,
			"sent", res.Sent,
			"failed", res.Failed,
			"skipped", res.Skipped,
		)
		return nil
	}
}
