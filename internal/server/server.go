// Package server assembles the HTTP surface: the Connect services plus the
// plain health, metrics and export endpoints.
package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
	"github.com/Kleberson-Figueiredo/debt-control/internal/cache"
	"github.com/Kleberson-Figueiredo/debt-control/internal/export"
	"github.com/Kleberson-Figueiredo/debt-control/internal/metrics"
	"github.com/Kleberson-Figueiredo/debt-control/internal/middleware"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api/apiconnect"
)

const healthTimeout = 2 * time.Second

// Deps are the collaborators the router is built from.
type Deps struct {
	Store   storage.Store
	JWT     *auth.JWTManager
	Metrics *metrics.Metrics
	// Cache holds the dashboards the export's overdue refresh invalidates.
	// Defaults to cache.Nop.
	Cache      cache.DashboardCache
	Auth       apiconnect.AuthServiceHandler
	Categories apiconnect.CategoryServiceHandler
	Debts      apiconnect.DebtServiceHandler
	// AllowedOrigins lists the CORS origins; "*" allows any.
	AllowedOrigins []string
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// New returns the root handler.
func New(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(cors(d.AllowedOrigins))

	r.Get("/healthz", healthHandler(d.Store))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	r.With(middleware.RequireBearer(d.JWT)).Get("/export/debts.xlsx", exportHandler(d.Store, d.Cache, d.Metrics, d.Now))

	observe := []connect.Interceptor{middleware.LoggingInterceptor(), middleware.MetricsInterceptor(d.Metrics)}
	public := connect.WithInterceptors(append([]connect.Interceptor{middleware.OptionalAuth(d.JWT)}, observe...)...)
	private := connect.WithInterceptors(append([]connect.Interceptor{middleware.RequireAuth(d.JWT)}, observe...)...)

	authPath, authHandler := apiconnect.NewAuthServiceHandler(d.Auth, public)
	r.Handle(authPath+"*", authHandler)
	categoryPath, categoryHandler := apiconnect.NewCategoryServiceHandler(d.Categories, private)
	r.Handle(categoryPath+"*", categoryHandler)
	debtPath, debtHandler := apiconnect.NewDebtServiceHandler(d.Debts, private)
	r.Handle(debtPath+"*", debtHandler)

	return r
}

func healthHandler(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}

// exportHandler streams the caller's workbook. It is buffered so a failure
// half way still yields a proper error status.
func exportHandler(store storage.Store, dashboards cache.DashboardCache, m *metrics.Metrics, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.GetUserID(ctx)

		n, err := store.RefreshOverdue(ctx, userID, models.DateOf(now()))
		if err != nil {
			slog.Error("Export failed", "user_id", userID, "error", err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		m.AddOverdue(n)
		if n > 0 {
			if err := dashboards.Invalidate(ctx, userID); err != nil {
				slog.Warn("Dashboard cache invalidation failed", "user_id", userID, "error", err)
			}
		}

		var buf bytes.Buffer
		if err := export.Write(ctx, &buf, store, userID); err != nil {
			slog.Error("Export failed", "user_id", userID, "error", err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="debts.xlsx"`)
		_, _ = buf.WriteTo(w)
		slog.Info("Export served", "user_id", userID, "bytes", buf.Len())
	}
}
