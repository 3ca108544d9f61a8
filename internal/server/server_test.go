package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
	"github.com/Kleberson-Figueiredo/debt-control/internal/cache"
	"github.com/Kleberson-Figueiredo/debt-control/internal/export"
	"github.com/Kleberson-Figueiredo/debt-control/internal/metrics"
	"github.com/Kleberson-Figueiredo/debt-control/internal/service"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage/sqlstore"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api/apiconnect"
)

// invalidationCounter is a DashboardCache that records invalidations.
type invalidationCounter struct {
	cache.Nop
	mu    sync.Mutex
	users []string
}

func (c *invalidationCounter) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
	return nil
}

func (c *invalidationCounter) invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.users...)
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	return setupServerWithCache(t, nil)
}

func setupServerWithCache(t *testing.T, dashboards cache.DashboardCache) *httptest.Server {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.Options{
		Driver: sqlstore.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	m := metrics.New()

	handler := New(Deps{
		Store:          store,
		JWT:            jwtManager,
		Metrics:        m,
		Cache:          dashboards,
		Auth:           service.NewAuthService(authenticator, jwtManager, store, slog.Default()),
		Categories:     service.NewCategoryService(store),
		Debts:          service.NewDebtService(store, service.DebtOptions{Metrics: m, Cache: dashboards}),
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func register(t *testing.T, baseURL string) string {
	t.Helper()

	client := apiconnect.NewAuthServiceClient(http.DefaultClient, baseURL)
	resp, err := client.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Username: "ivan",
		Email:    "ivan@example.com",
		Password: "password1",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return resp.Msg.Token
}

func TestHealthAndMetrics(t *testing.T) {
	server := setupServer(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestProtectedServicesRequireToken(t *testing.T) {
	server := setupServer(t)
	token := register(t, server.URL)

	client := apiconnect.NewCategoryServiceClient(http.DefaultClient, server.URL)

	_, err := client.ListCategories(context.Background(), connect.NewRequest(&api.ListCategoriesRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	req := connect.NewRequest(&api.CreateCategoryRequest{Description: "Bills"})
	req.Header().Set("Authorization", "Bearer "+token)
	if _, err := client.CreateCategory(context.Background(), req); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
}

func TestExport(t *testing.T) {
	server := setupServer(t)
	token := register(t, server.URL)

	resp, err := http.Get(server.URL + "/export/debts.xlsx")
	if err != nil {
		t.Fatalf("GET export failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("without token: expected 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/export/debts.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET export failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != export.ContentType {
		t.Errorf("content type: got %q", ct)
	}
	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()
	if idx, err := f.GetSheetIndex(export.DebtsSheet); err != nil || idx < 0 {
		t.Errorf("expected a %s sheet", export.DebtsSheet)
	}
}

func TestExportInvalidatesDashboardsOnOverdue(t *testing.T) {
	dashboards := &invalidationCounter{}
	server := setupServerWithCache(t, dashboards)
	token := register(t, server.URL)
	ctx := context.Background()

	categories := apiconnect.NewCategoryServiceClient(http.DefaultClient, server.URL)
	catReq := connect.NewRequest(&api.CreateCategoryRequest{Description: "Bills"})
	catReq.Header().Set("Authorization", "Bearer "+token)
	cat, err := categories.CreateCategory(ctx, catReq)
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	// Due a month after a purchase long past, so the export's refresh flips it.
	debts := apiconnect.NewDebtServiceClient(http.DefaultClient, server.URL)
	debtReq := connect.NewRequest(&api.CreateDebtRequest{
		Description:  "Old phone",
		Value:        100,
		Plots:        api.NewPlotCount(1),
		PurchaseDate: "2020-01-10",
		CategoryID:   cat.Msg.Category.ID,
	})
	debtReq.Header().Set("Authorization", "Bearer "+token)
	if _, err := debts.CreateDebt(ctx, debtReq); err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	before := len(dashboards.invalidated())

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/export/debts.xlsx", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET export failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	}

	// Only the first export flips rows.
	if got := len(dashboards.invalidated()) - before; got != 1 {
		t.Errorf("expected 1 invalidation from the exports, got %d", got)
	}
}

func TestCORS(t *testing.T) {
	server := setupServer(t)

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{"allowed origin", "http://localhost:3000", "http://localhost:3000"},
		{"foreign origin", "http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodOptions, server.URL+apiconnect.AuthServiceLoginProcedure, nil)
			req.Header.Set("Origin", tt.origin)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("preflight failed: %v", err)
			}
			resp.Body.Close()
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin: expected %q, got %q", tt.wantHeader, got)
			}
		})
	}
}
