package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/internal/cache"
	"github.com/Kleberson-Figueiredo/debt-control/internal/middleware"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/notify"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage/sqlstore"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api/apiconnect"
)

// testNow is the pinned clock of the debt service in tests.
var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

type sentNotification struct {
	token, title, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Send(_ context.Context, token, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{token, title, body})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// memCache is an in-process DashboardCache. Entries are keyed by the query
// plus a version that Invalidate bumps.
type memCache struct {
	mu          sync.Mutex
	generation  int
	versions    map[string]int
	entries     map[cache.DashboardKey]models.DashboardTotals
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{
		versions: make(map[string]int),
		entries:  make(map[cache.DashboardKey]models.DashboardTotals),
	}
}

func (c *memCache) version(userID string) string {
	return strconv.Itoa(c.generation) + "." + strconv.Itoa(c.versions[userID])
}

func (c *memCache) Get(_ context.Context, key *cache.DashboardKey) (*models.DashboardTotals, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key.Version = c.version(key.UserID)
	t, ok := c.entries[*key]
	if !ok {
		return nil, false, nil
	}
	return &t, true, nil
}

func (c *memCache) Set(_ context.Context, key cache.DashboardKey, totals *models.DashboardTotals) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key.Version == "" || key.Version != c.version(key.UserID) {
		return nil
	}
	c.entries[key] = *totals
	return nil
}

func (c *memCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.UserID == userID {
			delete(c.entries, k)
		}
	}
	c.versions[userID]++
	c.invalidated++
	return nil
}

func (c *memCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.generation++
	c.invalidated++
	return nil
}

// testAuthInterceptor authenticates every request as the given user.
func testAuthInterceptor(user *models.User) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(middleware.WithUser(ctx, user.ID, user.Username), req)
		}
	}
}

type testEnv struct {
	store      *sqlstore.Store
	user       *models.User
	notifier   *recordingNotifier
	cache      *memCache
	debts      apiconnect.DebtServiceClient
	categories apiconnect.CategoryServiceClient
}

// setupTestServer serves the debt and category services over a temp-file
// SQLite database, authenticated as a freshly created user.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	c := newMemCache()
	env := setupTestServerWithCache(t, c)
	env.cache = c
	return env
}

func setupTestServerWithCache(t *testing.T, dashboards cache.DashboardCache) *testEnv {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.Options{
		Driver: sqlstore.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user := models.NewUser("alice", "alice@example.com", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	env := &testEnv{store: store, user: user, notifier: &recordingNotifier{}}
	debtSvc := NewDebtService(store, DebtOptions{
		Cache:    dashboards,
		Notifier: env.notifier,
		Retry:    notify.RetryPolicy{MaxRetries: 0, Backoff: time.Millisecond},
		Logger:   slog.Default(),
		Now:      func() time.Time { return testNow },
	})

	interceptors := connect.WithInterceptors(testAuthInterceptor(user))
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewDebtServiceHandler(debtSvc, interceptors))
	mux.Handle(apiconnect.NewCategoryServiceHandler(NewCategoryService(store), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env.debts = apiconnect.NewDebtServiceClient(http.DefaultClient, server.URL)
	env.categories = apiconnect.NewCategoryServiceClient(http.DefaultClient, server.URL)
	return env
}

func (e *testEnv) createCategory(t *testing.T, description string) *api.Category {
	t.Helper()

	resp, err := e.categories.CreateCategory(context.Background(), connect.NewRequest(&api.CreateCategoryRequest{
		Description: description,
	}))
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	return resp.Msg.Category
}

func (e *testEnv) createDebt(t *testing.T, req *api.CreateDebtRequest) *api.Debt {
	t.Helper()

	resp, err := e.debts.CreateDebt(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("CreateDebt failed: %v", err)
	}
	return resp.Msg.Debt
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}
