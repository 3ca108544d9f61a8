package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
	"github.com/Kleberson-Figueiredo/debt-control/internal/middleware"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage/sqlstore"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api/apiconnect"
)

func setupAuthTestServer(t *testing.T) (apiconnect.AuthServiceClient, *sqlstore.Store) {
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
	svc := NewAuthService(authenticator, jwtManager, store, slog.Default())

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(svc, connect.WithInterceptors(middleware.OptionalAuth(jwtManager))))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL), store
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestRegisterAndLogin(t *testing.T) {
	client, _ := setupAuthTestServer(t)
	ctx := context.Background()

	reg, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if reg.Msg.Token == "" || reg.Msg.TokenType != "bearer" {
		t.Errorf("expected a bearer token, got %+v", reg.Msg)
	}
	if reg.Msg.ExpiresIn != 3600 {
		t.Errorf("expires_in: expected 3600, got %d", reg.Msg.ExpiresIn)
	}

	login, err := client.Login(ctx, connect.NewRequest(&api.LoginRequest{Username: "alice", Password: "correct horse"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.User.ID != reg.Msg.User.ID {
		t.Errorf("login user: expected %s, got %s", reg.Msg.User.ID, login.Msg.User.ID)
	}

	me, err := client.GetCurrentUser(ctx, withToken(&api.GetCurrentUserRequest{}, login.Msg.Token))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.Username != "alice" || me.Msg.User.Email != "alice@example.com" {
		t.Errorf("unexpected current user: %+v", me.Msg.User)
	}
}

func TestRegisterErrors(t *testing.T) {
	client, _ := setupAuthTestServer(t)
	ctx := context.Background()

	if _, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Username: "bob", Email: "bob@example.com", Password: "password1",
	})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name string
		req  *api.RegisterRequest
		want connect.Code
	}{
		{"duplicate username", &api.RegisterRequest{Username: "BOB", Email: "other@example.com", Password: "password1"}, connect.CodeAlreadyExists},
		{"duplicate email", &api.RegisterRequest{Username: "robert", Email: "bob@example.com", Password: "password1"}, connect.CodeAlreadyExists},
		{"weak password", &api.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "short"}, connect.CodeInvalidArgument},
		{"invalid email", &api.RegisterRequest{Username: "dave", Email: "dave", Password: "password1"}, connect.CodeInvalidArgument},
		{"missing username", &api.RegisterRequest{Email: "erin@example.com", Password: "password1"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Register(ctx, connect.NewRequest(tt.req))
			expectCode(t, err, tt.want)
		})
	}
}

func TestLoginErrors(t *testing.T) {
	client, _ := setupAuthTestServer(t)
	ctx := context.Background()

	if _, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Username: "frank", Email: "frank@example.com", Password: "password1",
	})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name string
		req  *api.LoginRequest
	}{
		{"wrong password", &api.LoginRequest{Username: "frank", Password: "password2"}},
		{"unknown user", &api.LoginRequest{Username: "grace", Password: "password1"}},
		{"empty", &api.LoginRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Login(ctx, connect.NewRequest(tt.req))
			expectCode(t, err, connect.CodeUnauthenticated)
		})
	}
}

func TestAuthenticatedProcedures(t *testing.T) {
	client, store := setupAuthTestServer(t)
	ctx := context.Background()

	reg, err := client.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Username: "heidi", Email: "heidi@example.com", Password: "password1",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token := reg.Msg.Token

	_, err = client.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)

	_, err = client.GetCurrentUser(ctx, withToken(&api.GetCurrentUserRequest{}, "garbage"))
	expectCode(t, err, connect.CodeUnauthenticated)

	if _, err := client.UpdateDeviceToken(ctx, withToken(&api.UpdateDeviceTokenRequest{DeviceToken: "fcm-token"}, token)); err != nil {
		t.Fatalf("UpdateDeviceToken failed: %v", err)
	}
	user, err := store.GetUserByID(ctx, reg.Msg.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if user.DeviceToken != "fcm-token" {
		t.Errorf("device token: expected fcm-token, got %q", user.DeviceToken)
	}

	if _, err := client.DeleteAccount(ctx, withToken(&api.DeleteAccountRequest{}, token)); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	_, err = client.GetCurrentUser(ctx, withToken(&api.GetCurrentUserRequest{}, token))
	expectCode(t, err, connect.CodeNotFound)
}
