package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"missing", "", "", auth.ErrMissingToken},
		{"bearer", "Bearer abc", "abc", nil},
		{"lowercase scheme", "bearer abc", "abc", nil},
		{"basic", "Basic abc", "", auth.ErrInvalidToken},
		{"no token", "Bearer ", "", auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			got, err := bearerToken(h)
			if err != tt.wantErr {
				t.Fatalf("error: expected %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("token: expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRequireBearer(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	token, err := tokens.Generate(&models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var seen string
	h := RequireBearer(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context()) + "/" + GetUsername(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/debts.xlsx", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without token: expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/export/debts.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: expected 200, got %d", rec.Code)
	}
	if seen != "user-1/alice" {
		t.Errorf("identity: expected user-1/alice, got %q", seen)
	}
}
