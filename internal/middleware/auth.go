// Package middleware holds the Connect interceptors and HTTP middleware
// shared by every service.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/Kleberson-Figueiredo/debt-control/internal/auth"
)

type identityKey struct{}

type identity struct {
	userID   string
	username string
}

// WithUser returns a context carrying the authenticated account.
func WithUser(ctx context.Context, userID, username string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, username: username})
}

// GetUserID returns the authenticated user id, or "" for anonymous calls.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(identity)
	return id.userID
}

// GetUsername returns the authenticated username, or "".
func GetUsername(ctx context.Context) string {
	id, _ := ctx.Value(identityKey{}).(identity)
	return id.username
}

// bearerToken reads "Authorization: Bearer <token>".
func bearerToken(header http.Header) (string, error) {
	value := header.Get("Authorization")
	if value == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(value, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

func authenticate(ctx context.Context, tokens *auth.JWTManager, header http.Header) (context.Context, error) {
	raw, err := bearerToken(header)
	if err != nil {
		return ctx, err
	}
	claims, err := tokens.Validate(raw)
	if err != nil {
		return ctx, err
	}
	return WithUser(ctx, claims.UserID, claims.Username), nil
}

// RequireAuth rejects calls without a valid bearer token.
func RequireAuth(tokens *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx, err := authenticate(ctx, tokens, req.Header())
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(ctx, req)
		}
	}
}

// OptionalAuth lets anonymous calls through but rejects a token that is
// present and invalid. Handlers needing an account check GetUserID.
func OptionalAuth(tokens *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authed, err := authenticate(ctx, tokens, req.Header())
			switch {
			case err == nil:
				ctx = authed
			case !errors.Is(err, auth.ErrMissingToken):
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(ctx, req)
		}
	}
}

// RequireBearer is RequireAuth for plain HTTP handlers.
func RequireBearer(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r.Context(), tokens, r.Header)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="debt-control"`)
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
