// Package auth handles account credentials and bearer tokens.
package auth

import (
	"context"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

// Authenticator registers accounts and checks their credentials.
type Authenticator interface {
	// Register creates an account. Taken usernames or emails yield an error
	// wrapping models.ErrDuplicate.
	Register(ctx context.Context, username, email, credential string) (*models.User, error)

	// Authenticate returns the account for a valid username and credential,
	// or ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)
}
