package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	ErrUsernameExists     = fmt.Errorf("username already registered: %w", models.ErrDuplicate)
	ErrEmailExists        = fmt.Errorf("email already registered: %w", models.ErrDuplicate)
	ErrInvalidUsername    = fmt.Errorf("%w: username is required", models.ErrInvalidInput)
	ErrInvalidEmail       = fmt.Errorf("%w: a valid email is required", models.ErrInvalidInput)
)

// UserStorage is the part of the store the password authenticator needs.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordAuthenticator stores bcrypt hashes and checks passwords against them.
type PasswordAuthenticator struct {
	users UserStorage
	cost  int
}

func NewPasswordAuthenticator(users UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	a.cost = cost
	return a
}

// ValidateCredential enforces the minimum password length.
func (a *PasswordAuthenticator) ValidateCredential(password string) error {
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// Register validates the input, checks that username and email are free
// and stores the new account.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if err := a.ValidateCredential(password); err != nil {
		return nil, err
	}
	if err := a.ensureFree(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(username, email, string(hash))
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (a *PasswordAuthenticator) ensureFree(ctx context.Context, username, email string) error {
	if _, err := a.users.GetUserByUsername(ctx, username); err == nil {
		return ErrUsernameExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if _, err := a.users.GetUserByEmail(ctx, email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate returns the account when the password matches its hash.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
