package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

const userColumns = "id, username, email, password_hash, device_token, created_at, updated_at"

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, s.rebind(query),
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DeviceToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", user.Username, models.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username, ignoring case.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "LOWER(username) = LOWER(?)", username)
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "LOWER(email) = LOWER(?)", email)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DeviceToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateDeviceToken stores the push-notification token of the user's device.
func (s *Store) UpdateDeviceToken(ctx context.Context, userID, token string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE users SET device_token = ?, updated_at = ? WHERE id = ?"),
		token, nowUnix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}
	return expectOne(res, "user")
}

// DeleteUser removes the user. Categories, debts and installments go with it.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM users WHERE id = ?"), userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOne(res, "user")
}

// expectOne turns a zero-row result into models.ErrNotFound.
func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}
