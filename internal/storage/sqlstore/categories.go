package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
)

const categoryColumns = "id, user_id, description, created_at, updated_at"

// CreateCategory persists a new category, generating its ID.
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if category.CreatedAt == 0 {
		category.CreatedAt = nowUnix()
	}
	category.UpdatedAt = category.CreatedAt

	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?)"),
		category.ID, category.UserID, category.Description, category.CreatedAt, category.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", category.Description, models.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// GetCategory retrieves a category owned by userID.
func (s *Store) GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	return s.getCategory(ctx, "user_id = ? AND id = ?", userID, categoryID)
}

// FindCategoryByDescription retrieves a category of userID by description, ignoring case.
func (s *Store) FindCategoryByDescription(ctx context.Context, userID, description string) (*models.Category, error) {
	return s.getCategory(ctx, "user_id = ? AND LOWER(description) = LOWER(?)", userID, description)
}

func (s *Store) getCategory(ctx context.Context, where string, args ...any) (*models.Category, error) {
	c := &models.Category{}
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT "+categoryColumns+" FROM categories WHERE "+where), args...,
	).Scan(&c.ID, &c.UserID, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// ListCategories returns the user's categories ordered by description.
func (s *Store) ListCategories(ctx context.Context, userID string, filter storage.CategoryFilter) ([]*models.Category, error) {
	page := filter.Page.Normalize()

	where := []string{"user_id = ?"}
	args := []any{userID}
	if filter.Description != "" {
		where = append(where, "LOWER(description) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Description)+"%")
	}
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+categoryColumns+" FROM categories WHERE "+strings.Join(where, " AND ")+
			" ORDER BY description, id LIMIT ? OFFSET ?"), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// DeleteCategory removes a category that no debt references.
func (s *Store) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			s.rebind("SELECT 1 FROM categories WHERE user_id = ? AND id = ?"), userID, categoryID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("category: %w", models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check category existence: %w", err)
		}

		var inUse int
		if err := tx.QueryRowContext(ctx,
			s.rebind("SELECT COUNT(*) FROM debts WHERE category_id = ?"), categoryID,
		).Scan(&inUse); err != nil {
			return fmt.Errorf("failed to count category debts: %w", err)
		}
		if inUse > 0 {
			return fmt.Errorf("category is used by %d debts: %w", inUse, models.ErrInUse)
		}

		if _, err := tx.ExecContext(ctx,
			s.rebind("DELETE FROM categories WHERE user_id = ? AND id = ?"), userID, categoryID,
		); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}
