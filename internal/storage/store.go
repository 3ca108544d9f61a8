// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

// DefaultLimit is the page size used when a listing does not set one.
const DefaultLimit = 100

// Page is an offset/limit window over a listing.
type Page struct {
	Offset int
	Limit  int
}

// Normalize fills in the default limit and clamps negative values.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// CategoryFilter narrows ListCategories.
type CategoryFilter struct {
	// Description matches categories containing it, case-insensitive.
	Description string
	Page
}

// DebtFilter narrows ListDebts. Zero values mean no restriction.
type DebtFilter struct {
	Description string
	State       models.State
	// StartDate and EndDate bound the purchase date, both inclusive.
	StartDate *time.Time
	EndDate   *time.Time
	Page
}

// InstallmentFilter narrows ListInstallments.
type InstallmentFilter struct {
	// DebtID restricts the listing to one debt when set.
	DebtID string
	// States keeps installments in any of the given states. Empty keeps all.
	States []models.State
	// StartDate and EndDate bound the due date, both inclusive.
	StartDate *time.Time
	EndDate   *time.Time
	Page
}

// NewDebt is a debt with its generated installments, created atomically.
type NewDebt struct {
	Debt         *models.Debt
	Installments []*models.Installment
}

// Payment marks installments of one debt as paid.
type Payment struct {
	UserID         string
	DebtID         string
	InstallmentIDs []string
	// Amount overrides each installment's paid amount when set.
	Amount *decimal.Decimal
	Date   time.Time
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user. Returns models.ErrDuplicate when the
	// username or email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID and GetUserByUsername return models.ErrNotFound when
	// no user matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	UpdateDeviceToken(ctx context.Context, userID, token string) error

	// DeleteUser removes the user and, by cascade, everything the user owns.
	DeleteUser(ctx context.Context, userID string) error
}

// CategoryStore persists user-scoped categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error)
	// FindCategoryByDescription matches the description case-insensitively.
	FindCategoryByDescription(ctx context.Context, userID, description string) (*models.Category, error)
	ListCategories(ctx context.Context, userID string, filter CategoryFilter) ([]*models.Category, error)
	// DeleteCategory returns models.ErrInUse when debts still reference it.
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// DebtStore persists debts and their installments.
type DebtStore interface {
	// CreateDebt inserts the debt and all of its installments in one transaction.
	CreateDebt(ctx context.Context, nd NewDebt) error

	GetDebt(ctx context.Context, userID, debtID string) (*models.Debt, error)

	// FindDuplicateDebt reports whether userID already has a debt with the
	// same description (case-insensitive) purchased in the same month.
	FindDuplicateDebt(ctx context.Context, userID, description string, purchase time.Time) (bool, error)

	ListDebts(ctx context.Context, userID string, filter DebtFilter) ([]*models.DebtSummary, error)

	// UpdateDebt saves description, note, category and state. When the
	// state becomes canceled, unpaid installments are canceled too.
	UpdateDebt(ctx context.Context, debt *models.Debt) error

	DeleteDebt(ctx context.Context, userID, debtID string) error

	// ListInstallments returns installments of userID ordered by due date
	// and number.
	ListInstallments(ctx context.Context, userID string, filter InstallmentFilter) ([]*models.Installment, error)

	// PayInstallments marks the installments paid and settles the parent
	// debt's state. Returns the updated installments.
	PayInstallments(ctx context.Context, p Payment) ([]*models.Installment, error)

	// RefreshOverdue flags pending installments due before today as overdue,
	// then flags pending debts owning an overdue installment. An empty
	// userID covers every user. Returns the number of rows changed.
	RefreshOverdue(ctx context.Context, userID string, today time.Time) (int64, error)

	// ListDueInstallments returns pending installments due on any of the
	// given dates, joined with their debt description and the owner's
	// device token.
	ListDueInstallments(ctx context.Context, dates []time.Time) ([]*models.DueInstallment, error)
}

// Store defines the full set of storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	CategoryStore
	DebtStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
