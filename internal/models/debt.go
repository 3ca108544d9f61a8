package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt is a tracked obligation split into Plots installments.
type Debt struct {
	// ID is the unique identifier for the debt (UUID format).
	ID string

	// UserID is the owner of the debt.
	UserID string

	// CategoryID references a category owned by the same user.
	CategoryID string

	// Description is the user-provided label (e.g. "Notebook").
	Description string

	// Value is the total amount of the debt.
	Value decimal.Decimal

	// Plots is the number of installments. Always >= 1.
	Plots int

	// PurchaseDate is the calendar date of the purchase. The first
	// installment is due one month later.
	PurchaseDate time.Time

	// Note is an optional free-text note.
	Note string

	// State is pay once every installment is paid, overdue once any
	// installment is overdue, canceled on explicit request.
	State State

	CreatedAt int64
	UpdatedAt int64
}

// DebtSummary is a debt as returned by listings, with the values that
// require joins.
type DebtSummary struct {
	Debt

	// Category is the description of the debt's category.
	Category string

	// PaidInstallments is the number of installments in state pay.
	PaidInstallments int
}
