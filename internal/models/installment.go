package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one scheduled partial payment of a Debt.
type Installment struct {
	ID     string
	DebtID string
	UserID string

	// Number is the 1-based sequence number within the debt.
	Number int

	// Amount is the scheduled installment amount.
	Amount decimal.Decimal

	// DueDate is the calendar date the installment is due.
	DueDate time.Time

	// PaidAmount and PaidDate are set once the installment is paid.
	PaidAmount *decimal.Decimal
	PaidDate   *time.Time

	State State

	CreatedAt int64
	UpdatedAt int64
}

// DueInstallment is an installment joined with what a reminder needs.
type DueInstallment struct {
	Installment

	DebtDescription string
	DeviceToken     string
}
