package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

// ErrInvalidPlots is returned when the installment count or the number of
// already paid installments is out of range.
var ErrInvalidPlots = fmt.Errorf("%w: invalid plots value", models.ErrInvalidInput)

// PlannedInstallment is one installment computed for a new debt, before it
// gets an ID and is persisted.
type PlannedInstallment struct {
	Number     int
	Amount     decimal.Decimal
	DueDate    time.Time
	State      models.State
	PaidAmount *decimal.Decimal
	PaidDate   *time.Time
}

// InstallmentAmount splits total evenly across plots, rounded half away from
// zero to 2 decimal places. The remainder cents are not reconciled, so
// amount*plots may differ from total by a few cents.
func InstallmentAmount(total decimal.Decimal, plots int) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(plots)), 2)
}

// AddMonths moves d forward by n calendar months. When the target month is
// shorter than d's day, the result is clamped to the target month's last day
// (Jan 31 + 1 month = Feb 28 or 29).
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}

// GenerateInstallments expands a debt into its installment schedule.
//
// The first installment is due one month after purchase and each next one a
// month after the previous. The month step is applied to the previous due
// date, so a clamped day stays clamped (Jan 31, Feb 28, Mar 28, ...).
// Installments 1..alreadyPaid are created paid on their due date.
//
// The returned state is the parent debt's state: pay when every installment
// is already paid, pending otherwise.
func GenerateInstallments(total decimal.Decimal, plots int, purchase time.Time, alreadyPaid int) (models.State, []PlannedInstallment, error) {
	if plots < 1 {
		return "", nil, fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidPlots, plots)
	}
	if alreadyPaid < 0 || alreadyPaid > plots {
		return "", nil, fmt.Errorf("%w: paid installments must be between 0 and %d, got %d", ErrInvalidPlots, plots, alreadyPaid)
	}

	amount := InstallmentAmount(total, plots)
	planned := make([]PlannedInstallment, 0, plots)
	due := models.DateOf(purchase)

	for n := 1; n <= plots; n++ {
		due = AddMonths(due, 1)
		p := PlannedInstallment{
			Number:  n,
			Amount:  amount,
			DueDate: due,
			State:   models.StatePending,
		}
		if n <= alreadyPaid {
			paidAmount := amount
			paidDate := due
			p.State = models.StatePay
			p.PaidAmount = &paidAmount
			p.PaidDate = &paidDate
		}
		planned = append(planned, p)
	}

	state := models.StatePending
	if alreadyPaid == plots {
		state = models.StatePay
	}
	return state, planned, nil
}
