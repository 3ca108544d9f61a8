package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

type bucket struct {
	count int
	value decimal.Decimal
}

func (b *bucket) add(v decimal.Decimal) {
	b.count++
	b.value = b.value.Add(v)
}

func (b bucket) totals() (float64, float64) {
	return float64(b.count), b.value.Round(2).InexactFloat64()
}

// AggregateDashboard groups installments into per-state totals.
//
// Every item counts toward the grand total. Each item then lands in at most
// one bucket, checked in this order: state pay, state pending, state
// canceled, due date before today. An item stored as overdue whose due date
// is today or later falls through every bucket and only counts in the grand
// total.
func AggregateDashboard(items []models.Installment, today time.Time) models.DashboardTotals {
	today = models.DateOf(today)

	var all, pay, pending, overdue, canceled bucket
	for _, it := range items {
		all.add(it.Amount)

		switch {
		case it.State == models.StatePay:
			pay.add(it.Amount)
		case it.State == models.StatePending:
			pending.add(it.Amount)
		case it.State == models.StateCanceled:
			canceled.add(it.Amount)
		case it.DueDate.Before(today):
			overdue.add(it.Amount)
		}
	}

	var t models.DashboardTotals
	t.TotalDebt, t.TotalDebtValue = all.totals()
	t.TotalPay, t.TotalPayValue = pay.totals()
	t.TotalPending, t.TotalPendingValue = pending.totals()
	t.TotalOverdue, t.TotalOverdueValue = overdue.totals()
	t.TotalCanceled, t.TotalCanceledValue = canceled.totals()
	return t
}
