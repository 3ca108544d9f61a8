package models

// DashboardTotals holds per-state installment counts and values.
// Counts are float64 to match the wire format of the dashboard.
type DashboardTotals struct {
	TotalDebt      float64
	TotalDebtValue float64

	TotalPay      float64
	TotalPayValue float64

	TotalPending      float64
	TotalPendingValue float64

	TotalOverdue      float64
	TotalOverdueValue float64

	TotalCanceled      float64
	TotalCanceledValue float64
}
