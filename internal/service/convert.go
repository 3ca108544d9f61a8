package service

import (
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toAPICategory(c *models.Category) *api.Category {
	return &api.Category{ID: c.ID, Description: c.Description}
}

func toAPIDebt(d *models.Debt) *api.Debt {
	return &api.Debt{
		ID:           d.ID,
		Description:  d.Description,
		Value:        d.Value.InexactFloat64(),
		Plots:        d.Plots,
		PurchaseDate: models.FormatDate(d.PurchaseDate),
		Note:         d.Note,
		CategoryID:   d.CategoryID,
		State:        string(d.State),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toAPIDebtSummary(d *models.DebtSummary) *api.Debt {
	out := toAPIDebt(&d.Debt)
	out.Category = d.Category
	out.PaidInstallments = d.PaidInstallments
	return out
}

func toAPIInstallment(in *models.Installment) *api.Installment {
	out := &api.Installment{
		ID:      in.ID,
		DebtID:  in.DebtID,
		Number:  in.Number,
		Amount:  in.Amount.InexactFloat64(),
		DueDate: models.FormatDate(in.DueDate),
		State:   string(in.State),
	}
	if in.PaidAmount != nil {
		v := in.PaidAmount.InexactFloat64()
		out.PaidAmount = &v
	}
	if in.PaidDate != nil {
		s := models.FormatDate(*in.PaidDate)
		out.PaidDate = &s
	}
	return out
}

func toAPIInstallments(items []*models.Installment) []*api.Installment {
	out := make([]*api.Installment, 0, len(items))
	for _, in := range items {
		out = append(out, toAPIInstallment(in))
	}
	return out
}

func toAPIDashboard(t *models.DashboardTotals) *api.Dashboard {
	return &api.Dashboard{
		TotalDebt:          t.TotalDebt,
		TotalDebtValue:     t.TotalDebtValue,
		TotalPay:           t.TotalPay,
		TotalPayValue:      t.TotalPayValue,
		TotalPending:       t.TotalPending,
		TotalPendingValue:  t.TotalPendingValue,
		TotalOverdue:       t.TotalOverdue,
		TotalOverdueValue:  t.TotalOverdueValue,
		TotalCanceled:      t.TotalCanceled,
		TotalCanceledValue: t.TotalCanceledValue,
	}
}
