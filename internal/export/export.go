// Package export renders a user's debts and installments as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	DebtsSheet        = "Debts"
	InstallmentsSheet = "Installments"
)

// Source is the read side of the store used by the export.
type Source interface {
	ListDebts(ctx context.Context, userID string, filter storage.DebtFilter) ([]*models.DebtSummary, error)
	ListInstallments(ctx context.Context, userID string, filter storage.InstallmentFilter) ([]*models.Installment, error)
}

// Write loads every debt and installment of userID and writes the workbook to w.
func Write(ctx context.Context, w io.Writer, src Source, userID string) error {
	debts, err := allDebts(ctx, src, userID)
	if err != nil {
		return err
	}
	installments, err := allInstallments(ctx, src, userID)
	if err != nil {
		return err
	}

	f, err := Workbook(debts, installments)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func allDebts(ctx context.Context, src Source, userID string) ([]*models.DebtSummary, error) {
	var all []*models.DebtSummary
	page := storage.Page{Limit: storage.DefaultLimit}
	for {
		batch, err := src.ListDebts(ctx, userID, storage.DebtFilter{Page: page})
		if err != nil {
			return nil, fmt.Errorf("failed to load debts: %w", err)
		}
		all = append(all, batch...)
		if len(batch) < page.Limit {
			return all, nil
		}
		page.Offset += page.Limit
	}
}

func allInstallments(ctx context.Context, src Source, userID string) ([]*models.Installment, error) {
	var all []*models.Installment
	page := storage.Page{Limit: storage.DefaultLimit}
	for {
		batch, err := src.ListInstallments(ctx, userID, storage.InstallmentFilter{Page: page})
		if err != nil {
			return nil, fmt.Errorf("failed to load installments: %w", err)
		}
		all = append(all, batch...)
		if len(batch) < page.Limit {
			return all, nil
		}
		page.Offset += page.Limit
	}
}

// Workbook builds the workbook in memory. The caller closes it.
func Workbook(debts []*models.DebtSummary, installments []*models.Installment) (*excelize.File, error) {
	f := excelize.NewFile()

	// The default sheet becomes the debts sheet.
	if err := f.SetSheetName(f.GetSheetName(0), DebtsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(InstallmentsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	descriptions := make(map[string]string, len(debts))
	debtRows := make([][]any, 0, len(debts))
	for _, d := range debts {
		descriptions[d.ID] = d.Description
		debtRows = append(debtRows, []any{
			d.Description, d.Category, d.Value.InexactFloat64(), d.Plots, d.PaidInstallments,
			models.FormatDate(d.PurchaseDate), string(d.State), d.Note,
		})
	}

	installmentRows := make([][]any, 0, len(installments))
	for _, in := range installments {
		var paidAmount, paidDate any
		if in.PaidAmount != nil {
			paidAmount = in.PaidAmount.InexactFloat64()
		}
		if in.PaidDate != nil {
			paidDate = models.FormatDate(*in.PaidDate)
		}
		installmentRows = append(installmentRows, []any{
			descriptions[in.DebtID], in.Number, in.Amount.InexactFloat64(),
			models.FormatDate(in.DueDate), string(in.State), paidAmount, paidDate,
		})
	}

	sheets := []struct {
		name    string
		headers []any
		rows    [][]any
		widths  []float64
	}{
		{
			name:    DebtsSheet,
			headers: []any{"Description", "Category", "Value", "Plots", "Paid", "Purchase date", "State", "Note"},
			rows:    debtRows,
			widths:  []float64{30, 18, 12, 8, 8, 14, 10, 30},
		},
		{
			name:    InstallmentsSheet,
			headers: []any{"Debt", "Number", "Amount", "Due date", "State", "Paid amount", "Paid date"},
			rows:    installmentRows,
			widths:  []float64{30, 8, 12, 12, 10, 12, 12},
		},
	}

	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.headers, s.rows, s.widths); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headers []any, rows [][]any, widths []float64) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("failed to size %s column %s: %w", sheet, col, err)
		}
	}
	return nil
}
