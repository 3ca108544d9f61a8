package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
)

const installmentColumns = "id, debt_id, user_id, number, amount, due_date, paid_amount, paid_date, state, created_at, updated_at"

// ListInstallments returns the user's installments ordered by due date.
func (s *Store) ListInstallments(ctx context.Context, userID string, filter storage.InstallmentFilter) ([]*models.Installment, error) {
	page := filter.Page.Normalize()

	where := []string{"user_id = ?"}
	args := []any{userID}
	if filter.DebtID != "" {
		where = append(where, "debt_id = ?")
		args = append(args, filter.DebtID)
	}
	if len(filter.States) > 0 {
		where = append(where, "state IN ("+placeholders(len(filter.States))+")")
		for _, st := range filter.States {
			args = append(args, string(st))
		}
	}
	if filter.StartDate != nil {
		where = append(where, "due_date >= ?")
		args = append(args, models.FormatDate(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where = append(where, "due_date <= ?")
		args = append(args, models.FormatDate(*filter.EndDate))
	}
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+installmentColumns+" FROM installments WHERE "+strings.Join(where, " AND ")+
			" ORDER BY due_date, number, id LIMIT ? OFFSET ?"), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	var installments []*models.Installment
	for rows.Next() {
		in, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installments: %w", err)
	}

	return installments, nil
}

// PayInstallments marks the given installments of one debt as paid. Every ID
// must belong to the debt and be pending or overdue, otherwise nothing is
// written. The debt becomes pay once no unpaid installment remains, and goes
// back from overdue to pending once no overdue installment remains.
func (s *Store) PayInstallments(ctx context.Context, p storage.Payment) ([]*models.Installment, error) {
	ids := uniqueIDs(p.InstallmentIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no installments to pay", models.ErrInvalidInput)
	}

	var paid []*models.Installment
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		debt, err := s.getDebt(ctx, tx, p.UserID, p.DebtID)
		if err != nil {
			return err
		}

		args := []any{debt.ID, p.UserID}
		for _, id := range ids {
			args = append(args, id)
		}
		rows, err := tx.QueryContext(ctx, s.rebind(
			"SELECT "+installmentColumns+" FROM installments WHERE debt_id = ? AND user_id = ? AND id IN ("+
				placeholders(len(ids))+") ORDER BY number"), args...)
		if err != nil {
			return fmt.Errorf("failed to load installments: %w", err)
		}
		for rows.Next() {
			in, err := scanInstallment(rows)
			if err != nil {
				rows.Close()
				return err
			}
			paid = append(paid, in)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate installments: %w", err)
		}

		if len(paid) != len(ids) {
			return fmt.Errorf("installment: %w", models.ErrNotFound)
		}
		for _, in := range paid {
			if !in.State.Payable() {
				return fmt.Errorf("installment %d is %s: %w", in.Number, in.State, models.ErrNotPayable)
			}
		}

		now := nowUnix()
		paidDate := models.DateOf(p.Date)
		update := s.rebind("UPDATE installments SET state = ?, paid_amount = ?, paid_date = ?, updated_at = ? WHERE id = ?")
		for _, in := range paid {
			amount := in.Amount
			if p.Amount != nil {
				amount = *p.Amount
			}
			date := paidDate
			in.State = models.StatePay
			in.PaidAmount = &amount
			in.PaidDate = &date
			in.UpdatedAt = now

			if _, err := tx.ExecContext(ctx, update,
				string(in.State), nullDecimal(in.PaidAmount), nullDate(in.PaidDate), now, in.ID,
			); err != nil {
				return fmt.Errorf("failed to pay installment %d: %w", in.Number, err)
			}
		}

		var unpaid, overdue int
		if err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT
				COUNT(CASE WHEN state IN (?, ?) THEN 1 END),
				COUNT(CASE WHEN state = ? THEN 1 END)
			FROM installments WHERE debt_id = ?`),
			string(models.StatePending), string(models.StateOverdue), string(models.StateOverdue), debt.ID,
		).Scan(&unpaid, &overdue); err != nil {
			return fmt.Errorf("failed to count unpaid installments: %w", err)
		}

		state := debt.State
		switch {
		case unpaid == 0:
			state = models.StatePay
		case debt.State == models.StateOverdue && overdue == 0:
			state = models.StatePending
		}
		if state != debt.State {
			if _, err := tx.ExecContext(ctx,
				s.rebind("UPDATE debts SET state = ?, updated_at = ? WHERE id = ?"),
				string(state), now, debt.ID,
			); err != nil {
				return fmt.Errorf("failed to update debt state: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// RefreshOverdue flags pending installments due before today, then pending
// debts that own an overdue installment. Both updates commit together.
func (s *Store) RefreshOverdue(ctx context.Context, userID string, today time.Time) (int64, error) {
	var affected int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := nowUnix()

		installmentsQuery := "UPDATE installments SET state = ?, updated_at = ? WHERE state = ? AND due_date < ?"
		args := []any{string(models.StateOverdue), now, string(models.StatePending), models.FormatDate(models.DateOf(today))}
		if userID != "" {
			installmentsQuery += " AND user_id = ?"
			args = append(args, userID)
		}
		res, err := tx.ExecContext(ctx, s.rebind(installmentsQuery), args...)
		if err != nil {
			return fmt.Errorf("failed to refresh overdue installments: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		affected += n

		debtsQuery := `UPDATE debts SET state = ?, updated_at = ? WHERE state = ?
			AND EXISTS (SELECT 1 FROM installments i WHERE i.debt_id = debts.id AND i.state = ?)`
		args = []any{string(models.StateOverdue), now, string(models.StatePending), string(models.StateOverdue)}
		if userID != "" {
			debtsQuery += " AND user_id = ?"
			args = append(args, userID)
		}
		res, err = tx.ExecContext(ctx, s.rebind(debtsQuery), args...)
		if err != nil {
			return fmt.Errorf("failed to refresh overdue debts: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		affected += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ListDueInstallments returns pending installments due on any of dates.
func (s *Store) ListDueInstallments(ctx context.Context, dates []time.Time) ([]*models.DueInstallment, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	args := []any{string(models.StatePending)}
	for _, d := range dates {
		args = append(args, models.FormatDate(models.DateOf(d)))
	}

	query := `
		SELECT i.id, i.debt_id, i.user_id, i.number, i.amount, i.due_date, i.paid_amount, i.paid_date,
		       i.state, i.created_at, i.updated_at, d.description, u.device_token
		FROM installments i
		JOIN debts d ON d.id = i.debt_id
		JOIN users u ON u.id = i.user_id
		WHERE i.state = ? AND i.due_date IN (` + placeholders(len(dates)) + `)
		ORDER BY i.due_date, i.user_id, i.number`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list due installments: %w", err)
	}
	defer rows.Close()

	var due []*models.DueInstallment
	for rows.Next() {
		var (
			d     models.DueInstallment
			extra = []any{&d.DebtDescription, &d.DeviceToken}
		)
		in, err := scanInstallment(rows, extra...)
		if err != nil {
			return nil, err
		}
		d.Installment = *in
		due = append(due, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due installments: %w", err)
	}

	return due, nil
}

// scanInstallment reads installmentColumns followed by any extra columns.
func scanInstallment(row rowScanner, extra ...any) (*models.Installment, error) {
	var (
		in         models.Installment
		amount     decimal.Decimal
		due        string
		paidAmount decimal.NullDecimal
		paidDate   sql.NullString
		state      string
	)
	dest := []any{&in.ID, &in.DebtID, &in.UserID, &in.Number, &amount, &due,
		&paidAmount, &paidDate, &state, &in.CreatedAt, &in.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, fmt.Errorf("failed to scan installment: %w", err)
	}

	dueDate, err := models.ParseDate(due)
	if err != nil {
		return nil, fmt.Errorf("failed to parse due date of installment %s: %w", in.ID, err)
	}
	in.Amount = amount
	in.DueDate = dueDate
	in.State = models.State(state)

	if paidAmount.Valid {
		v := paidAmount.Decimal
		in.PaidAmount = &v
	}
	if paidDate.Valid {
		d, err := models.ParseDate(paidDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse paid date of installment %s: %w", in.ID, err)
		}
		in.PaidDate = &d
	}

	return &in, nil
}

// uniqueIDs drops blanks and duplicates and sorts the rest.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
