package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
	"github.com/Kleberson-Figueiredo/debt-control/internal/storage"
)

const debtColumns = "id, user_id, category_id, description, value, plots, purchase_date, note, state, created_at, updated_at"

// CreateDebt persists a debt and its installments in one transaction,
// generating the missing IDs.
func (s *Store) CreateDebt(ctx context.Context, nd storage.NewDebt) error {
	debt := nd.Debt
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	if debt.CreatedAt == 0 {
		debt.CreatedAt = nowUnix()
	}
	debt.UpdatedAt = debt.CreatedAt

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			s.rebind("INSERT INTO debts ("+debtColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
			debt.ID, debt.UserID, debt.CategoryID, debt.Description, debt.Value,
			debt.Plots, models.FormatDate(debt.PurchaseDate), debt.Note, string(debt.State),
			debt.CreatedAt, debt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert debt: %w", err)
		}

		insert := s.rebind("INSERT INTO installments (" + installmentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		for _, in := range nd.Installments {
			if in.ID == "" {
				in.ID = uuid.New().String()
			}
			in.DebtID = debt.ID
			in.UserID = debt.UserID
			in.CreatedAt = debt.CreatedAt
			in.UpdatedAt = debt.CreatedAt

			_, err := tx.ExecContext(ctx, insert,
				in.ID, in.DebtID, in.UserID, in.Number, in.Amount,
				models.FormatDate(in.DueDate), nullDecimal(in.PaidAmount), nullDate(in.PaidDate),
				string(in.State), in.CreatedAt, in.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert installment %d: %w", in.Number, err)
			}
		}
		return nil
	})
}

// GetDebt retrieves a debt owned by userID.
func (s *Store) GetDebt(ctx context.Context, userID, debtID string) (*models.Debt, error) {
	return s.getDebt(ctx, s.db, userID, debtID)
}

func (s *Store) getDebt(ctx context.Context, q queryer, userID, debtID string) (*models.Debt, error) {
	row := q.QueryRowContext(ctx,
		s.rebind("SELECT "+debtColumns+" FROM debts WHERE user_id = ? AND id = ?"), userID, debtID)

	debt, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("debt: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

// FindDuplicateDebt reports whether the user already registered a debt with
// the same description in the purchase month.
func (s *Store) FindDuplicateDebt(ctx context.Context, userID, description string, purchase time.Time) (bool, error) {
	start, next := models.MonthBounds(purchase)

	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*) FROM debts
		WHERE user_id = ? AND LOWER(description) = LOWER(?)
		  AND purchase_date >= ? AND purchase_date < ?`),
		userID, description, models.FormatDate(start), models.FormatDate(next),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate debt: %w", err)
	}
	return n > 0, nil
}

// ListDebts returns the user's debts, newest purchase first, with their
// category description and number of paid installments.
func (s *Store) ListDebts(ctx context.Context, userID string, filter storage.DebtFilter) ([]*models.DebtSummary, error) {
	page := filter.Page.Normalize()

	where := []string{"d.user_id = ?"}
	args := []any{userID}
	if filter.Description != "" {
		where = append(where, "LOWER(d.description) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Description)+"%")
	}
	if filter.State != "" {
		where = append(where, "d.state = ?")
		args = append(args, string(filter.State))
	}
	if filter.StartDate != nil {
		where = append(where, "d.purchase_date >= ?")
		args = append(args, models.FormatDate(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where = append(where, "d.purchase_date <= ?")
		args = append(args, models.FormatDate(*filter.EndDate))
	}
	args = append(args, page.Limit, page.Offset)

	query := `
		SELECT d.id, d.user_id, d.category_id, d.description, d.value, d.plots,
		       d.purchase_date, d.note, d.state, d.created_at, d.updated_at,
		       c.description,
		       (SELECT COUNT(*) FROM installments i WHERE i.debt_id = d.id AND i.state = 'pay')
		FROM debts d
		JOIN categories c ON c.id = d.category_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY d.purchase_date DESC, d.created_at DESC, d.id
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.DebtSummary
	for rows.Next() {
		var (
			sum      models.DebtSummary
			value    decimal.Decimal
			purchase string
			state    string
		)
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.CategoryID, &sum.Description, &value, &sum.Plots,
			&purchase, &sum.Note, &state, &sum.CreatedAt, &sum.UpdatedAt,
			&sum.Category, &sum.PaidInstallments); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		if err := fillDebt(&sum.Debt, value, purchase, state); err != nil {
			return nil, err
		}
		debts = append(debts, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}

	return debts, nil
}

// UpdateDebt saves the mutable fields of a debt. Canceling a debt cancels
// its unpaid installments in the same transaction.
func (s *Store) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	debt.UpdatedAt = nowUnix()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE debts SET description = ?, note = ?, category_id = ?, state = ?, updated_at = ?
			WHERE user_id = ? AND id = ?`),
			debt.Description, debt.Note, debt.CategoryID, string(debt.State), debt.UpdatedAt,
			debt.UserID, debt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update debt: %w", err)
		}
		if err := expectOne(res, "debt"); err != nil {
			return err
		}

		if debt.State != models.StateCanceled {
			return nil
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE installments SET state = ?, updated_at = ?
			WHERE debt_id = ? AND state IN (?, ?)`),
			string(models.StateCanceled), debt.UpdatedAt, debt.ID,
			string(models.StatePending), string(models.StateOverdue),
		); err != nil {
			return fmt.Errorf("failed to cancel installments: %w", err)
		}
		return nil
	})
}

// DeleteDebt removes a debt; its installments are removed by cascade.
func (s *Store) DeleteDebt(ctx context.Context, userID, debtID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM debts WHERE user_id = ? AND id = ?"), userID, debtID)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	return expectOne(res, "debt")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebt(row rowScanner) (*models.Debt, error) {
	var (
		debt     models.Debt
		value    decimal.Decimal
		purchase string
		state    string
	)
	if err := row.Scan(&debt.ID, &debt.UserID, &debt.CategoryID, &debt.Description, &value, &debt.Plots,
		&purchase, &debt.Note, &state, &debt.CreatedAt, &debt.UpdatedAt); err != nil {
		return nil, err
	}
	if err := fillDebt(&debt, value, purchase, state); err != nil {
		return nil, err
	}
	return &debt, nil
}

func fillDebt(debt *models.Debt, value decimal.Decimal, purchase, state string) error {
	date, err := models.ParseDate(purchase)
	if err != nil {
		return fmt.Errorf("failed to parse purchase date of debt %s: %w", debt.ID, err)
	}
	debt.Value = value
	debt.PurchaseDate = date
	debt.State = models.State(state)
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: models.FormatDate(*t), Valid: true}
}
