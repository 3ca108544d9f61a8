package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

func TestGenerateInstallments(t *testing.T) {
	purchase := models.Date(2025, time.February, 2)

	t.Run("two plots nothing paid", func(t *testing.T) {
		state, got, err := GenerateInstallments(decimal.NewFromInt(255), 2, purchase, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state != models.StatePending {
			t.Errorf("state = %s, want pending", state)
		}
		if len(got) != 2 {
			t.Fatalf("got %d installments, want 2", len(got))
		}

		wantDue := []time.Time{models.Date(2025, time.March, 2), models.Date(2025, time.April, 2)}
		for i, p := range got {
			if p.Number != i+1 {
				t.Errorf("installment %d number = %d", i, p.Number)
			}
			if !p.Amount.Equal(decimal.RequireFromString("127.5")) {
				t.Errorf("installment %d amount = %s, want 127.5", i, p.Amount)
			}
			if !p.DueDate.Equal(wantDue[i]) {
				t.Errorf("installment %d due = %s, want %s", i, models.FormatDate(p.DueDate), models.FormatDate(wantDue[i]))
			}
			if p.State != models.StatePending {
				t.Errorf("installment %d state = %s, want pending", i, p.State)
			}
			if p.PaidAmount != nil || p.PaidDate != nil {
				t.Errorf("installment %d should have no payment", i)
			}
		}
	})

	t.Run("partially paid", func(t *testing.T) {
		state, got, err := GenerateInstallments(decimal.NewFromInt(300), 3, purchase, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state != models.StatePending {
			t.Errorf("state = %s, want pending", state)
		}
		for _, p := range got[:2] {
			if p.State != models.StatePay {
				t.Errorf("installment %d state = %s, want pay", p.Number, p.State)
			}
			if p.PaidAmount == nil || !p.PaidAmount.Equal(p.Amount) {
				t.Errorf("installment %d paid amount = %v, want %s", p.Number, p.PaidAmount, p.Amount)
			}
			if p.PaidDate == nil || !p.PaidDate.Equal(p.DueDate) {
				t.Errorf("installment %d paid date = %v, want due date", p.Number, p.PaidDate)
			}
		}
		if got[2].State != models.StatePending {
			t.Errorf("installment 3 state = %s, want pending", got[2].State)
		}
	})

	t.Run("fully paid", func(t *testing.T) {
		state, _, err := GenerateInstallments(decimal.NewFromInt(100), 4, purchase, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state != models.StatePay {
			t.Errorf("state = %s, want pay", state)
		}
	})

	t.Run("single plot", func(t *testing.T) {
		_, got, err := GenerateInstallments(decimal.NewFromInt(99), 1, purchase, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || !got[0].DueDate.Equal(models.Date(2025, time.March, 2)) {
			t.Errorf("got %+v, want one installment due 2025-03-02", got)
		}
	})

	errCases := []struct {
		name        string
		plots, paid int
	}{
		{"zero plots", 0, 0},
		{"negative plots", -3, 0},
		{"negative paid", 2, -1},
		{"paid above plots", 2, 3},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			_, got, err := GenerateInstallments(decimal.NewFromInt(10), tc.plots, purchase, tc.paid)
			if !errors.Is(err, ErrInvalidPlots) {
				t.Fatalf("err = %v, want ErrInvalidPlots", err)
			}
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("err should also match ErrInvalidInput")
			}
			if got != nil {
				t.Errorf("expected no installments, got %d", len(got))
			}
		})
	}
}

func TestGenerateInstallmentsProperties(t *testing.T) {
	purchase := models.Date(2024, time.January, 15)
	totals := []string{"255", "100", "99.99", "1000.01", "0.05"}

	for _, total := range totals {
		for plots := 1; plots <= 13; plots++ {
			value := decimal.RequireFromString(total)
			_, got, err := GenerateInstallments(value, plots, purchase, 0)
			if err != nil {
				t.Fatalf("total=%s plots=%d: %v", total, plots, err)
			}

			amount := InstallmentAmount(value, plots)
			sum := decimal.Zero
			prev := purchase
			for i, p := range got {
				if p.Number != i+1 {
					t.Errorf("total=%s plots=%d: number %d at index %d", total, plots, p.Number, i)
				}
				if !p.DueDate.Equal(AddMonths(prev, 1)) {
					t.Errorf("total=%s plots=%d: installment %d due %s, previous %s",
						total, plots, p.Number, models.FormatDate(p.DueDate), models.FormatDate(prev))
				}
				prev = p.DueDate
				sum = sum.Add(p.Amount)
			}

			want := amount.Mul(decimal.NewFromInt(int64(plots)))
			if !sum.Equal(want) {
				t.Errorf("total=%s plots=%d: sum %s, want %s", total, plots, sum, want)
			}
		}
	}
}

func TestInstallmentAmountDrift(t *testing.T) {
	amount := InstallmentAmount(decimal.NewFromInt(100), 3)
	if !amount.Equal(decimal.RequireFromString("33.33")) {
		t.Fatalf("amount = %s, want 33.33", amount)
	}
	sum := amount.Mul(decimal.NewFromInt(3))
	if !sum.Equal(decimal.RequireFromString("99.99")) {
		t.Errorf("sum = %s, want 99.99 (remainder is not reconciled)", sum)
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"plain", models.Date(2025, time.February, 2), 1, models.Date(2025, time.March, 2)},
		{"end of january", models.Date(2025, time.January, 31), 1, models.Date(2025, time.February, 28)},
		{"leap year", models.Date(2024, time.January, 31), 1, models.Date(2024, time.February, 29)},
		{"year rollover", models.Date(2024, time.December, 15), 1, models.Date(2025, time.January, 15)},
		{"several months", models.Date(2025, time.January, 31), 3, models.Date(2025, time.April, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.in, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddMonths(%s, %d) = %s, want %s", models.FormatDate(tt.in), tt.n, models.FormatDate(got), models.FormatDate(tt.want))
			}
		})
	}
}

func TestGenerateInstallmentsClampIsCumulative(t *testing.T) {
	_, got, err := GenerateInstallments(decimal.NewFromInt(30), 3, models.Date(2025, time.December, 31), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2026-01-31", "2026-02-28", "2026-03-28"}
	for i, p := range got {
		if models.FormatDate(p.DueDate) != want[i] {
			t.Errorf("installment %d due %s, want %s", p.Number, models.FormatDate(p.DueDate), want[i])
		}
	}
}
