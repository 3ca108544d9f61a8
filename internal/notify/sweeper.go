package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kleberson-Figueiredo/debt-control/internal/metrics"
	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

// ReminderLead is how many days ahead the first reminder is sent.
const ReminderLead = 5

// DueLister finds pending installments due on given dates.
type DueLister interface {
	ListDueInstallments(ctx context.Context, dates []time.Time) ([]*models.DueInstallment, error)
}

// SweepResult summarizes one reminder sweep.
type SweepResult struct {
	Candidates int
	Sent       int
	Failed     int
	// Skipped counts installments whose owner has no device token.
	Skipped int
}

// Sweeper sends the daily due-date reminders.
type Sweeper struct {
	store    DueLister
	notifier Notifier
	policy   RetryPolicy
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewSweeper creates a sweeper. m may be nil.
func NewSweeper(store DueLister, notifier Notifier, policy RetryPolicy, m *metrics.Metrics, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, notifier: notifier, policy: policy, metrics: m, logger: logger}
}

// Run reminds owners of pending installments due today or in ReminderLead
// days. A failed notification is logged and counted; the sweep goes on with
// the next installment.
func (s *Sweeper) Run(ctx context.Context, today time.Time) (SweepResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSweep(time.Since(start)) }()

	today = models.DateOf(today)
	ahead := today.AddDate(0, 0, ReminderLead)

	due, err := s.store.ListDueInstallments(ctx, []time.Time{today, ahead})
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list due installments: %w", err)
	}

	result := SweepResult{Candidates: len(due)}
	for _, in := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if in.DeviceToken == "" {
			result.Skipped++
			continue
		}

		title, body := Reminder(in, today)
		err := Deliver(ctx, s.notifier, s.policy, in.DeviceToken, title, body)
		s.metrics.Notification("reminder", err)
		if err != nil {
			result.Failed++
			s.logger.Warn("Reminder failed",
				"installment_id", in.ID,
				"user_id", in.UserID,
				"error", err,
			)
			continue
		}
		result.Sent++
	}

	s.logger.Info("Reminder sweep finished",
		"date", models.FormatDate(today),
		"candidates", result.Candidates,
		"sent", result.Sent,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Reminder builds the reminder for an installment due today or ahead.
func Reminder(in *models.DueInstallment, today time.Time) (title, body string) {
	amount := in.Amount.StringFixed(2)
	if in.DueDate.Equal(models.DateOf(today)) {
		return fmt.Sprintf("⚠️ Installment of %s due today", in.DebtDescription),
			fmt.Sprintf("Your installment #%d is due today. Amount: R$ %s", in.Number, amount)
	}
	return fmt.Sprintf("📅 Installment of %s due soon", in.DebtDescription),
		fmt.Sprintf("Your installment #%d is due in %d days. Amount: R$ %s", in.Number, ReminderLead, amount)
}
