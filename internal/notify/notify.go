// Package notify delivers push notifications about installments.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrUndeliverable marks failures that retrying cannot fix, such as an
// unregistered device token.
var ErrUndeliverable = errors.New("notification undeliverable")

// Notifier sends one push notification to a device.
type Notifier interface {
	Send(ctx context.Context, token, title, body string) error
}

// LogNotifier only logs notifications. Used when no push provider is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Send implements Notifier.
func (n LogNotifier) Send(ctx context.Context, token, title, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Notification", "token", redact(token), "title", title, "body", body)
	return nil
}

// RetryPolicy bounds the attempts made for one notification.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint64
	// Backoff is the first delay; it doubles on every retry.
	Backoff time.Duration
}

// DefaultRetryPolicy makes three attempts in total.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 2, Backoff: 500 * time.Millisecond}

// Deliver sends one notification, retrying transient failures. An empty
// token is a no-op.
func Deliver(ctx context.Context, n Notifier, policy RetryPolicy, token, title, body string) error {
	if token == "" {
		return nil
	}
	backoff := policy.Backoff
	if backoff <= 0 {
		backoff = DefaultRetryPolicy.Backoff
	}

	b := retry.WithMaxRetries(policy.MaxRetries, retry.NewExponential(backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := n.Send(ctx, token, title, body)
		if err == nil || errors.Is(err, ErrUndeliverable) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// Paid builds the notification sent when an installment is paid.
func Paid(number int, debtDescription string) (title, body string) {
	return "✅ Installment paid",
		fmt.Sprintf("Your installment #%d of debt %s has been paid", number, debtDescription)
}

func redact(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
